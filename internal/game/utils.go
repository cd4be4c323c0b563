package game

func mod(a, n int) int {
	if n == 0 {
		return 0
	}
	return ((a % n) + n) % n
}

// playerByID finds a seated player. Assumes lock is held.
func (g *MauGame) playerByID(userID string) *Player {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (g *MauGame) indexOf(p *Player) int {
	for i, pl := range g.Players {
		if pl == p {
			return i
		}
	}
	return -1
}

// current returns the seat holding the turn, or nil when nobody is seated.
func (g *MauGame) current() *Player {
	if len(g.Players) == 0 {
		return nil
	}
	return g.Players[g.CurrentPlayerIndex]
}

// turnOf checks that the game runs and that userID holds the turn. Assumes lock is held.
func (g *MauGame) turnOf(userID string) (*Player, error) {
	if g.GameOver {
		return nil, ErrGameOver
	}
	if !g.Started {
		return nil, ErrNotStarted
	}
	p := g.playerByID(userID)
	if p == nil {
		return nil, ErrNotPlayer
	}
	if p != g.current() {
		return nil, ErrNotYourTurn
	}
	return p, nil
}
