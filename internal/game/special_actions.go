// internal/game/special_actions.go
package game

import (
	"fmt"
	"math"
	"time"

	"github.com/jason-s-yu/mau/pkg/types"
)

// wrongState builds a descriptive rejection for an action issued in the wrong state.
func wrongState(s types.GameState) error {
	return fmt.Errorf("%w: game is waiting for %s", ErrWrongState, s)
}

// skipPlayers moves the turn cursor n seats in the current direction. Assumes lock is held.
func (g *MauGame) skipPlayers(n int) {
	if g.Reverse {
		g.CurrentPlayerIndex = mod(g.CurrentPlayerIndex-n, len(g.Players))
	} else {
		g.CurrentPlayerIndex = mod(g.CurrentPlayerIndex+n, len(g.Players))
	}
}

// nextTurn hands the turn to the next seat. Assumes lock is held.
func (g *MauGame) nextTurn() {
	g.State = types.StateNext
	g.TakeFlag = false
	g.TurnStart = g.now()
	g.skipPlayers(1)
	if p := g.current(); p != nil {
		g.fireEvent(EventNextTurn, p.UserID, nil)
	}
}

// setState changes the resolution state. Assumes lock is held.
func (g *MauGame) setState(actor string, s types.GameState) {
	g.State = s
	g.fireEvent(EventStateChange, actor, map[string]interface{}{"state": s.String()})
}

// applyCard performs the effect of a card that was just put on top of prev.
// Assumes lock is held.
func (g *MauGame) applyCard(c, prev Card) {
	actor := ""
	if p := g.current(); p != nil {
		actor = p.UserID
	}
	switch c.Type {
	case types.CardTurn:
		g.skipPlayers(c.Value)
	case types.CardReverse:
		if len(g.Players) == 2 {
			g.skipPlayers(1)
		} else {
			g.Reverse = !g.Reverse
		}
	case types.CardTake:
		g.TakeCounter += c.Value
	case types.CardChooseColor:
		g.colorWild(actor, prev)
	case types.CardTakeFour:
		g.colorWild(actor, prev)
		g.TakeCounter += c.Value
	case types.CardNumber:
		if c.Value == twistHandValue && g.Rules.Has(RuleTwistHand) && len(g.Players) > 1 {
			g.setState(actor, types.StateTwistHand)
		} else if c.Value == 0 && g.Rules.Has(RuleRotateCards) {
			g.rotateHands()
			g.fireEvent(EventRotateCards, actor, nil)
		}
	}
}

// colorWild picks the color of a freshly played wild card, or waits for the player to
// choose one. Assumes lock is held.
func (g *MauGame) colorWild(actor string, prev Card) {
	switch {
	case g.Rules.Has(RuleAutoChooseColor):
		color := prev.Color
		if color == types.ColorBlack {
			color = types.ColorRed
		}
		if g.Reverse {
			color = types.CardColor(mod(int(color)+1, 4))
		} else {
			color = types.CardColor(mod(int(color)-1, 4))
		}
		g.Deck.SetTopColor(color)
		g.fireEvent(EventSelectColor, actor, map[string]interface{}{"color": int(color)})
	case g.Rules.Has(RuleChooseRandomColor):
		color := types.CardColor(g.rnd.Intn(4))
		g.Deck.SetTopColor(color)
		g.fireEvent(EventSelectColor, actor, map[string]interface{}{"color": int(color)})
	default:
		g.setState(actor, types.StateChooseColor)
	}
}

// rotateHands passes every hand one seat forward. Assumes lock is held.
func (g *MauGame) rotateHands() {
	n := len(g.Players)
	if n < 2 {
		return
	}
	last := g.Players[n-1].Hand
	for i := n - 1; i > 0; i-- {
		g.Players[i].Hand = g.Players[i-1].Hand
	}
	g.Players[0].Hand = last
}

// canPlay reports whether the seat may put c on the table right now. Assumes lock is held.
func (g *MauGame) canPlay(p *Player, c Card) bool {
	if g.State != types.StateNext && g.State != types.StateContinue {
		return false
	}
	top, ok := g.Deck.Top()
	if !ok {
		return false
	}
	if top.Type == types.CardTakeFour && g.TakeCounter > 0 {
		return false
	}
	if p != g.current() {
		if !g.Rules.Has(RuleIntervention) || !c.Same(top) {
			return false
		}
	}
	if top.Type == types.CardTake && g.TakeCounter > 0 {
		return c.Type == types.CardTake
	}
	return c.CanCover(top)
}

// takeCards draws the pending penalty, or one card, into the seat's hand.
// Assumes lock is held.
func (g *MauGame) takeCards(p *Player) {
	n := g.TakeCounter
	if n < 1 {
		n = 1
	}
	cards := g.Deck.Take(n)
	p.Hand = append(p.Hand, cards...)
	g.TakeCounter = 0
	g.TakeFlag = true
	g.fireEvent(EventPlayerTake, p.UserID, map[string]interface{}{"count": len(cards)})
}

// endTurn passes the turn on and collects any seat that emptied its hand.
// Assumes lock is held.
func (g *MauGame) endTurn() {
	g.nextTurn()
	g.collectWinners()
}

// PlayCard puts a card from the user's hand on the table.
func (g *MauGame) PlayCard(userID string, card Card) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.GameOver {
		return ErrGameOver
	}
	if !g.Started {
		return ErrNotStarted
	}
	p := g.playerByID(userID)
	if p == nil {
		return ErrNotPlayer
	}
	if g.State != types.StateNext && g.State != types.StateContinue {
		return wrongState(g.State)
	}
	idx := p.findCard(card)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrCardNotInHand, card)
	}
	c := p.Hand[idx]
	if p != g.current() {
		if !g.canPlay(p, c) {
			return ErrNotYourTurn
		}
		// Intervention takes over the turn.
		g.CurrentPlayerIndex = g.indexOf(p)
		g.State = types.StateNext
		g.TakeFlag = false
	} else if !g.canPlay(p, c) {
		top, _ := g.Deck.Top()
		return fmt.Errorf("%w: %s on %s", ErrCannotCover, c, top)
	}

	prev, _ := g.Deck.Top()
	if c.Type == types.CardTakeFour {
		g.bluffPlayer = p
		g.bluffing = p.hasColor(prev.Color)
	}
	p.removeCard(idx)
	g.Deck.PutOnTop(c)
	p.Played++
	g.State = types.StateNext
	g.fireEvent(EventPlayerPush, p.UserID, map[string]interface{}{"card": c.Data()})
	g.applyCard(c, prev)

	if g.State == types.StateChooseColor || g.State == types.StateTwistHand {
		return nil
	}
	if g.Rules.Has(RuleSideEffect) && c.Cost() == 1 && len(p.Hand) > 0 && g.current() == p {
		g.setState(p.UserID, types.StateContinue)
		return nil
	}
	if g.Rules.Has(RuleRandomColor) {
		color := types.CardColor(g.rnd.Intn(4))
		g.Deck.SetTopColor(color)
		g.fireEvent(EventSelectColor, "", map[string]interface{}{"color": int(color)})
	}
	g.endTurn()
	return nil
}

// Take draws the pending penalty, or a single card when nothing is pending.
func (g *MauGame) Take(userID string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.turnOf(userID)
	if err != nil {
		return err
	}
	if g.State != types.StateNext {
		return wrongState(g.State)
	}
	if g.TakeFlag && g.TakeCounter == 0 {
		return ErrAlreadyTook
	}

	if g.Rules.Has(RuleTakeUntilCover) && g.TakeCounter == 0 {
		g.TakeCounter = g.Deck.CountUntilCover()
	}
	shotgun := g.Rules.Has(RuleShotgun) || g.Rules.Has(RuleSingleShotgun)
	if g.TakeCounter > 3 && shotgun {
		g.setState(p.UserID, types.StateShotgun)
		return nil
	}

	g.takePenalty(p)
	return nil
}

// takePenalty draws the pending cards. A forced draw from a take card ends the turn,
// any other draw lets the seat play on. Assumes lock is held.
func (g *MauGame) takePenalty(p *Player) {
	top, _ := g.Deck.Top()
	forced := g.TakeCounter > 0 && (top.Type == types.CardTake || top.Type == types.CardTakeFour)
	g.takeCards(p)
	if forced {
		g.nextTurn()
		return
	}
	g.State = types.StateNext
}

// ShotgunTake accepts the pending penalty instead of firing.
func (g *MauGame) ShotgunTake(userID string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.turnOf(userID)
	if err != nil {
		return err
	}
	if g.State != types.StateShotgun {
		return wrongState(g.State)
	}
	g.takePenalty(p)
	return nil
}

// ShotgunShot fires the revolver. A hit knocks the seat out; otherwise the penalty grows
// by half and passes to the next seat.
func (g *MauGame) ShotgunShot(userID string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.turnOf(userID)
	if err != nil {
		return err
	}
	if g.State != types.StateShotgun {
		return wrongState(g.State)
	}

	var fired bool
	if g.Rules.Has(RuleSingleShotgun) {
		fired = g.Shotgun.Shot()
	} else {
		fired = p.Shotgun.Shot()
	}
	g.fireEvent(EventPlayerShotgun, p.UserID, map[string]interface{}{"fired": fired})

	if fired {
		g.dropPlayer(p, false)
		return nil
	}
	g.TakeCounter = int(math.Round(float64(g.TakeCounter) * 1.5))
	g.nextTurn()
	g.setState(p.UserID, types.StateShotgun)
	return nil
}

// CallBluff challenges the last wild draw four. A bluffer takes the penalty, otherwise
// the caller takes it with two extra cards.
func (g *MauGame) CallBluff(userID string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.turnOf(userID)
	if err != nil {
		return err
	}
	if g.State != types.StateNext {
		return wrongState(g.State)
	}
	top, _ := g.Deck.Top()
	if top.Type != types.CardTakeFour || g.TakeCounter == 0 || g.bluffPlayer == nil {
		return ErrNoBluff
	}

	g.fireEvent(EventPlayerBluff, p.UserID, map[string]interface{}{
		"target":   g.bluffPlayer.UserID,
		"bluffing": g.bluffing,
	})
	if g.bluffing {
		g.takeCards(g.bluffPlayer)
	} else {
		g.TakeCounter += 2
		g.takeCards(p)
	}
	g.bluffPlayer = nil
	g.nextTurn()
	return nil
}

// ChooseColor colors the wild card on top and ends the turn.
func (g *MauGame) ChooseColor(userID string, color types.CardColor) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if _, err := g.turnOf(userID); err != nil {
		return err
	}
	if g.State != types.StateChooseColor {
		return wrongState(g.State)
	}
	if color < types.ColorRed || color > types.ColorBlue {
		return fmt.Errorf("%w: got %d", ErrInvalidColor, color)
	}
	g.Deck.SetTopColor(color)
	g.fireEvent(EventSelectColor, userID, map[string]interface{}{"color": int(color)})
	g.endTurn()
	return nil
}

// ChoosePlayer swaps hands with another seat and ends the turn.
func (g *MauGame) ChoosePlayer(userID, targetID string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.turnOf(userID)
	if err != nil {
		return err
	}
	if g.State != types.StateTwistHand {
		return wrongState(g.State)
	}
	target := g.playerByID(targetID)
	if target == nil || target == p {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, targetID)
	}
	p.Hand, target.Hand = target.Hand, p.Hand
	g.fireEvent(EventSelectPlayer, userID, map[string]interface{}{"target": targetID})
	g.endTurn()
	return nil
}

// NextTurn passes the turn after drawing, or after a side effect let the seat continue.
func (g *MauGame) NextTurn(userID string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if _, err := g.turnOf(userID); err != nil {
		return err
	}
	switch g.State {
	case types.StateContinue:
	case types.StateNext:
		if !g.TakeFlag || g.TakeCounter > 0 {
			return ErrMustTake
		}
	default:
		return wrongState(g.State)
	}
	g.endTurn()
	return nil
}

// Skip forces the current seat to draw one card and passes the turn. The owner may skip
// at any time; other seats only once the turn has lasted longer than timeout.
func (g *MauGame) Skip(actorID string, timeout time.Duration) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.GameOver {
		return ErrGameOver
	}
	if !g.Started {
		return ErrNotStarted
	}
	if actorID != g.OwnerID {
		if g.playerByID(actorID) == nil {
			return ErrNotPlayer
		}
		if g.now().Sub(g.TurnStart) < timeout {
			return ErrTurnNotExpired
		}
	}

	p := g.current()
	if g.State == types.StateChooseColor {
		g.Deck.SetTopColor(types.CardColor(g.rnd.Intn(4)))
	}
	g.fireEvent(EventSkipTurn, actorID, map[string]interface{}{"player": p.UserID})
	g.takeCards(p)
	g.nextTurn()
	return nil
}
