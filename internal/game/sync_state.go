// internal/game/sync_state.go
package game

import (
	"github.com/jason-s-yu/mau/pkg/types"
)

// otherPlayers converts seats to their public view, hiding hand contents.
func otherPlayers(players []*Player) []types.OtherPlayer {
	res := make([]types.OtherPlayer, 0, len(players))
	for _, p := range players {
		res = append(res, types.OtherPlayer{
			UserID:         p.UserID,
			Name:           p.Name,
			Hand:           len(p.Hand),
			ShotgunCurrent: p.Shotgun.Cur,
		})
	}
	return res
}

// sortHand splits a seat's hand into playable and unplayable cards. Assumes lock is held.
func (g *MauGame) sortHand(p *Player) types.SortedHand {
	hand := types.SortedHand{Cover: []types.Card{}, Uncover: []types.Card{}}
	for _, c := range p.Hand {
		if g.Started && g.canPlay(p, c) {
			hand.Cover = append(hand.Cover, c.Data())
		} else {
			hand.Uncover = append(hand.Uncover, c.Data())
		}
	}
	return hand
}

// GetCurrentGameState builds the snapshot of the game as seen by forUser. The Player
// part is nil when the user holds no seat.
func (g *MauGame) GetCurrentGameState(forUser string) types.GameContext {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	ag := &types.ActiveGame{
		RoomID:         g.RoomID.String(),
		Rules:          g.Rules.Data(),
		OwnerID:        g.OwnerID,
		GameStarted:    g.StartTime,
		TurnStarted:    g.TurnStart,
		Players:        otherPlayers(g.Players),
		Winners:        otherPlayers(g.Winners),
		Losers:         otherPlayers(g.Losers),
		CurrentPlayer:  g.CurrentPlayerIndex,
		Reverse:        g.Reverse,
		TakeFlag:       g.TakeFlag,
		TakeCounter:    g.TakeCounter,
		ShotgunCurrent: g.Shotgun.Cur,
		State:          g.State,
		Deck: types.Deck{
			Cards: g.Deck.Remaining(),
			Used:  g.Deck.Used(),
		},
	}
	if top, ok := g.Deck.Top(); ok {
		data := top.Data()
		ag.Deck.Top = &data
	}

	ctx := types.GameContext{Game: ag}
	if p := g.playerByID(forUser); p != nil {
		ctx.Player = &types.Player{
			UserID:         p.UserID,
			Name:           p.Name,
			Hand:           g.sortHand(p),
			ShotgunCurrent: p.Shotgun.Cur,
		}
	}
	return ctx
}
