// internal/game/player.go
package game

import (
	"math/rand"

	"github.com/jason-s-yu/mau/pkg/types"
)

// firstHandSize is the number of cards dealt to each seat on start.
const firstHandSize = 7

// Shotgun is an eight-chamber revolver with a single loaded chamber.
type Shotgun struct {
	Cur  int
	lose int
}

// NewShotgun loads a chamber at random.
func NewShotgun(rnd *rand.Rand) Shotgun {
	return Shotgun{lose: rnd.Intn(8) + 1}
}

// Shot pulls the trigger and reports whether the loaded chamber fired.
func (s *Shotgun) Shot() bool {
	s.Cur++
	return s.Cur >= s.lose
}

// Player is a seat in a running game.
type Player struct {
	UserID  string
	Name    string
	Hand    []Card
	Shotgun Shotgun
	// Played counts the cards this seat put on the table.
	Played int
}

// debugHand is dealt instead of a random hand under the debug_cards rule.
func debugHand() []Card {
	hand := []Card{
		{Color: types.ColorBlack, Type: types.CardTakeFour, Value: 4},
		{Color: types.ColorBlack, Type: types.CardTakeFour, Value: 4},
	}
	for _, color := range allColors {
		hand = append(hand,
			Card{Color: color, Type: types.CardTake, Value: 2},
			Card{Color: color, Type: types.CardTurn, Value: 1},
			Card{Color: color, Type: types.CardReverse},
			Card{Color: color, Type: types.CardNumber, Value: 7},
			Card{Color: color, Type: types.CardNumber, Value: 2},
			Card{Color: color, Type: types.CardNumber, Value: 0},
		)
	}
	return hand
}

// findCard returns the index of a matching card in the hand, or -1.
func (p *Player) findCard(c Card) int {
	for i, h := range p.Hand {
		if h.Same(c) {
			return i
		}
	}
	return -1
}

// removeCard drops the card at idx from the hand.
func (p *Player) removeCard(idx int) Card {
	c := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	return c
}

// hasColor reports whether the seat holds a non-wild card of the given color.
func (p *Player) hasColor(color types.CardColor) bool {
	for _, c := range p.Hand {
		if !c.IsWild() && c.Color == color {
			return true
		}
	}
	return false
}

func cardsData(cards []Card) []types.Card {
	res := make([]types.Card, 0, len(cards))
	for _, c := range cards {
		res = append(res, c.Data())
	}
	return res
}
