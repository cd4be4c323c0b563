// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/jason-s-yu/mau/pkg/types"
)

var allColors = []types.CardColor{types.ColorRed, types.ColorYellow, types.ColorGreen, types.ColorBlue}

// cardGroup describes count copies of a card for each of the listed colors.
type cardGroup struct {
	cardType types.CardType
	value    int
	colors   []types.CardColor
	count    int
}

// DeckPreset is a named recipe for building a deck.
type DeckPreset struct {
	Name   string
	groups []cardGroup
}

// ClassicPreset is the standard deck.
var ClassicPreset = DeckPreset{
	Name: "classic",
	groups: []cardGroup{
		{types.CardNumber, 0, allColors, 1},
		{types.CardNumber, 1, allColors, 2},
		{types.CardNumber, 2, allColors, 2},
		{types.CardNumber, 3, allColors, 2},
		{types.CardNumber, 4, allColors, 2},
		{types.CardNumber, 5, allColors, 2},
		{types.CardNumber, 6, allColors, 2},
		{types.CardNumber, 7, allColors, 2},
		{types.CardNumber, 8, allColors, 2},
		{types.CardNumber, 9, allColors, 2},
		{types.CardReverse, 0, allColors, 2},
		{types.CardTurn, 1, allColors, 2},
		{types.CardTake, 2, allColors, 2},
		{types.CardTakeFour, 4, []types.CardColor{types.ColorBlack}, 4},
		{types.CardChooseColor, 0, []types.CardColor{types.ColorBlack}, 4},
	},
}

// WildPreset has fewer numbers and more action cards.
var WildPreset = DeckPreset{
	Name: "wild",
	groups: []cardGroup{
		{types.CardNumber, 0, allColors, 4},
		{types.CardNumber, 1, allColors, 4},
		{types.CardNumber, 2, allColors, 4},
		{types.CardNumber, 3, allColors, 4},
		{types.CardNumber, 4, allColors, 4},
		{types.CardNumber, 5, allColors, 4},
		{types.CardReverse, 0, allColors, 4},
		{types.CardTurn, 1, allColors, 4},
		{types.CardTake, 2, allColors, 4},
		{types.CardTakeFour, 4, []types.CardColor{types.ColorBlack}, 6},
		{types.CardChooseColor, 0, []types.CardColor{types.ColorBlack}, 6},
	},
}

// Cards expands the preset into individual cards.
func (p DeckPreset) Cards() []Card {
	var cards []Card
	for _, g := range p.groups {
		for i := 0; i < g.count; i++ {
			for _, color := range g.colors {
				cards = append(cards, Card{Color: color, Type: g.cardType, Value: g.value})
			}
		}
	}
	return cards
}

// Deck holds the draw pile, the used pile and the visible top card.
// The draw pile is consumed from the end of the slice.
type Deck struct {
	cards []Card
	used  []Card
	top   *Card
	rnd   *rand.Rand
}

// NewDeck returns an empty deck shuffled with rnd.
func NewDeck(rnd *rand.Rand) *Deck {
	return &Deck{rnd: rnd}
}

// Fill replaces the deck contents with a freshly shuffled preset.
func (d *Deck) Fill(p DeckPreset) {
	d.cards = p.Cards()
	d.used = d.used[:0]
	d.top = nil
	d.Shuffle()
}

// Shuffle shuffles the draw pile.
func (d *Deck) Shuffle() {
	d.rnd.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Remaining is the size of the draw pile.
func (d *Deck) Remaining() int { return len(d.cards) }

// Used is the size of the discard pile.
func (d *Deck) Used() int { return len(d.used) }

// Top returns the visible top card.
func (d *Deck) Top() (Card, bool) {
	if d.top == nil {
		return Card{}, false
	}
	return *d.top, true
}

// SetTopColor recolors the top card, used after a wild card was played.
func (d *Deck) SetTopColor(color types.CardColor) {
	if d.top != nil {
		d.top.Color = color
	}
}

// reshuffle moves the used pile back under the draw pile.
func (d *Deck) reshuffle() {
	if len(d.used) == 0 {
		return
	}
	d.rnd.Shuffle(len(d.used), func(i, j int) {
		d.used[i], d.used[j] = d.used[j], d.used[i]
	})
	d.cards = append(append([]Card{}, d.used...), d.cards...)
	d.used = d.used[:0]
}

// Take draws up to n cards. Fewer are returned when both piles run out.
func (d *Deck) Take(n int) []Card {
	if len(d.cards) < n {
		d.reshuffle()
	}
	if n > len(d.cards) {
		n = len(d.cards)
	}
	split := len(d.cards) - n
	res := make([]Card, n)
	for i := 0; i < n; i++ {
		res[i] = d.cards[len(d.cards)-1-i]
	}
	d.cards = d.cards[:split]
	return res
}

// TakeOne draws a single card.
func (d *Deck) TakeOne() (Card, error) {
	cards := d.Take(1)
	if len(cards) == 0 {
		return Card{}, ErrDeckEmpty
	}
	return cards[0], nil
}

// Put returns a card to the used pile. Wild cards lose their chosen color.
func (d *Deck) Put(c Card) {
	if c.IsWild() {
		c.Color = types.ColorBlack
	}
	d.used = append(d.used, c)
}

// PutOnTop makes c the visible card, moving the previous top to the used pile.
func (d *Deck) PutOnTop(c Card) {
	if d.top != nil {
		d.Put(*d.top)
	}
	d.top = &c
}

// CountUntilCover counts how many cards must be drawn until one can cover the top,
// that card included. When nothing in the piles covers, every card is counted.
func (d *Deck) CountUntilCover() int {
	if d.top == nil {
		return 1
	}
	for i := len(d.cards) - 1; i >= 0; i-- {
		if d.cards[i].CanCover(*d.top) {
			return len(d.cards) - i
		}
	}
	return len(d.cards) + len(d.used)
}
