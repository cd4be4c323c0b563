// internal/game/card.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/mau/pkg/types"
)

// twistHandValue is the number card that triggers a hand swap under the twist_hand rule.
const twistHandValue = 2

// Card is a single Mau card. The cost is derived from the type and value.
type Card struct {
	Color types.CardColor
	Type  types.CardType
	Value int
}

// Cost returns the score value of a card.
func (c Card) Cost() int {
	switch c.Type {
	case types.CardNumber:
		return c.Value
	case types.CardTurn, types.CardReverse, types.CardTake:
		return 20
	default:
		return 50
	}
}

// IsWild reports whether the card picks its own color when played.
func (c Card) IsWild() bool {
	return c.Type == types.CardChooseColor || c.Type == types.CardTakeFour
}

// CanCover reports whether c may be played on top of the given card.
// A wild card always covers. Otherwise colors must match, or type and value both.
func (c Card) CanCover(top Card) bool {
	if c.IsWild() {
		return true
	}
	if c.Color == top.Color {
		return true
	}
	return c.Type == top.Type && c.Value == top.Value
}

// Same reports whether two cards are the same card. Wild cards match regardless of the
// color they currently carry.
func (c Card) Same(other Card) bool {
	if c.Type != other.Type || c.Value != other.Value {
		return false
	}
	return c.IsWild() || c.Color == other.Color
}

// Data converts the card to its wire shape.
func (c Card) Data() types.Card {
	return types.Card{Color: c.Color, CardType: c.Type, Value: c.Value, Cost: c.Cost()}
}

func (c Card) String() string {
	switch c.Type {
	case types.CardNumber:
		return fmt.Sprintf("%s %d", colorName(c.Color), c.Value)
	case types.CardTurn:
		return fmt.Sprintf("%s skip %d", colorName(c.Color), c.Value)
	case types.CardReverse:
		return fmt.Sprintf("%s reverse", colorName(c.Color))
	case types.CardTake:
		return fmt.Sprintf("%s +%d", colorName(c.Color), c.Value)
	case types.CardChooseColor:
		return "choose color"
	case types.CardTakeFour:
		return fmt.Sprintf("+%d choose color", c.Value)
	}
	return "unknown card"
}

// CardFromData validates a wire card and converts it to a Card.
func CardFromData(d types.Card) (Card, error) {
	if d.Color < types.ColorRed || d.Color > types.ColorBlack {
		return Card{}, fmt.Errorf("%w: color %d", ErrInvalidCard, d.Color)
	}
	c := Card{Color: d.Color, Type: d.CardType, Value: d.Value}
	switch d.CardType {
	case types.CardNumber:
		if d.Value < 0 || d.Value > 9 {
			return Card{}, fmt.Errorf("%w: number value %d", ErrInvalidCard, d.Value)
		}
	case types.CardTurn, types.CardReverse, types.CardTake:
	case types.CardChooseColor:
		c.Value = 0
	case types.CardTakeFour:
		if c.Value == 0 {
			c.Value = 4
		}
	default:
		return Card{}, fmt.Errorf("%w: card type %d", ErrInvalidCard, d.CardType)
	}
	if !c.IsWild() && c.Color == types.ColorBlack {
		return Card{}, fmt.Errorf("%w: only wild cards are black", ErrInvalidCard)
	}
	return c, nil
}

func colorName(c types.CardColor) string {
	switch c {
	case types.ColorRed:
		return "red"
	case types.ColorYellow:
		return "yellow"
	case types.ColorGreen:
		return "green"
	case types.ColorBlue:
		return "blue"
	}
	return "black"
}
