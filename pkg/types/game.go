package types

import "time"

// CardColor is one of the five card colors.
type CardColor int

const (
	ColorRed CardColor = iota
	ColorYellow
	ColorGreen
	ColorBlue
	ColorBlack
)

// CardType is the kind of a card.
type CardType int

const (
	CardNumber CardType = iota
	CardTurn
	CardReverse
	CardTake
	CardChooseColor
	CardTakeFour
)

// Card is a single playable card.
type Card struct {
	Color    CardColor `json:"color"`
	CardType CardType  `json:"card_type"`
	Value    int       `json:"value"`
	Cost     int       `json:"cost"`
}

// Deck summarises the shared draw pile. The shuffled order is never exposed.
type Deck struct {
	Top   *Card `json:"top"`
	Cards int   `json:"cards"`
	Used  int   `json:"used"`
}

// GameState is the resolution stage of a session.
type GameState int

const (
	StateNext GameState = iota
	StateChooseColor
	StateTwistHand
	StateShotgun
	StateContinue
)

func (s GameState) String() string {
	switch s {
	case StateNext:
		return "next"
	case StateChooseColor:
		return "choose_color"
	case StateTwistHand:
		return "twist_hand"
	case StateShotgun:
		return "shotgun"
	case StateContinue:
		return "continue"
	}
	return "unknown"
}

// SortedHand splits a hand into cards that can and cannot be played right now.
type SortedHand struct {
	Cover   []Card `json:"cover"`
	Uncover []Card `json:"uncover"`
}

// Player is the requesting user's own seat.
type Player struct {
	UserID         string     `json:"user_id"`
	Name           string     `json:"name"`
	Hand           SortedHand `json:"hand"`
	ShotgunCurrent int        `json:"shotgun_current"`
}

// OtherPlayer is the public view of a seat. Hand is a card count.
type OtherPlayer struct {
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	Hand           int    `json:"hand"`
	ShotgunCurrent int    `json:"shotgun_current"`
}

// ActiveGame is the server-authoritative snapshot of a running session.
type ActiveGame struct {
	RoomID         string        `json:"room_id"`
	Rules          []RoomRule    `json:"rules"`
	OwnerID        string        `json:"owner_id"`
	GameStarted    time.Time     `json:"game_started"`
	TurnStarted    time.Time     `json:"turn_started"`
	Players        []OtherPlayer `json:"players"`
	Winners        []OtherPlayer `json:"winners"`
	Losers         []OtherPlayer `json:"losers"`
	CurrentPlayer  int           `json:"current_player"`
	Deck           Deck          `json:"deck"`
	Reverse        bool          `json:"reverse"`
	TakeFlag       bool          `json:"take_flag"`
	TakeCounter    int           `json:"take_counter"`
	ShotgunCurrent int           `json:"shotgun_current"`
	State          GameState     `json:"state"`
}

// GameContext is returned by every game action.
type GameContext struct {
	Game   *ActiveGame `json:"game"`
	Player *Player     `json:"player"`
}
