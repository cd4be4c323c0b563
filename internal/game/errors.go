package game

import "errors"

// Errors returned by game actions. Illegal actions are always reported, never ignored.
var (
	ErrNotStarted       = errors.New("game is not started")
	ErrAlreadyStarted   = errors.New("game is already started")
	ErrGameOver         = errors.New("game is over")
	ErrNotEnoughPlayers = errors.New("not enough players to start the game")
	ErrNotPlayer        = errors.New("you are not a game player")
	ErrAlreadyJoined    = errors.New("player already joined the game")
	ErrNotYourTurn      = errors.New("it is not your turn")
	ErrWrongState       = errors.New("action is not allowed right now")
	ErrCardNotInHand    = errors.New("card is not in your hand")
	ErrCannotCover      = errors.New("card cannot cover the top card")
	ErrAlreadyTook      = errors.New("you already took a card this turn")
	ErrMustTake         = errors.New("take a card before passing the turn")
	ErrNoBluff          = errors.New("there is no wild draw four to call a bluff on")
	ErrInvalidColor     = errors.New("color must be one of red, yellow, green or blue")
	ErrInvalidTarget    = errors.New("invalid target player")
	ErrInvalidCard      = errors.New("invalid card")
	ErrTurnNotExpired   = errors.New("the current turn has not timed out yet")
	ErrDeckEmpty        = errors.New("deck is empty")
)
