// internal/game/game.go
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/pkg/types"
)

// GameEventType names an action that happened in a game.
type GameEventType string

const (
	EventGameStart     GameEventType = "game_start"
	EventGameEnd       GameEventType = "game_end"
	EventPlayerJoin    GameEventType = "player_join"
	EventPlayerLeave   GameEventType = "player_leave"
	EventPlayerWin     GameEventType = "player_win"
	EventPlayerLose    GameEventType = "player_lose"
	EventPlayerPush    GameEventType = "player_push_card"
	EventPlayerTake    GameEventType = "player_take"
	EventPlayerBluff   GameEventType = "player_bluff"
	EventPlayerShotgun GameEventType = "player_shotgun"
	EventSelectColor   GameEventType = "select_color"
	EventSelectPlayer  GameEventType = "select_player"
	EventRotateCards   GameEventType = "rotate_cards"
	EventStateChange   GameEventType = "state_change"
	EventNextTurn      GameEventType = "next_turn"
	EventSkipTurn      GameEventType = "skip_turn"
)

// GameEvent describes a single action. Index orders the events of one game.
type GameEvent struct {
	GameID    uuid.UUID              `json:"game_id"`
	RoomID    uuid.UUID              `json:"room_id"`
	Index     int                    `json:"index"`
	Type      GameEventType          `json:"type"`
	Actor     string                 `json:"actor,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// MauGame holds the entire state of one running session in memory.
type MauGame struct {
	ID      uuid.UUID
	RoomID  uuid.UUID
	OwnerID string
	Rules   RuleSet

	Players []*Player
	Winners []*Player
	Losers  []*Player
	Deck    *Deck

	// Turn logic
	CurrentPlayerIndex int
	Reverse            bool
	TakeFlag           bool
	TakeCounter        int
	State              types.GameState
	Shotgun            Shotgun

	bluffPlayer *Player
	bluffing    bool

	Started   bool
	GameOver  bool
	StartTime time.Time
	TurnStart time.Time

	actionIndex int
	rnd         *rand.Rand
	now         func() time.Time
	Mu          sync.Mutex

	// BroadcastFn receives every game event. If nil, events are dropped.
	BroadcastFn func(ev GameEvent)
}

// NewMauGame builds an unstarted game for a room. A nil rnd seeds one from the clock.
func NewMauGame(roomID uuid.UUID, ownerID string, rules RuleSet, rnd *rand.Rand) *MauGame {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if rules == nil {
		rules = RuleSet{}
	}
	id, _ := uuid.NewRandom()
	return &MauGame{
		ID:      id,
		RoomID:  roomID,
		OwnerID: ownerID,
		Rules:   rules,
		Deck:    NewDeck(rnd),
		State:   types.StateNext,
		rnd:     rnd,
		now:     time.Now,
	}
}

// SetClock overrides the time source. Used by tests.
func (g *MauGame) SetClock(now func() time.Time) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.now = now
}

// AddPlayer seats a user. Players joining a running game are dealt a first hand.
func (g *MauGame) AddPlayer(userID, name string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.GameOver {
		return ErrGameOver
	}
	if g.playerByID(userID) != nil {
		return ErrAlreadyJoined
	}
	p := &Player{UserID: userID, Name: name}
	if g.Started {
		g.takeFirstHand(p)
	}
	g.Players = append(g.Players, p)
	g.fireEvent(EventPlayerJoin, userID, nil)
	return nil
}

// Start shuffles the seats, deals the first hands and reveals the first card.
func (g *MauGame) Start() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.GameOver {
		return ErrGameOver
	}
	if g.Started {
		return ErrAlreadyStarted
	}
	if len(g.Players) < 2 {
		return fmt.Errorf("%w: need at least 2, have %d", ErrNotEnoughPlayers, len(g.Players))
	}

	g.Winners = nil
	g.Losers = nil
	g.rnd.Shuffle(len(g.Players), func(i, j int) {
		g.Players[i], g.Players[j] = g.Players[j], g.Players[i]
	})
	if g.Rules.Has(RuleWild) {
		g.Deck.Fill(WildPreset)
	} else {
		g.Deck.Fill(ClassicPreset)
	}
	if g.Rules.Has(RuleSingleShotgun) {
		g.Shotgun = NewShotgun(g.rnd)
	}
	for _, p := range g.Players {
		g.takeFirstHand(p)
	}

	g.Started = true
	g.StartTime = g.now()
	g.TurnStart = g.StartTime
	g.CurrentPlayerIndex = 0
	g.State = types.StateNext
	g.fireEvent(EventGameStart, g.OwnerID, map[string]interface{}{"players": len(g.Players)})

	if err := g.takeFirstCard(); err != nil {
		return err
	}
	return nil
}

// takeFirstHand deals the opening hand of a seat and arms its shotgun.
// Assumes lock is held.
func (g *MauGame) takeFirstHand(p *Player) {
	p.Shotgun = NewShotgun(g.rnd)
	if g.Rules.Has(RuleDebugCards) {
		p.Hand = debugHand()
		return
	}
	p.Hand = g.Deck.Take(firstHandSize)
}

// takeFirstCard puts the first non-black card on the table and applies its effect.
// Assumes lock is held.
func (g *MauGame) takeFirstCard() error {
	for {
		c, err := g.Deck.TakeOne()
		if err != nil {
			return err
		}
		if c.Color == types.ColorBlack {
			g.Deck.Put(c)
			continue
		}
		g.Deck.PutOnTop(c)
		g.applyCard(c, c)
		return nil
	}
}

// End finishes the game. Seats still playing are recorded as losers.
func (g *MauGame) End() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.end()
}

// end assumes lock is held.
func (g *MauGame) end() {
	if g.GameOver {
		return
	}
	g.Losers = append(g.Losers, g.Players...)
	g.Players = nil
	g.CurrentPlayerIndex = 0
	g.Started = false
	g.GameOver = true
	g.fireEvent(EventGameEnd, "", map[string]interface{}{
		"winners": len(g.Winners),
		"losers":  len(g.Losers),
	})
}

// RemovePlayer takes a seat out of the game, as used by leave and kick.
func (g *MauGame) RemovePlayer(userID string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p := g.playerByID(userID)
	if p == nil {
		return ErrNotPlayer
	}
	g.fireEvent(EventPlayerLeave, userID, nil)
	won := len(p.Hand) == 0
	for _, c := range p.Hand {
		g.Deck.Put(c)
	}
	p.Hand = nil
	g.dropPlayer(p, won)
	return nil
}

// SetOwner hands the owner privileges of a running game to another user.
func (g *MauGame) SetOwner(userID string) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.OwnerID = userID
}

// IsOver reports whether the game has finished.
func (g *MauGame) IsOver() bool {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.GameOver
}

// HasPlayer reports whether the user holds a seat.
func (g *MauGame) HasPlayer(userID string) bool {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.playerByID(userID) != nil
}

// Result is the outcome of a finished game.
type Result struct {
	GameID    uuid.UUID
	RoomID    uuid.UUID
	OwnerID   string
	StartTime time.Time
	Winners   []string
	Losers    []string
	// Played maps every participant to the number of cards they played.
	Played map[string]int
}

// Result summarises the game for persistence.
func (g *MauGame) Result() Result {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	res := Result{
		GameID:    g.ID,
		RoomID:    g.RoomID,
		OwnerID:   g.OwnerID,
		StartTime: g.StartTime,
		Played:    make(map[string]int),
	}
	for _, p := range g.Winners {
		res.Winners = append(res.Winners, p.UserID)
		res.Played[p.UserID] = p.Played
	}
	for _, p := range g.Losers {
		res.Losers = append(res.Losers, p.UserID)
		res.Played[p.UserID] = p.Played
	}
	for _, p := range g.Players {
		res.Played[p.UserID] = p.Played
	}
	return res
}

// dropPlayer moves a seat to winners or losers. The game ends once at most one seat
// is left. Assumes lock is held.
func (g *MauGame) dropPlayer(p *Player, won bool) {
	idx := g.indexOf(p)
	if idx < 0 {
		return
	}
	if won {
		g.Winners = append(g.Winners, p)
		g.fireEvent(EventPlayerWin, p.UserID, nil)
	} else {
		g.Losers = append(g.Losers, p)
		g.fireEvent(EventPlayerLose, p.UserID, nil)
	}
	if g.bluffPlayer == p {
		g.bluffPlayer = nil
	}

	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)
	if len(g.Players) <= 1 {
		g.end()
		return
	}

	switch {
	case idx < g.CurrentPlayerIndex:
		g.CurrentPlayerIndex--
	case idx == g.CurrentPlayerIndex:
		// The seat after the removed one now holds the turn.
		if g.Reverse {
			g.CurrentPlayerIndex--
		}
		// The wild on top still needs a color.
		if g.State == types.StateChooseColor {
			g.Deck.SetTopColor(types.CardColor(g.rnd.Intn(4)))
		}
		g.State = types.StateNext
		g.TakeFlag = false
		g.TurnStart = g.now()
	}
	g.CurrentPlayerIndex = mod(g.CurrentPlayerIndex, len(g.Players))
}

// collectWinners removes every seat that ran out of cards. Assumes lock is held.
func (g *MauGame) collectWinners() {
	for _, p := range append([]*Player{}, g.Players...) {
		if g.GameOver {
			return
		}
		if len(p.Hand) == 0 {
			g.dropPlayer(p, true)
		}
	}
}

// fireEvent stamps an event and hands it to BroadcastFn. Assumes lock is held.
func (g *MauGame) fireEvent(t GameEventType, actor string, payload map[string]interface{}) {
	g.actionIndex++
	if g.BroadcastFn == nil {
		return
	}
	g.BroadcastFn(GameEvent{
		GameID:    g.ID,
		RoomID:    g.RoomID,
		Index:     g.actionIndex,
		Type:      t,
		Actor:     actor,
		Payload:   payload,
		Timestamp: g.now().UnixMilli(),
	})
}
