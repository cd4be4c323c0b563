// internal/handlers/game_server.go
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/internal/auth"
	"github.com/jason-s-yu/mau/internal/cache"
	"github.com/jason-s-yu/mau/internal/database"
	"github.com/jason-s-yu/mau/internal/game"
	"github.com/jason-s-yu/mau/internal/models"
	"github.com/jason-s-yu/mau/pkg/types"
	"github.com/sirupsen/logrus"
)

const eventBuffer = 256

// GameServer holds the dependencies shared by every handler and the running games.
type GameServer struct {
	Store     database.Store
	Rules     cache.RuleStore
	Journal   cache.Journal
	Tokens    *auth.TokenManager
	GameStore *game.GameStore
	Hub       *Hub
	Logger    logrus.FieldLogger

	// TurnTimeout is how long a turn lasts before any seat may skip it.
	TurnTimeout time.Duration
	HashParams  *auth.HashParams

	events chan game.GameEvent
	done   chan struct{}
}

func NewGameServer(store database.Store, rules cache.RuleStore, journal cache.Journal, tokens *auth.TokenManager, logger logrus.FieldLogger) *GameServer {
	gs := &GameServer{
		Store:       store,
		Rules:       rules,
		Journal:     journal,
		Tokens:      tokens,
		GameStore:   game.NewGameStore(),
		Hub:         NewHub(),
		Logger:      logger,
		TurnTimeout: 30 * time.Second,
		HashParams:  auth.Params,
		events:      make(chan game.GameEvent, eventBuffer),
		done:        make(chan struct{}),
	}
	go gs.pumpEvents()
	return gs
}

// Close stops the journal pump and disconnects every game stream.
func (gs *GameServer) Close() {
	close(gs.done)
	gs.Hub.CloseAll()
}

// pumpEvents forwards game events to the journal in the order they were fired.
func (gs *GameServer) pumpEvents() {
	for {
		select {
		case <-gs.done:
			return
		case ev := <-gs.events:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := gs.Journal.Publish(ctx, ev); err != nil {
				gs.Logger.WithError(err).WithField("game", ev.GameID).Warn("failed to journal game event")
			}
			cancel()
		}
	}
}

// broadcast is installed as BroadcastFn. It runs under the game lock and must not block.
func (gs *GameServer) broadcast(ev game.GameEvent) {
	select {
	case gs.events <- ev:
	default:
		gs.Logger.WithField("game", ev.GameID).Warn("journal buffer full, dropping event")
	}
}

// roomRules loads the enabled rule set of a room. Keys no longer in the catalog are skipped.
func (gs *GameServer) roomRules(ctx context.Context, roomID uuid.UUID) (game.RuleSet, error) {
	keys, err := gs.Rules.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	rules := game.RuleSet{}
	for _, k := range keys {
		if game.IsRule(k) {
			rules[k] = true
		}
	}
	return rules, nil
}

// startGame seats the members of an idle room and deals the first hands.
func (gs *GameServer) startGame(ctx context.Context, room *models.Room) (*game.MauGame, error) {
	if room.Status != types.RoomIdle {
		return nil, errConflict(fmt.Sprintf("room is %s, not idle", room.Status))
	}
	if len(room.Players) < room.MinPlayers {
		return nil, errConflict(fmt.Sprintf("not enough players: need %d, have %d", room.MinPlayers, len(room.Players)))
	}
	rules, err := gs.roomRules(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	g := game.NewMauGame(room.ID, room.Owner.Username, rules, nil)
	g.BroadcastFn = gs.broadcast
	for _, p := range room.Players {
		if err := g.AddPlayer(p.Username, p.Name); err != nil {
			return nil, err
		}
	}
	if !gs.GameStore.AddGame(g) {
		return nil, errConflict("a game is already running in this room")
	}
	if err := g.Start(); err != nil {
		gs.GameStore.DeleteGame(g)
		return nil, err
	}

	room.Status = types.RoomGame
	room.AddStatus("game started")
	if err := gs.Store.UpdateRoom(ctx, room); err != nil {
		g.End()
		gs.GameStore.DeleteGame(g)
		return nil, err
	}
	gs.Logger.WithFields(logrus.Fields{"room": room.ID, "game": g.ID, "players": len(room.Players)}).Info("game started")
	return g, nil
}

// settle persists a finished game once. Subsequent calls for the same game do nothing.
func (gs *GameServer) settle(ctx context.Context, room *models.Room, g *game.MauGame) error {
	if !gs.GameStore.DeleteGame(g) {
		return nil
	}
	res := g.Result()

	record := &models.Game{
		ID:         res.GameID,
		CreateTime: res.StartTime,
		EndTime:    time.Now().UTC(),
		RoomID:     res.RoomID,
		Cards:      make(map[uuid.UUID]int),
	}
	ids := make(map[string]uuid.UUID)
	resolve := func(username string) (uuid.UUID, bool) {
		if id, ok := ids[username]; ok {
			return id, true
		}
		u, err := gs.Store.GetUserByUsername(ctx, username)
		if err != nil {
			gs.Logger.WithError(err).WithField("user", username).Warn("participant not found")
			return uuid.Nil, false
		}
		ids[username] = u.ID
		return u.ID, true
	}
	if id, ok := resolve(res.OwnerID); ok {
		record.OwnerID = id
	}
	for _, name := range res.Winners {
		if id, ok := resolve(name); ok {
			record.Winners = append(record.Winners, id)
		}
	}
	for _, name := range res.Losers {
		if id, ok := resolve(name); ok {
			record.Losers = append(record.Losers, id)
		}
	}
	for name, n := range res.Played {
		if id, ok := resolve(name); ok {
			record.Cards[id] = n
		}
	}

	saveErr := gs.Store.SaveGame(ctx, record)
	if saveErr != nil {
		gs.Logger.WithError(saveErr).WithField("game", g.ID).Error("failed to save game")
	}

	room.Status = types.RoomEnded
	room.AddStatus("game over")
	if err := gs.Store.UpdateRoom(ctx, room); err != nil {
		return err
	}

	gs.Hub.Notify(room.ID, g)
	gs.Hub.CloseRoom(room.ID)
	gs.Logger.WithFields(logrus.Fields{
		"room":    room.ID,
		"game":    g.ID,
		"winners": len(record.Winners),
		"losers":  len(record.Losers),
	}).Info("game finished")
	return saveErr
}

// afterAction settles the game when the action ended it and pushes the new state.
func (gs *GameServer) afterAction(ctx context.Context, room *models.Room, g *game.MauGame) error {
	if g.IsOver() {
		return gs.settle(ctx, room, g)
	}
	gs.Hub.Notify(room.ID, g)
	return nil
}
