// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/internal/database"
	"github.com/jason-s-yu/mau/internal/game"
	"github.com/jason-s-yu/mau/internal/middleware"
	"github.com/jason-s-yu/mau/pkg/types"
)

const (
	subscriberBuffer = 8
	writeTimeout     = 5 * time.Second
)

type subscriber struct {
	username string
	ch       chan types.GameContext
}

// Hub fans game snapshots out to the WebSocket streams of a room.
type Hub struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uuid.UUID]map[*subscriber]struct{})}
}

func (h *Hub) subscribe(roomID uuid.UUID, username string) *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := &subscriber{username: username, ch: make(chan types.GameContext, subscriberBuffer)}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*subscriber]struct{})
	}
	h.rooms[roomID][s] = struct{}{}
	return s
}

func (h *Hub) unsubscribe(roomID uuid.UUID, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := subs[s]; ok {
		delete(subs, s)
		close(s.ch)
	}
	if len(subs) == 0 {
		delete(h.rooms, roomID)
	}
}

// Notify sends every subscriber of the room its own view of g. Slow streams skip
// snapshots instead of blocking the caller.
func (h *Hub) Notify(roomID uuid.UUID, g *game.MauGame) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		snapshot := g.GetCurrentGameState(s.username)
		h.mu.Lock()
		if _, ok := h.rooms[roomID][s]; ok {
			select {
			case s.ch <- snapshot:
			default:
			}
		}
		h.mu.Unlock()
	}
}

// CloseRoom ends every stream of the room.
func (h *Hub) CloseRoom(roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.rooms[roomID] {
		close(s.ch)
	}
	delete(h.rooms, roomID)
}

func (h *Hub) CloseAll() {
	h.mu.Lock()
	ids := make([]uuid.UUID, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		h.CloseRoom(id)
	}
}

// Subscribers returns the number of open streams of a room.
func (h *Hub) Subscribers(roomID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

// wsToken reads the token from the Authorization header or, for browsers, the token query.
func wsToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// GameWSHandler streams GameContext snapshots of the caller's active room. The first
// message is the current state, the stream closes normally when the game ends.
func GameWSHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := gs.authenticate(r.Context(), wsToken(r))
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		room, err := gs.Store.ActiveRoomForUser(r.Context(), user.ID)
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, gs.Logger, r, errNotFound("you are not in a room"))
			return
		}
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			gs.Logger.WithError(err).Warn("WebSocket accept error")
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal server error")
		middleware.LogWebSocketConnect(gs.Logger, r.RemoteAddr, r.URL.Path, user.Username)

		sub := gs.Hub.subscribe(room.ID, user.Username)
		defer gs.Hub.unsubscribe(room.ID, sub)

		// The client only listens; CloseRead handles control frames and cancels on close.
		ctx := c.CloseRead(r.Context())

		initial := types.GameContext{}
		if g, ok := gs.GameStore.GetGameByRoomID(room.ID); ok {
			initial = g.GetCurrentGameState(user.Username)
		}
		if err := writeSnapshot(ctx, c, initial); err != nil {
			middleware.LogWebSocketDisconnect(gs.Logger, r.RemoteAddr, r.URL.Path, user.Username, err)
			return
		}

		for {
			select {
			case <-ctx.Done():
				middleware.LogWebSocketDisconnect(gs.Logger, r.RemoteAddr, r.URL.Path, user.Username, nil)
				return
			case snapshot, ok := <-sub.ch:
				if !ok {
					middleware.LogWebSocketDisconnect(gs.Logger, r.RemoteAddr, r.URL.Path, user.Username, nil)
					c.Close(websocket.StatusNormalClosure, "game over")
					return
				}
				if err := writeSnapshot(ctx, c, snapshot); err != nil {
					middleware.LogWebSocketDisconnect(gs.Logger, r.RemoteAddr, r.URL.Path, user.Username, err)
					return
				}
			}
		}
	}
}

func writeSnapshot(ctx context.Context, c *websocket.Conn, snapshot types.GameContext) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c, snapshot)
}
