package game

import (
	"sync"

	"github.com/google/uuid"
)

// GameStore keeps running games in memory, one per room.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*MauGame
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*MauGame),
	}
}

// AddGame registers a game under its room. It reports false when the room already
// has a game.
func (s *GameStore) AddGame(game *MauGame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[game.RoomID]; exists {
		return false
	}
	s.games[game.RoomID] = game
	return true
}

// GetGameByRoomID returns the game running in a room.
func (s *GameStore) GetGameByRoomID(roomID uuid.UUID) (*MauGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[roomID]
	return g, exists
}

// DeleteGame drops the game of a room. It reports false when the room held no game
// or held a different one.
func (s *GameStore) DeleteGame(game *MauGame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, exists := s.games[game.RoomID]; !exists || cur != game {
		return false
	}
	delete(s.games, game.RoomID)
	return true
}

// Len returns the number of running games.
func (s *GameStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}
