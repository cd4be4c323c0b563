// internal/database/store.go
package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/internal/models"
	"github.com/jason-s-yu/mau/pkg/types"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("already exists")
)

// LeaderboardLimit caps the number of users returned by a leaderboard listing.
const LeaderboardLimit = 100

// Store is the persistence layer of the Mau service. Postgres backs it in production,
// Memory backs it in tests and local development.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateUser saves the profile fields and the password hash.
	UpdateUser(ctx context.Context, u *models.User) error

	// Leaderboard lists users by the category metric, highest first. Ties keep
	// registration order.
	Leaderboard(ctx context.Context, category types.Category, limit int) ([]models.User, error)
	// LeaderboardRank returns the 1-based position of a user in Leaderboard order.
	LeaderboardRank(ctx context.Context, username string, category types.Category) (int, error)

	// CreateRoom inserts a room and seats its owner.
	CreateRoom(ctx context.Context, r *models.Room) error
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	// ListRooms returns public rooms that have not ended.
	ListRooms(ctx context.Context, filter types.RoomFilter) ([]models.Room, error)
	// RandomRoom returns a random public idle room.
	RandomRoom(ctx context.Context) (*models.Room, error)
	// ActiveRoomForUser returns the non-ended room the user is a member of.
	ActiveRoomForUser(ctx context.Context, userID uuid.UUID) (*models.Room, error)
	// UpdateRoom saves settings, owner, status and status updates.
	UpdateRoom(ctx context.Context, r *models.Room) error
	AddRoomPlayer(ctx context.Context, roomID, userID uuid.UUID) error
	RemoveRoomPlayer(ctx context.Context, roomID, userID uuid.UUID) error

	// SaveGame stores a finished game and applies the participants' stats.
	SaveGame(ctx context.Context, g *models.Game) error

	Close()
}

// statsFor derives per-user counter increments from a finished game.
func statsFor(g *models.Game) map[uuid.UUID]models.UserStats {
	stats := make(map[uuid.UUID]models.UserStats)
	for _, id := range g.Winners {
		s := stats[id]
		s.Games, s.Wins = 1, 1
		stats[id] = s
	}
	for _, id := range g.Losers {
		s := stats[id]
		s.Games = 1
		stats[id] = s
	}
	for id, n := range g.Cards {
		s := stats[id]
		s.Games = 1
		s.Cards = n
		stats[id] = s
	}
	return stats
}
