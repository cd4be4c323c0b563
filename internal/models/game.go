package models

import (
	"time"

	"github.com/google/uuid"
)

// Game is the stored record of a finished match.
type Game struct {
	ID         uuid.UUID   `json:"id"`
	CreateTime time.Time   `json:"create_time"`
	EndTime    time.Time   `json:"end_time"`
	OwnerID    uuid.UUID   `json:"owner_id"`
	RoomID     uuid.UUID   `json:"room_id"`
	Winners    []uuid.UUID `json:"winners"`
	Losers     []uuid.UUID `json:"losers"`
	// Cards is the number of cards each participant played.
	Cards map[uuid.UUID]int `json:"cards"`
}
