package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/pkg/types"
)

// Room defaults and limits.
const (
	DefaultMinPlayers = 2
	DefaultMaxPlayers = 7
	DefaultRoomGems   = 50
	MaxRoomPlayers    = 10
	maxStatusUpdates  = 20
)

// Room is a lobby. Owner and Players are filled in when the room is read from storage.
type Room struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	CreateTime    time.Time        `json:"create_time"`
	Private       bool             `json:"private"`
	Password      string           `json:"-"`
	OwnerID       uuid.UUID        `json:"owner_id"`
	Owner         User             `json:"owner"`
	Players       []User           `json:"players"`
	MinPlayers    int              `json:"min_players"`
	MaxPlayers    int              `json:"max_players"`
	Gems          int              `json:"gems"`
	Status        types.RoomStatus `json:"status"`
	StatusUpdates []string         `json:"status_updates"`
}

// NewRoom builds an idle room owned by u with default settings.
func NewRoom(owner *User) *Room {
	return &Room{
		ID:            uuid.New(),
		Name:          "room " + owner.Name,
		CreateTime:    time.Now().UTC(),
		OwnerID:       owner.ID,
		Owner:         *owner,
		Players:       []User{*owner},
		MinPlayers:    DefaultMinPlayers,
		MaxPlayers:    DefaultMaxPlayers,
		Gems:          DefaultRoomGems,
		Status:        types.RoomIdle,
		StatusUpdates: []string{},
	}
}

// HasPlayer reports whether the user is a member of the room.
func (r *Room) HasPlayer(userID uuid.UUID) bool {
	for _, p := range r.Players {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// AddStatus appends a line to the room history, keeping only the latest entries.
func (r *Room) AddStatus(line string) {
	r.StatusUpdates = append(r.StatusUpdates, line)
	if n := len(r.StatusUpdates); n > maxStatusUpdates {
		r.StatusUpdates = r.StatusUpdates[n-maxStatusUpdates:]
	}
}

// Data returns the room as sent to clients. The password never leaves the server.
func (r *Room) Data() types.Room {
	players := make([]types.User, 0, len(r.Players))
	for i := range r.Players {
		players = append(players, r.Players[i].Data())
	}
	updates := r.StatusUpdates
	if updates == nil {
		updates = []string{}
	}
	return types.Room{
		ID:            r.ID,
		Name:          r.Name,
		CreateTime:    r.CreateTime,
		Private:       r.Private,
		Owner:         r.Owner.Data(),
		Players:       players,
		MinPlayers:    r.MinPlayers,
		MaxPlayers:    r.MaxPlayers,
		Gems:          r.Gems,
		Status:        r.Status,
		StatusUpdates: updates,
	}
}
