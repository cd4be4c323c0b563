// pkg/types/types.go
//
// Package types holds the JSON shapes exchanged between the Mau server and its clients.
package types

import (
	"time"

	"github.com/google/uuid"
)

// User is the public view of an account.
type User struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url"`
	Gems       int    `json:"gems"`
	PlayCount  int    `json:"play_count"`
	WinCount   int    `json:"win_count"`
	CardsCount int    `json:"cards_count"`
}

// RoomStatus is the lifecycle stage of a room.
type RoomStatus string

const (
	RoomIdle  RoomStatus = "idle"
	RoomGame  RoomStatus = "game"
	RoomEnded RoomStatus = "ended"
)

// Room is a pre-game lobby.
type Room struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	CreateTime    time.Time  `json:"create_time"`
	Private       bool       `json:"private"`
	Owner         User       `json:"owner"`
	Players       []User     `json:"players"`
	MinPlayers    int        `json:"min_players"`
	MaxPlayers    int        `json:"max_players"`
	Gems          int        `json:"gems"`
	Status        RoomStatus `json:"status"`
	StatusUpdates []string   `json:"status_updates"`
}

// RoomSettings is a partial update of room settings. Nil fields are left untouched.
type RoomSettings struct {
	Name         *string `json:"name,omitempty"`
	Private      *bool   `json:"private,omitempty"`
	RoomPassword *string `json:"room_password,omitempty"`
	Gems         *int    `json:"gems,omitempty"`
	MaxPlayers   *int    `json:"max_players,omitempty"`
	MinPlayers   *int    `json:"min_players,omitempty"`
}

// RoomOrder names the field rooms are ordered by.
type RoomOrder string

const (
	OrderCreateTime RoomOrder = "create_time"
	OrderGems       RoomOrder = "gems"
	OrderPlayers    RoomOrder = "players"
)

// RoomFilter controls room listing.
type RoomFilter struct {
	OrderBy RoomOrder
	Invert  bool
}

// RoomRule is a togglable game mode of a room.
type RoomRule struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Status bool   `json:"status"`
}

// RulesUpdate replaces the enabled rule set of a room.
type RulesUpdate struct {
	Rules []string `json:"rules"`
}

// Game is a finished match record.
type Game struct {
	ID         uuid.UUID `json:"id"`
	CreateTime time.Time `json:"create_time"`
	EndTime    time.Time `json:"end_time"`
	Owner      User      `json:"owner"`
	RoomID     uuid.UUID `json:"room_id"`
	Winners    []User    `json:"winners"`
	Losers     []User    `json:"losers"`
}

// Category is a leaderboard ranking dimension.
type Category string

const (
	CategoryGems  Category = "gems"
	CategoryGames Category = "games"
	CategoryWins  Category = "wins"
	CategoryCards Category = "cards"
)

// Categories lists every leaderboard category.
var Categories = []Category{CategoryGems, CategoryGames, CategoryWins, CategoryCards}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// Metric returns the metric of u that c ranks by.
func (c Category) Metric(u User) int {
	switch c {
	case CategoryGames:
		return u.PlayCount
	case CategoryWins:
		return u.WinCount
	case CategoryCards:
		return u.CardsCount
	default:
		return u.Gems
	}
}

// Rank is the position of a user on a leaderboard, starting at 1.
type Rank struct {
	Username string   `json:"username"`
	Category Category `json:"category"`
	Rank     int      `json:"rank"`
}

// Challenge is a progress-tracked reward task.
type Challenge struct {
	Name   string `json:"name"`
	Now    int    `json:"now"`
	Total  int    `json:"total"`
	Reward int    `json:"reward"`
}

// Credentials are used to log in and register.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by login and registration.
type TokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// ProfileUpdate edits the public profile of the caller.
type ProfileUpdate struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// PasswordChange replaces the caller's password.
type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// JoinRequest carries the optional password of a private room.
type JoinRequest struct {
	Password string `json:"password,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
