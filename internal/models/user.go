package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/pkg/types"
)

// DefaultGems is the balance of a freshly registered user.
const DefaultGems = 100

type User struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	AvatarURL  string    `json:"avatar_url"`
	Password   string    `json:"password,omitempty"`
	Gems       int       `json:"gems"`
	PlayCount  int       `json:"play_count"`
	WinCount   int       `json:"win_count"`
	CardsCount int       `json:"cards_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Data returns the public view of the user.
func (u *User) Data() types.User {
	return types.User{
		Username:   u.Username,
		Name:       u.Name,
		AvatarURL:  u.AvatarURL,
		Gems:       u.Gems,
		PlayCount:  u.PlayCount,
		WinCount:   u.WinCount,
		CardsCount: u.CardsCount,
	}
}

// UserStats are counter increments applied after a game.
type UserStats struct {
	Games int
	Wins  int
	Cards int
}
