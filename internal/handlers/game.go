// internal/handlers/game.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/mau/internal/database"
	"github.com/jason-s-yu/mau/internal/game"
	"github.com/jason-s-yu/mau/internal/models"
	"github.com/jason-s-yu/mau/pkg/types"
)

// gameAction runs one action on the game of the caller's active room.
type gameAction func(r *http.Request, u *models.User, room *models.Room, g *game.MauGame) error

func (gs *GameServer) activeRoom(r *http.Request) (*models.Room, error) {
	room, err := gs.Store.ActiveRoomForUser(r.Context(), currentUser(r).ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, errNotFound("you are not in a room")
	}
	return room, err
}

// GameHandler wraps an action with session lookup, settlement and the state response.
func GameHandler(gs *GameServer, action gameAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		room, err := gs.activeRoom(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		g, ok := gs.GameStore.GetGameByRoomID(room.ID)
		if !ok {
			writeError(w, gs.Logger, r, errNotFound("no game is running in this room"))
			return
		}
		if action != nil {
			if err := action(r, u, room, g); err != nil {
				writeError(w, gs.Logger, r, err)
				return
			}
			if err := gs.afterAction(r.Context(), room, g); err != nil {
				writeError(w, gs.Logger, r, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, g.GetCurrentGameState(u.Username))
	}
}

func requireOwner(u *models.User, room *models.Room) error {
	if room.OwnerID != u.ID {
		return errForbidden("only the room owner can do that")
	}
	return nil
}

// StartGameHandler deals a new game for the members of the caller's room.
func StartGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		room, err := gs.activeRoom(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		if err := requireOwner(u, room); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		g, err := gs.startGame(r.Context(), room)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		if err := gs.afterAction(r.Context(), room, g); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, g.GetCurrentGameState(u.Username))
	}
}

func joinGame(r *http.Request, u *models.User, _ *models.Room, g *game.MauGame) error {
	return g.AddPlayer(u.Username, u.Name)
}

func leaveGame(r *http.Request, u *models.User, _ *models.Room, g *game.MauGame) error {
	return g.RemovePlayer(u.Username)
}

func endGame(r *http.Request, u *models.User, room *models.Room, g *game.MauGame) error {
	if err := requireOwner(u, room); err != nil {
		return err
	}
	g.End()
	return nil
}

func kickPlayer(r *http.Request, u *models.User, room *models.Room, g *game.MauGame) error {
	if err := requireOwner(u, room); err != nil {
		return err
	}
	return g.RemovePlayer(chi.URLParam(r, "player"))
}

func skipTurn(gs *GameServer) gameAction {
	return func(r *http.Request, u *models.User, _ *models.Room, g *game.MauGame) error {
		return g.Skip(u.Username, gs.TurnTimeout)
	}
}

func nextTurn(r *http.Request, u *models.User, _ *models.Room, g *game.MauGame) error {
	return g.NextTurn(u.Username)
}

func takeCards(r *http.Request, u *models.User, _ *models.Room, g *game.MauGame) error {
	return g.Take(u.Username)
}

func shotgunTake(r *http.Request, u *models.User, _ *models.Room, g *game.MauGame) error {
	return g.ShotgunTake(u.Username)
}

func shotgunShot(r *http.Request, u *models.User, _ *models.Room, g *game.MauGame) error {
	return g.ShotgunShot(u.Username)
}

func callBluff(r *http.Request, u *models.User, _ *models.Room, g *game.MauGame) error {
	return g.CallBluff(u.Username)
}

func chooseColor(r *http.Request, u *models.User, _ *models.Room, g *game.MauGame) error {
	n, err := strconv.Atoi(chi.URLParam(r, "color"))
	if err != nil {
		return errValidation("color must be a number")
	}
	return g.ChooseColor(u.Username, types.CardColor(n))
}

func choosePlayer(r *http.Request, u *models.User, _ *models.Room, g *game.MauGame) error {
	return g.ChoosePlayer(u.Username, chi.URLParam(r, "id"))
}

func playCard(r *http.Request, u *models.User, _ *models.Room, g *game.MauGame) error {
	var data types.Card
	if err := decodeJSON(r, &data, false); err != nil {
		return err
	}
	card, err := game.CardFromData(data)
	if err != nil {
		return err
	}
	return g.PlayCard(u.Username, card)
}
