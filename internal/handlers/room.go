package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/internal/database"
	"github.com/jason-s-yu/mau/internal/game"
	"github.com/jason-s-yu/mau/internal/models"
	"github.com/jason-s-yu/mau/pkg/types"
)

const maxRoomNameLength = 64

func roomsData(rooms []models.Room) []types.Room {
	out := make([]types.Room, 0, len(rooms))
	for i := range rooms {
		out = append(out, rooms[i].Data())
	}
	return out
}

// loadRoom reads the {id} path parameter. A malformed id is reported as not found.
func (gs *GameServer) loadRoom(r *http.Request) (*models.Room, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, errNotFound("room not found")
	}
	room, err := gs.Store.GetRoom(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, errNotFound("room not found")
	}
	return room, err
}

// ownedRoom loads the {id} room and checks that the caller owns it.
func (gs *GameServer) ownedRoom(r *http.Request) (*models.Room, error) {
	room, err := gs.loadRoom(r)
	if err != nil {
		return nil, err
	}
	if room.OwnerID != currentUser(r).ID {
		return nil, errForbidden("only the room owner can do that")
	}
	return room, nil
}

// memberByName finds a room member by username.
func memberByName(room *models.Room, username string) (*models.User, bool) {
	for i := range room.Players {
		if room.Players[i].Username == username {
			return &room.Players[i], true
		}
	}
	return nil, false
}

func ListRoomsHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := types.RoomFilter{OrderBy: types.RoomOrder(q.Get("order_by"))}
		switch filter.OrderBy {
		case "", types.OrderCreateTime, types.OrderGems, types.OrderPlayers:
		default:
			writeError(w, gs.Logger, r, errValidation("order_by must be create_time, gems or players"))
			return
		}
		if v := q.Get("invert"); v != "" {
			invert, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, gs.Logger, r, errValidation("invert must be a boolean"))
				return
			}
			filter.Invert = invert
		}

		rooms, err := gs.Store.ListRooms(r.Context(), filter)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, roomsData(rooms))
	}
}

func GetRoomHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := gs.loadRoom(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, room.Data())
	}
}

func RandomRoomHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := gs.Store.RandomRoom(r.Context())
		if errors.Is(err, database.ErrNotFound) {
			err = errNotFound("no open rooms")
		}
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, room.Data())
	}
}

func ActiveRoomHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := gs.Store.ActiveRoomForUser(r.Context(), currentUser(r).ID)
		if errors.Is(err, database.ErrNotFound) {
			err = errNotFound("you are not in a room")
		}
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, room.Data())
	}
}

// CreateRoomHandler opens a room owned by the caller.
func CreateRoomHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if _, err := gs.Store.ActiveRoomForUser(r.Context(), u.ID); err == nil {
			writeError(w, gs.Logger, r, errConflict("you are already in a room"))
			return
		} else if !errors.Is(err, database.ErrNotFound) {
			writeError(w, gs.Logger, r, err)
			return
		}

		room := models.NewRoom(u)
		room.AddStatus(fmt.Sprintf("%s created the room", u.Name))
		if err := gs.Store.CreateRoom(r.Context(), room); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		gs.Logger.WithField("room", room.ID).WithField("owner", u.Username).Info("room created")
		writeJSON(w, http.StatusOK, room.Data())
	}
}

// applySettings validates a settings patch and applies it to room.
func applySettings(room *models.Room, s types.RoomSettings) error {
	next := *room
	if s.Name != nil {
		if n := utf8.RuneCountInString(*s.Name); n < 1 || n > maxRoomNameLength {
			return errValidation("name must be 1 to 64 characters")
		}
		next.Name = *s.Name
	}
	if s.Private != nil {
		next.Private = *s.Private
	}
	if s.RoomPassword != nil {
		next.Password = *s.RoomPassword
	}
	if s.Gems != nil {
		if *s.Gems < 0 {
			return errValidation("gems must not be negative")
		}
		next.Gems = *s.Gems
	}
	if s.MinPlayers != nil {
		next.MinPlayers = *s.MinPlayers
	}
	if s.MaxPlayers != nil {
		next.MaxPlayers = *s.MaxPlayers
	}
	if next.MinPlayers < models.DefaultMinPlayers || next.MinPlayers > next.MaxPlayers || next.MaxPlayers > models.MaxRoomPlayers {
		return errValidation(fmt.Sprintf("players must satisfy %d <= min <= max <= %d", models.DefaultMinPlayers, models.MaxRoomPlayers))
	}
	*room = next
	return nil
}

func UpdateRoomHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := gs.ownedRoom(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		if room.Status != types.RoomIdle {
			writeError(w, gs.Logger, r, errConflict("settings can only change while the room is idle"))
			return
		}
		var req types.RoomSettings
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		if err := applySettings(room, req); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		room.AddStatus("room settings updated")
		if err := gs.Store.UpdateRoom(r.Context(), room); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, room.Data())
	}
}

func JoinRoomHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		active, err := gs.Store.ActiveRoomForUser(r.Context(), u.ID)
		if err == nil {
			if active.ID.String() == chi.URLParam(r, "id") {
				writeError(w, gs.Logger, r, errConflict("you are already in this room"))
			} else {
				writeError(w, gs.Logger, r, errConflict("you are already in another room"))
			}
			return
		}
		if !errors.Is(err, database.ErrNotFound) {
			writeError(w, gs.Logger, r, err)
			return
		}

		room, err := gs.loadRoom(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		var req types.JoinRequest
		if err := decodeJSON(r, &req, true); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}

		switch {
		case room.HasPlayer(u.ID):
			err = errConflict("you are already in this room")
		case room.Status == types.RoomEnded:
			err = errConflict("room has ended")
		case len(room.Players) >= room.MaxPlayers:
			err = errConflict("room is full")
		case room.Gems > u.Gems:
			err = errForbidden("not enough gems to join room")
		case room.Private && room.Password != "" && req.Password != room.Password:
			err = errForbidden("wrong room password")
		}
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}

		if err := gs.Store.AddRoomPlayer(r.Context(), room.ID, u.ID); err != nil {
			if errors.Is(err, database.ErrConflict) {
				err = errConflict("you are already in this room")
			}
			writeError(w, gs.Logger, r, err)
			return
		}
		room.Players = append(room.Players, *u)
		room.AddStatus(fmt.Sprintf("%s joined", u.Name))
		if err := gs.Store.UpdateRoom(r.Context(), room); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, room.Data())
	}
}

// dropMember takes a user out of the room and of its running game. When the owner goes,
// the room ends together with its game.
func (gs *GameServer) dropMember(ctx context.Context, room *models.Room, member *models.User, line string) error {
	if err := gs.Store.RemoveRoomPlayer(ctx, room.ID, member.ID); err != nil {
		return err
	}
	players := room.Players[:0]
	for _, p := range room.Players {
		if p.ID != member.ID {
			players = append(players, p)
		}
	}
	room.Players = players
	room.AddStatus(line)

	ownerLeft := member.ID == room.OwnerID
	// A running game needs at least min_players members.
	short := room.Status == types.RoomGame && len(room.Players) < room.MinPlayers
	if g, ok := gs.GameStore.GetGameByRoomID(room.ID); ok {
		if !ownerLeft && g.HasPlayer(member.Username) {
			if err := g.RemovePlayer(member.Username); err != nil {
				return err
			}
		}
		if ownerLeft || short {
			g.End()
		}
		if g.IsOver() {
			return gs.settle(ctx, room, g)
		}
		gs.Hub.Notify(room.ID, g)
	}
	if ownerLeft {
		room.Status = types.RoomEnded
		room.AddStatus("the owner left, room closed")
	}
	return gs.Store.UpdateRoom(ctx, room)
}

func LeaveRoomHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		room, err := gs.loadRoom(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		if !room.HasPlayer(u.ID) {
			writeError(w, gs.Logger, r, errNotFound("you are not in this room"))
			return
		}
		if err := gs.dropMember(r.Context(), room, u, fmt.Sprintf("%s left", u.Name)); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, room.Data())
	}
}

func KickHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := gs.ownedRoom(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		target, ok := memberByName(room, chi.URLParam(r, "user"))
		if !ok {
			writeError(w, gs.Logger, r, errNotFound("user is not in this room"))
			return
		}
		if target.ID == room.OwnerID {
			writeError(w, gs.Logger, r, errConflict("the owner cannot be kicked"))
			return
		}
		target = &models.User{ID: target.ID, Username: target.Username, Name: target.Name}
		if err := gs.dropMember(r.Context(), room, target, fmt.Sprintf("%s was kicked", target.Name)); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, room.Data())
	}
}

func TransferOwnerHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := gs.ownedRoom(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		target, ok := memberByName(room, chi.URLParam(r, "user"))
		if !ok {
			writeError(w, gs.Logger, r, errNotFound("user is not in this room"))
			return
		}
		room.OwnerID = target.ID
		room.Owner = *target
		room.AddStatus(fmt.Sprintf("%s is the new owner", target.Name))
		if err := gs.Store.UpdateRoom(r.Context(), room); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		if g, ok := gs.GameStore.GetGameByRoomID(room.ID); ok {
			g.SetOwner(target.Username)
			gs.Hub.Notify(room.ID, g)
		}
		writeJSON(w, http.StatusOK, room.Data())
	}
}

func GetRulesHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := gs.loadRoom(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		rules, err := gs.roomRules(r.Context(), room.ID)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rules.Data())
	}
}

// UpdateRulesHandler replaces the enabled rules of a room.
func UpdateRulesHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := gs.ownedRoom(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		var req types.RulesUpdate
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		rules, err := game.NewRuleSet(req.Rules)
		if err != nil {
			writeError(w, gs.Logger, r, errValidation(err.Error()))
			return
		}
		if err := gs.Rules.Set(r.Context(), room.ID, rules.Keys()); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		room.AddStatus("game modes updated")
		if err := gs.Store.UpdateRoom(r.Context(), room); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rules.Data())
	}
}
