package handlers

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/mau/internal/database"
	"github.com/jason-s-yu/mau/pkg/types"
)

func category(r *http.Request) (types.Category, error) {
	c := types.Category(chi.URLParam(r, "category"))
	if !c.Valid() {
		return "", errValidation("category must be gems, games, wins or cards")
	}
	return c, nil
}

// LeaderboardHandler lists the top users of a category.
func LeaderboardHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := category(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		users, err := gs.Store.Leaderboard(r.Context(), c, database.LeaderboardLimit)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		out := make([]types.User, 0, len(users))
		for i := range users {
			out = append(out, users[i].Data())
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// RankHandler returns the leaderboard position of one user.
func RankHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := category(r)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		username := chi.URLParam(r, "username")
		if utf8.RuneCountInString(username) > maxUsernameLength {
			writeError(w, gs.Logger, r, errNotFound("user not found"))
			return
		}
		rank, err := gs.Store.LeaderboardRank(r.Context(), username, c)
		if errors.Is(err, database.ErrNotFound) {
			err = errNotFound("user not found")
		}
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, types.Rank{Username: username, Category: c, Rank: rank})
	}
}
