package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/mau/internal/auth"
	"github.com/jason-s-yu/mau/internal/database"
	"github.com/jason-s-yu/mau/internal/models"
	"github.com/jason-s-yu/mau/pkg/types"
)

const (
	maxUsernameLength = 16
	maxNameLength     = 32
	minPasswordLength = 4
)

type ctxKey int

const userKey ctxKey = iota

// authenticate resolves a bearer token to its user.
func (gs *GameServer) authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, errUnauthorized("missing bearer token")
	}
	username, err := gs.Tokens.AuthenticateJWT(token)
	if err != nil {
		return nil, errUnauthorized("invalid token")
	}
	u, err := gs.Store.GetUserByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, errUnauthorized("invalid token")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" token and stores
// the caller in the request context.
func (gs *GameServer) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		u, err := gs.authenticate(r.Context(), token)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

// currentUser returns the caller stored by RequireAuth.
func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(userKey).(*models.User)
	return u
}

func (gs *GameServer) issueToken(w http.ResponseWriter, r *http.Request, u *models.User) {
	token, err := gs.Tokens.CreateJWT(u.Username)
	if err != nil {
		writeError(w, gs.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.TokenResponse{Status: "ok", Token: token})
}

// LoginHandler exchanges credentials for a token.
func LoginHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.Credentials
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}

		u, err := gs.Store.GetUserByUsername(r.Context(), req.Username)
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, gs.Logger, r, errUnauthorized("invalid username or password"))
			return
		}
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		ok, err := auth.ComparePasswordAndHash(req.Password, u.Password)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		if !ok {
			writeError(w, gs.Logger, r, errUnauthorized("invalid username or password"))
			return
		}
		gs.issueToken(w, r, u)
	}
}

// RegisterHandler creates an account and logs it in.
func RegisterHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.Credentials
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		if n := utf8.RuneCountInString(req.Username); n < 1 || n > maxUsernameLength {
			writeError(w, gs.Logger, r, errValidation("username must be 1 to 16 characters"))
			return
		}
		if utf8.RuneCountInString(req.Password) < minPasswordLength {
			writeError(w, gs.Logger, r, errValidation("password must be at least 4 characters"))
			return
		}

		hash, err := auth.CreateHash(req.Password, gs.HashParams)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		u := &models.User{
			Username: req.Username,
			Name:     req.Username,
			Password: hash,
			Gems:     models.DefaultGems,
		}
		if err := gs.Store.CreateUser(r.Context(), u); err != nil {
			if errors.Is(err, database.ErrConflict) {
				err = errConflict("username is already taken")
			}
			writeError(w, gs.Logger, r, err)
			return
		}
		gs.Logger.WithField("user", u.Username).Info("user registered")
		gs.issueToken(w, r, u)
	}
}

func MeHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, currentUser(r).Data())
	}
}

// UpdateProfileHandler edits the caller's display name and avatar.
func UpdateProfileHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ProfileUpdate
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		if n := utf8.RuneCountInString(req.Name); n < 1 || n > maxNameLength {
			writeError(w, gs.Logger, r, errValidation("name must be 1 to 32 characters"))
			return
		}

		u := currentUser(r)
		u.Name = req.Name
		u.AvatarURL = req.AvatarURL
		if err := gs.Store.UpdateUser(r.Context(), u); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u.Data())
	}
}

func ChangePasswordHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PasswordChange
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}

		u := currentUser(r)
		ok, err := auth.ComparePasswordAndHash(req.OldPassword, u.Password)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		if !ok {
			writeError(w, gs.Logger, r, errUnauthorized("old password is incorrect"))
			return
		}
		if utf8.RuneCountInString(req.NewPassword) < minPasswordLength {
			writeError(w, gs.Logger, r, errValidation("password must be at least 4 characters"))
			return
		}

		hash, err := auth.CreateHash(req.NewPassword, gs.HashParams)
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		u.Password = hash
		if err := gs.Store.UpdateUser(r.Context(), u); err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u.Data())
	}
}

// UserByNameHandler returns the public profile of any user.
func UserByNameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		if utf8.RuneCountInString(username) > maxUsernameLength {
			writeError(w, gs.Logger, r, errNotFound("user not found"))
			return
		}
		u, err := gs.Store.GetUserByUsername(r.Context(), username)
		if errors.Is(err, database.ErrNotFound) {
			err = errNotFound("user not found")
		}
		if err != nil {
			writeError(w, gs.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u.Data())
	}
}

// challenges derives the reward tasks of a user from its counters.
func challenges(u *models.User) []types.Challenge {
	list := []types.Challenge{
		{Name: "Play games", Now: u.PlayCount, Total: 5, Reward: 25},
		{Name: "Play cards", Now: u.CardsCount, Total: 70, Reward: 80},
		{Name: "Win games", Now: u.WinCount, Total: 3, Reward: 50},
	}
	for i := range list {
		list[i].Now = min(list[i].Now, list[i].Total)
	}
	return list
}

func ChallengesHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, challenges(currentUser(r)))
	}
}
