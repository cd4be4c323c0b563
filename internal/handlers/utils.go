package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jason-s-yu/mau/internal/database"
	"github.com/jason-s-yu/mau/internal/game"
	"github.com/jason-s-yu/mau/pkg/types"
	"github.com/sirupsen/logrus"
)

// apiError carries the HTTP status a failure is reported with.
type apiError struct {
	status int
	detail string
}

func (e *apiError) Error() string { return e.detail }

func errUnauthorized(detail string) error { return &apiError{http.StatusUnauthorized, detail} }
func errForbidden(detail string) error    { return &apiError{http.StatusForbidden, detail} }
func errNotFound(detail string) error     { return &apiError{http.StatusNotFound, detail} }
func errConflict(detail string) error     { return &apiError{http.StatusConflict, detail} }
func errValidation(detail string) error   { return &apiError{http.StatusUnprocessableEntity, detail} }

// illegalActions are engine errors reported as conflicts with the game state.
var illegalActions = []error{
	game.ErrNotStarted, game.ErrAlreadyStarted, game.ErrGameOver, game.ErrNotEnoughPlayers,
	game.ErrAlreadyJoined, game.ErrNotYourTurn, game.ErrWrongState, game.ErrCardNotInHand,
	game.ErrCannotCover, game.ErrAlreadyTook, game.ErrMustTake, game.ErrNoBluff,
	game.ErrInvalidTarget, game.ErrTurnNotExpired, game.ErrDeckEmpty,
}

// errorStatus maps an error to its HTTP status and client-facing detail.
func errorStatus(err error) (int, string) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status, apiErr.detail
	}
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, game.ErrNotPlayer):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, game.ErrInvalidColor), errors.Is(err, game.ErrInvalidCard):
		return http.StatusUnprocessableEntity, err.Error()
	}
	for _, target := range illegalActions {
		if errors.Is(err, target) {
			return http.StatusConflict, err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError reports err as {"detail": ...}. Internal errors are logged, not exposed.
func writeError(w http.ResponseWriter, logger logrus.FieldLogger, r *http.Request, err error) {
	status, detail := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeJSON(w, status, types.ErrorResponse{Detail: detail})
}

// decodeJSON reads the request body into v. An empty body is accepted when optional is set.
func decodeJSON(r *http.Request, v interface{}, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	if err != nil {
		return errValidation("invalid request payload")
	}
	return nil
}
