package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind string

const (
	Unauthorized Kind = "unauthorized"
	NotFound     Kind = "not_found"
	Validation   Kind = "validation"
	ServerError  Kind = "server_error"
)

// Error is returned by every Client call that fails. Status is 0 when the request never
// got a response.
type Error struct {
	Kind   Kind
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// kindFor maps an HTTP status to its error kind.
func kindFor(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return Unauthorized
	case http.StatusNotFound:
		return NotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return Validation
	default:
		return ServerError
	}
}

// KindOf returns the kind of err, or ServerError for errors not produced by a Client.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ServerError
}

func IsUnauthorized(err error) bool { return err != nil && KindOf(err) == Unauthorized }
func IsNotFound(err error) bool     { return err != nil && KindOf(err) == NotFound }
func IsValidation(err error) bool   { return err != nil && KindOf(err) == Validation }
func IsServerError(err error) bool  { return err != nil && KindOf(err) == ServerError }
