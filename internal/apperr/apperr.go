package apperr

import (
	"errors"
	"net/http"
)

// Engine error kinds. Every error that crosses a service boundary is one of
// these four, wrapped with context via fmt.Errorf("...: %w", err).
var (
	// ErrInvalidRequest means the input itself is malformed, e.g. a user
	// targeting themselves.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound means no record exists for the referenced pair or user.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a non-declined relationship already occupies the pair,
	// including the loser of a concurrent send race.
	ErrConflict = errors.New("conflict")

	// ErrForbidden means the acting user is not authorized for the transition.
	ErrForbidden = errors.New("forbidden")
)

// HTTPStatus maps an engine error to its stable response category.
// Unrecognized errors map to 500 so storage details never pick a status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
