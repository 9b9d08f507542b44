package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for the account/session domain. Handlers map these to the
// response envelope; downstream (mongo/redis/cloudinary) errors are wrapped
// into ErrInternal so their shapes never leak to clients.
var (
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("username or email already exists")
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenReplay        = errors.New("refresh token is stale or has been superseded")
	ErrInternal           = errors.New("internal error")
)

// ValidationError aggregates every violating field from a single request so
// clients get the full list in one round trip.
type ValidationError struct {
	Fields []FieldError
}

type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Internal wraps a downstream failure into ErrInternal, keeping the cause
// available to errors.Is/As and logs but not to clients.
func Internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

// Status returns the HTTP status class for an error from the domain taxonomy.
func Status(err error) int {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenReplay):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
