package calendar

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the calendar engine and the booking flows built on
// it.  Callers match them with errors.Is; the wrapped text is safe to show
// to clients for every kind except ErrUpstream.
var (
	// ErrValidation marks malformed input: dates, times, ranges, fields.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an unknown slot or booking id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks a slot that is not available for booking.
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict marks a lost booking race or a duplicate slot tuple.
	ErrConflict = errors.New("conflict")
	// ErrUpstream marks a store or provider failure.
	ErrUpstream = errors.New("upstream failure")
)

// Validation builds an ErrValidation carrying a client facing message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound builds an ErrNotFound carrying a client facing message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Upstream wraps a store or provider error raised while running op.
func Upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
