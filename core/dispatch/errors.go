package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned when a trip coordinate lies outside the grid.
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	// ErrDegenerateTrip is returned when a trip starts where it ends.
	ErrDegenerateTrip = errors.New("origin equals destination")
	// ErrDuplicateActiveTrip is returned when a passenger already has an unfinished trip.
	ErrDuplicateActiveTrip = errors.New("passenger already has an active trip")
	// ErrUnknownPassenger signals a roster lookup for an ID that was never registered.
	ErrUnknownPassenger = errors.New("unknown passenger")
)

// RequestError wraps a rejected ride request with the passenger name.
type RequestError struct {
	Name string
	Err  error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request for %s rejected: %v", e.Name, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ErrorKind returns a stable identifier for errors produced by this package.
// Unknown errors map to "unknown".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrDegenerateTrip):
		return "degenerate_trip"
	case errors.Is(err, ErrDuplicateActiveTrip):
		return "duplicate_active_trip"
	case errors.Is(err, ErrUnknownPassenger):
		return "unknown_passenger"
	default:
		return "unknown"
	}
}
