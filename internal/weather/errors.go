package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork is matched by every transport failure or non-success HTTP status.
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse is returned when the provider payload lacks required fields.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrValidation is returned for missing or out-of-range input.
	ErrValidation = errors.New("validation error")
	// ErrCircuitOpen marks calls rejected by an open circuit breaker.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// NetworkError describes a failed call to a remote endpoint.
type NetworkError struct {
	Op         string
	StatusCode int // zero when the transport itself failed
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}

// Malformed wraps ErrMalformedResponse with detail.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// Invalid wraps ErrValidation around the cause.
func Invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// IsTransient reports whether err is a network failure worth retrying.
// Calls rejected by an open circuit are not.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNetwork) && !errors.Is(err, ErrCircuitOpen)
}
