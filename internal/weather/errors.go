package weather

import (
	"errors"
	"fmt"
)

// ErrSchema matches any SchemaError via errors.Is.
var ErrSchema = errors.New("weather: unexpected response schema")

// ErrNetwork matches any NetworkError via errors.Is.
var ErrNetwork = errors.New("weather: provider unreachable")

// SchemaError reports a provider response that does not have the expected shape.
type SchemaError struct {
	Stage  string // "points" or "forecast"
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("weather %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("weather %s: %s", e.Stage, e.Reason)
}

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// Unwrap returns the underlying decode error, if any.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// NetworkError reports a failure to talk to the provider: transport errors,
// timeouts, 5xx/429 responses, or an open circuit breaker.
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("weather request %s: %v", e.URL, e.Err)
}

// Is reports whether target is ErrNetwork.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}
