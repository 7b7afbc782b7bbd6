// internal/logger/errors.go

package logger

import (
	"errors"
	"fmt"
)

// ErrConsoleUnavailable is returned by NewConsoleLogger on targets without
// a process console.
var ErrConsoleUnavailable = errors.New("console logger is not available on this platform")

// SerializationError reports that a batch could not be encoded.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization failed: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// TransportError reports that the destination could not be reached or
// written to.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("transport failed: %v", e.Err)
	}
	return fmt.Sprintf("transport to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DeliveryError reports a non-success HTTP status from the remote service.
// Body holds a bounded excerpt of the response body.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("delivery rejected with status %d", e.StatusCode)
	}
	return fmt.Sprintf("delivery rejected with status %d: %s", e.StatusCode, e.Body)
}

// Kind returns a short label for the send error category, or "unknown".
func Kind(err error) string {
	var serErr *SerializationError
	var trErr *TransportError
	var delErr *DeliveryError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &serErr):
		return "serialization"
	case errors.As(err, &trErr):
		return "transport"
	case errors.As(err, &delErr):
		return "delivery"
	default:
		return "unknown"
	}
}
