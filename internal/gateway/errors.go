package gateway

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means the instance id or token is missing.
var ErrNotConfigured = errors.New("messaging gateway credentials not configured")

// TransportError wraps network failures, timeouts and an open circuit.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("messaging gateway transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectedError is returned when the gateway answers but does not report the
// message as sent. Payload holds the decoded gateway response, if any.
type RejectedError struct {
	StatusCode int
	Reason     string
	Payload    map[string]interface{}
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("messaging gateway rejected message (status %d): %s", e.StatusCode, e.Reason)
}
