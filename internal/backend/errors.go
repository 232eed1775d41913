package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when the base URL or API key is empty.
	ErrNotConfigured = errors.New("backend: base URL or API key not configured")

	// ErrDecode is returned when a successful response is not valid JSON.
	ErrDecode = errors.New("backend: invalid JSON response")
)

// StatusError reports a non-2xx response. Body holds the raw response text,
// unparsed, so operators can see exactly what the backend said. Bodies over
// 4 MiB keep only their first 4 MiB and set Truncated.
type StatusError struct {
	StatusCode int
	Body       string
	Truncated  bool
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d", e.StatusCode)
}

// TransportError reports a failure to obtain a response at all (DNS,
// connection refused, timeout, truncated body).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "backend: request failed: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Detail returns the human-readable message surfaced to callers for err:
// the raw body for a StatusError, the underlying message otherwise.
func Detail(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Body
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Err.Error()
	}
	return err.Error()
}
