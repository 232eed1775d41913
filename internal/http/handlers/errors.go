// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These codes are attached to server-side log lines written by `fail()` so
// operators can aggregate failures without parsing human-readable messages.
// The response body itself only carries the message (see response.go).
//
// Conventions:
//   - Codes are lowercase, snake_case, and mirror HTTP status semantics.
//   - Lookup outcomes are rendered by services.Render and do not use these.

package handlers

const (
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
