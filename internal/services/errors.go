// Package services defines the business logic of the barcode lookup.
// This file centralizes the service-level error taxonomy so that hosting
// adapters can map outcomes to HTTP status codes consistently.
//
// Translation into user-facing messages or HTTP status codes is performed by
// LookupService.Handle; adapters never inspect these values themselves.
package services

import "errors"

// Lookup errors.
var (
	// ErrMissingBarcode indicates the barcode parameter was absent or blank.
	// Surfaced as 400; no configuration is read and no call is made.
	ErrMissingBarcode = errors.New("missing barcode parameter")

	// ErrNotConfigured indicates the backend URL or API key is unset. It is a
	// deployment defect, surfaced as 500 and never retried.
	ErrNotConfigured = errors.New("backend environment variables not configured")

	// ErrUpstream wraps every backend failure: a non-success status, a
	// transport failure, or an undecodable body. Surfaced as 500.
	ErrUpstream = errors.New("upstream request failed")

	// ErrProductNotFound indicates a valid query that matched no rows.
	// Surfaced as 404; it is an expected outcome, not an upstream failure.
	ErrProductNotFound = errors.New("product not found")
)

// User-visible messages of the lookup contract.
const (
	MsgMissingBarcode = "Missing barcode parameter"
	MsgNotConfigured  = "Supabase environment variables not configured"
	MsgUpstreamStatus = "Supabase error"
	MsgUnexpected     = "Unexpected server error"
	MsgNotFound       = "Product not found"
)
