// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers used across endpoints. Every error
// leaves the service in the same shape as a lookup failure, so browser and
// script clients only need to understand one envelope:
//
//	HTTP/1.1 404 Not Found
//	{ "error": "Product not found" }
//
//	HTTP/1.1 500 Internal Server Error
//	{ "error": "Supabase error", "detail": "rate limited" }
//
// `fail()` centralizes error logging and formatting, ensuring 5xx responses
// are logged with request context for observability.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/barcode-lookup/internal/domain"
	"github.com/tbourn/barcode-lookup/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints.
//
// This alias is referenced by the Swagger annotations.
type ErrorResponse = domain.ErrorBody

// ProductResponse is the success envelope of the lookup endpoint.
type ProductResponse = domain.ProductBody

// fail aborts the request with an error envelope and logs server-side errors.
//
// code is a stable, machine-readable tag (see errors.go) that is only written
// to logs; the response body carries the human-readable message.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, domain.NewErrorBody(msg))
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a JSON response with the given status. HTML characters are not
// escaped so upstream rows are echoed unchanged.
func ok(c *gin.Context, status int, body any) {
	c.PureJSON(status, body)
}
