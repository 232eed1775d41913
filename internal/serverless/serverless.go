// Package serverless adapts the lookup service to function hosts: AWS Lambda
// Function URLs and plain net/http handlers (Vercel-style functions). Both
// adapters only translate the inbound request into a domain.LookupRequest and
// the domain.LookupResponse back into the host's response type.
package serverless

import (
	"context"
	"net/http"

	"github.com/tbourn/barcode-lookup/internal/domain"
)

// LookupService resolves a barcode into a rendered lookup response.
// *services.LookupService satisfies it.
type LookupService interface {
	Handle(ctx context.Context, req domain.LookupRequest) domain.LookupResponse
}

// MsgMethodNotAllowed is the error returned for any method but GET.
const MsgMethodNotAllowed = "method not allowed"

const contentTypeJSON = "application/json; charset=utf-8"

// fallbackBody is written if a response body cannot be encoded.
const fallbackBody = `{"error":"Unexpected server error"}`

// methodNotAllowed is the response for non-GET requests.
func methodNotAllowed() domain.LookupResponse {
	return domain.LookupResponse{
		Status: http.StatusMethodNotAllowed,
		Body:   domain.NewErrorBody(MsgMethodNotAllowed),
	}
}

// encode serializes resp, degrading to a plain 500 when the body cannot be
// encoded.
func encode(resp domain.LookupResponse) (int, []byte) {
	b, err := resp.MarshalBody()
	if err != nil {
		return http.StatusInternalServerError, []byte(fallbackBody)
	}
	return resp.Status, b
}
