package domain

import (
	"bytes"
	"encoding/json"
)

// LookupRequest is the transport-neutral input of a barcode lookup. Hosting
// adapters (Gin, Lambda, net/http) normalize their inbound request into it.
type LookupRequest struct {
	Barcode string
}

// LookupResponse is the transport-neutral result of a barcode lookup: an HTTP
// status code plus a JSON-serializable body (ErrorBody or ProductBody).
type LookupResponse struct {
	Status int
	Body   any
}

// ErrorBody is the error payload returned by every lookup surface.
//
// Detail is a pointer so an empty upstream body is still echoed as "".
type ErrorBody struct {
	Error  string  `json:"error" example:"Product not found"`
	Detail *string `json:"detail,omitempty" example:"rate limited"`
}

// ProductBody wraps the first matching upstream row, passed through verbatim.
type ProductBody struct {
	Product json.RawMessage `json:"product" swaggertype:"object"`
}

// NewErrorBody builds an ErrorBody without detail.
func NewErrorBody(msg string) ErrorBody { return ErrorBody{Error: msg} }

// NewErrorBodyDetail builds an ErrorBody carrying detail.
func NewErrorBodyDetail(msg, detail string) ErrorBody {
	return ErrorBody{Error: msg, Detail: &detail}
}

// MarshalBody encodes Body without HTML escaping, so characters such as '&'
// inside a product row leave the service as the backend sent them.
func (r LookupResponse) MarshalBody() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Body); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
