// Package services – LookupService
//
// This file implements LookupService, the single component behind every
// hosting surface. It validates the barcode, checks that the backend
// credentials are configured, performs one filtered read through a
// ProductFetcher, and maps the outcome onto the lookup contract:
//
//	400 {"error":"Missing barcode parameter"}
//	500 {"error":"Supabase environment variables not configured"}
//	500 {"error":"Supabase error","detail":<raw upstream body>}
//	500 {"error":"Unexpected server error","detail":<message>}
//	404 {"error":"Product not found"}
//	200 {"product":<first row>}
//
// Observability: Lookup is OpenTelemetry-instrumented and every outcome is
// counted in lookups_total.

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/barcode-lookup/internal/backend"
	"github.com/tbourn/barcode-lookup/internal/domain"
)

// ProductFetcher performs the filtered read against the backend.
// *backend.Client satisfies it.
type ProductFetcher interface {
	// Configured reports whether the backend URL and API key are both set.
	Configured() bool
	// FetchProducts returns all rows whose barcode equals the argument.
	FetchProducts(ctx context.Context, barcode string) ([]json.RawMessage, error)
}

// LookupService resolves a barcode to its first matching product row.
// It holds no mutable state and is safe for concurrent use.
type LookupService struct {
	fetcher ProductFetcher
}

// NewLookupService constructs a LookupService over f.
func NewLookupService(f ProductFetcher) *LookupService {
	return &LookupService{fetcher: f}
}

// Lookup returns the first row matching barcode verbatim.
//
// Errors:
//   - ErrMissingBarcode when barcode is blank (checked before anything else)
//   - ErrNotConfigured when credentials are missing (no call is made)
//   - ErrUpstream wrapping a backend.*StatusError, *TransportError or ErrDecode
//   - ErrProductNotFound when the backend returned no rows
//
// Rows beyond the first are discarded; barcode is assumed to identify at most
// one product.
func (s *LookupService) Lookup(ctx context.Context, barcode string) (json.RawMessage, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, ErrMissingBarcode
	}
	if s.fetcher == nil || !s.fetcher.Configured() {
		return nil, ErrNotConfigured
	}

	tr := otel.Tracer("services/LookupService")
	ctx, span := tr.Start(ctx, "Lookup",
		trace.WithAttributes(attribute.String("product.barcode", barcode)),
	)
	defer span.End()

	rows, err := s.fetcher.FetchProducts(ctx, barcode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend failure")
		if errors.Is(err, backend.ErrNotConfigured) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	span.SetAttributes(attribute.Int("lookup.rows", len(rows)))
	if len(rows) == 0 {
		return nil, ErrProductNotFound
	}
	return rows[0], nil
}

// Handle runs Lookup and renders the transport-neutral response. Unexpected
// failures (configuration and upstream) are logged through the logger found
// in ctx, falling back to the global logger.
func (s *LookupService) Handle(ctx context.Context, req domain.LookupRequest) domain.LookupResponse {
	product, err := s.Lookup(ctx, req.Barcode)
	resp := Render(product, err)
	lookupResults.WithLabelValues(resultLabel(err)).Inc()

	if resp.Status >= http.StatusInternalServerError {
		loggerFrom(ctx).Error().
			Err(err).
			Str("barcode", strings.TrimSpace(req.Barcode)).
			Int("status", resp.Status).
			Msg("lookup failed")
	}
	return resp
}

// Render maps a Lookup result onto the status code and JSON body of the
// lookup contract.
func Render(product json.RawMessage, err error) domain.LookupResponse {
	switch {
	case err == nil:
		return domain.LookupResponse{Status: http.StatusOK, Body: domain.ProductBody{Product: product}}
	case errors.Is(err, ErrMissingBarcode):
		return domain.LookupResponse{Status: http.StatusBadRequest, Body: domain.NewErrorBody(MsgMissingBarcode)}
	case errors.Is(err, ErrNotConfigured):
		return domain.LookupResponse{Status: http.StatusInternalServerError, Body: domain.NewErrorBody(MsgNotConfigured)}
	case errors.Is(err, ErrProductNotFound):
		return domain.LookupResponse{Status: http.StatusNotFound, Body: domain.NewErrorBody(MsgNotFound)}
	}

	var se *backend.StatusError
	if errors.As(err, &se) {
		return domain.LookupResponse{
			Status: http.StatusInternalServerError,
			Body:   domain.NewErrorBodyDetail(MsgUpstreamStatus, se.Body),
		}
	}
	return domain.LookupResponse{
		Status: http.StatusInternalServerError,
		Body:   domain.NewErrorBodyDetail(MsgUnexpected, strings.TrimPrefix(backend.Detail(err), ErrUpstream.Error()+": ")),
	}
}

// loggerFrom returns the zerolog logger attached to ctx, or the global one.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
