package serverless

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/barcode-lookup/internal/domain"
)

const requestIDHeader = "X-Request-ID"

// HTTPHandler returns a net/http handler serving lookups, for hosts that
// invoke a plain func(http.ResponseWriter, *http.Request).
func HTTPHandler(svc LookupService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := otel.Tracer("serverless/http").Start(ctx, "http.lookup", trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		rid := r.Header.Get(requestIDHeader)
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		lg := log.With().Str("request_id", rid).Str("method", r.Method).Str("path", r.URL.Path).Logger()
		ctx = lg.WithContext(ctx)

		var resp domain.LookupResponse
		if r.Method == http.MethodGet {
			resp = svc.Handle(ctx, domain.LookupRequest{Barcode: domain.BarcodeFromQuery(r.URL.RawQuery)})
		} else {
			w.Header().Set("Allow", http.MethodGet)
			resp = methodNotAllowed()
		}

		status, body := encode(resp)
		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set(requestIDHeader, rid)
		w.WriteHeader(status)
		_, _ = w.Write(body)
		lg.Info().Int("status", status).Msg("lookup")
	})
}
