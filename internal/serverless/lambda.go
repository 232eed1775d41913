package serverless

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/barcode-lookup/internal/domain"
)

// Lambda serves lookups behind an AWS Lambda Function URL.
type Lambda struct {
	Service LookupService
	// Flush, when set, runs after every invocation (before the host may
	// freeze the process), typically to export buffered spans.
	Flush func(context.Context) error
}

// NewLambda returns a Lambda adapter over svc.
func NewLambda(svc LookupService, flush func(context.Context) error) *Lambda {
	return &Lambda{Service: svc, Flush: flush}
}

// Invoke handles one Function URL event. It never returns an error: every
// outcome, including bad input, is an HTTP response.
func (l *Lambda) Invoke(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(req.Headers))
	ctx, span := otel.Tracer("serverless/lambda").Start(ctx, "lambda.lookup",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("http.request.method", req.RequestContext.HTTP.Method)),
	)
	defer func() {
		span.End()
		if l.Flush != nil {
			if err := l.Flush(ctx); err != nil {
				log.Warn().Err(err).Msg("flush after invocation failed")
			}
		}
	}()

	lg := log.With().Str("request_id", invocationID(ctx, req)).Str("path", req.RawPath).Logger()
	ctx = lg.WithContext(ctx)

	var resp domain.LookupResponse
	switch req.RequestContext.HTTP.Method {
	case http.MethodGet, "":
		resp = l.Service.Handle(ctx, domain.LookupRequest{Barcode: lambdaBarcode(req)})
	default:
		resp = methodNotAllowed()
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))

	status, body := encode(resp)
	lg.Info().Int("status", status).Msg("lookup")
	return events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": contentTypeJSON},
		Body:       string(body),
	}, nil
}

// lambdaBarcode reads the barcode from the parsed parameters, falling back to
// the raw query string when the host did not populate them.
func lambdaBarcode(req events.LambdaFunctionURLRequest) string {
	if v, ok := req.QueryStringParameters[domain.BarcodeParam]; ok {
		return v
	}
	return domain.BarcodeFromQuery(req.RawQueryString)
}

// invocationID prefers the Lambda request ID, then the Function URL's own.
func invocationID(ctx context.Context, req events.LambdaFunctionURLRequest) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return req.RequestContext.RequestID
}
