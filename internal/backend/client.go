// Package backend is a minimal client for the hosted relational backend's REST
// row-query interface (PostgREST dialect). It issues exactly one filtered read
// per lookup against the "products" resource and classifies the outcome into
// rows, a non-success status, a transport failure, or an undecodable body.
//
// The client never retries unless Options.Retries is positive; the default
// matches the behavior of a single outbound call per inbound request.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// productsPath is the REST resource queried for product rows.
	productsPath = "/rest/v1/products"
	// maxBodyBytes caps how much of an upstream body is read into memory.
	// Longer bodies are cut to this size and flagged as truncated.
	maxBodyBytes = 4 << 20

	tracerName = "github.com/tbourn/barcode-lookup/internal/backend"
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration // per-attempt timeout; 0 keeps HTTPClient's own
	Retries      int           // extra attempts after the first; 0 disables retry
	RetryBackoff time.Duration // initial exponential backoff interval
	HTTPClient   *http.Client  // optional; a fresh client is used when nil
}

// Client queries the products resource. It is safe for concurrent use.
type Client struct {
	baseURL      string
	apiKey       string
	http         *http.Client
	retries      int
	retryBackoff time.Duration
	tracer       trace.Tracer
}

// New builds a Client from opts. Trailing slashes on BaseURL are removed so
// the resource path can be appended without producing "//".
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if opts.Timeout > 0 {
		cp := *hc
		cp.Timeout = opts.Timeout
		hc = &cp
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		apiKey:       strings.TrimSpace(opts.APIKey),
		http:         hc,
		retries:      retries,
		retryBackoff: opts.RetryBackoff,
		tracer:       otel.Tracer(tracerName),
	}
}

// Configured reports whether both the base URL and API key are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// ProductsURL returns the filtered read URL for barcode:
//
//	{base}/rest/v1/products?barcode=eq.{encoded}&select=*
//
// The barcode is percent-encoded as a query component, with spaces as %20.
func (c *Client) ProductsURL(barcode string) string {
	return c.baseURL + productsPath + "?barcode=eq." + EncodeQueryValue(barcode) + "&select=*"
}

// EncodeQueryValue percent-encodes v for use inside a query string value.
// Reserved characters such as '&', '=', '#', '/' and '+' are always escaped.
func EncodeQueryValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// FetchProducts performs the filtered read for barcode and returns the decoded
// rows. A successful response whose body is valid JSON but not an array yields
// zero rows. Errors are *StatusError, *TransportError, or wrap ErrDecode.
func (c *Client) FetchProducts(ctx context.Context, barcode string) ([]json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, span := c.tracer.Start(ctx, "backend.fetch_products",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("product.barcode", barcode),
			attribute.Int("backend.retry_budget", c.retries),
		),
	)
	defer span.End()

	target := c.ProductsURL(barcode)

	var (
		rows []json.RawMessage
		err  error
	)
	if c.retries == 0 {
		rows, err = c.fetchOnce(ctx, target)
	} else {
		rows, err = c.fetchWithRetry(ctx, target)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("backend.rows", len(rows)))
	return rows, nil
}

// fetchWithRetry retries transport failures and 5xx responses with
// exponential backoff, for at most retries+1 attempts in total.
func (c *Client) fetchWithRetry(ctx context.Context, target string) ([]json.RawMessage, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryBackoff

	attempt := 0
	op := func() ([]json.RawMessage, error) {
		attempt++
		rows, err := c.fetchOnce(ctx, target)
		if err == nil {
			return rows, nil
		}
		if !Retryable(err) {
			return nil, backoff.Permanent(err)
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("backend attempt failed, retrying")
		return nil, err
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.retries+1)),
	)
}

// fetchOnce issues a single GET and classifies the response.
func (c *Client) fetchOnce(ctx context.Context, target string) ([]json.RawMessage, error) {
	start := time.Now()
	rows, outcome, err := c.do(ctx, target)
	upstreamLat.Observe(time.Since(start).Seconds())
	upstreamReqs.WithLabelValues(outcome).Inc()
	return rows, err
}

func (c *Client) do(ctx context.Context, target string) ([]json.RawMessage, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, outcomeTransport, &TransportError{Err: err}
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, outcomeTransport, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, outcomeTransport, &TransportError{Err: err}
	}
	truncated := len(raw) > maxBodyBytes
	if truncated {
		raw = raw[:maxBodyBytes]
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("backend.body_truncated", true))
		log.Warn().Int("status", resp.StatusCode).Int("limit_bytes", maxBodyBytes).Msg("backend body truncated")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, outcomeStatus, &StatusError{StatusCode: resp.StatusCode, Body: string(raw), Truncated: truncated}
	}

	rows, err := decodeRows(raw)
	if err != nil {
		return nil, outcomeDecode, err
	}
	if len(rows) == 0 {
		return rows, outcomeEmpty, nil
	}
	return rows, outcomeRows, nil
}

// decodeRows decodes a JSON array of rows. Valid JSON that is not an array
// (object, null, scalar) decodes to zero rows.
func decodeRows(raw []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return rows, nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil, nil
}

// Retryable reports whether err is worth another attempt: transport failures
// (other than caller cancellation) and 5xx responses. Every 4xx, 429
// included, is permanent.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	return false
}
