package serverless

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"

	"github.com/tbourn/barcode-lookup/internal/domain"
	"github.com/tbourn/barcode-lookup/internal/services"
)

// recorder captures the request handed to the service.
type recorder struct {
	seen   []domain.LookupRequest
	ctxLog bool
	resp   domain.LookupResponse
}

func (r *recorder) Handle(ctx context.Context, req domain.LookupRequest) domain.LookupResponse {
	r.seen = append(r.seen, req)
	r.ctxLog = zerolog.Ctx(ctx).GetLevel() != zerolog.Disabled
	return r.resp
}

type fetcher struct {
	configured bool
	rows       []json.RawMessage
	err        error
}

func (f fetcher) Configured() bool { return f.configured }

func (f fetcher) FetchProducts(context.Context, string) ([]json.RawMessage, error) {
	return f.rows, f.err
}

func okResponse() domain.LookupResponse {
	return domain.LookupResponse{Status: http.StatusOK, Body: domain.ProductBody{Product: json.RawMessage(`{"barcode":"1"}`)}}
}

func urlRequest(method string, params map[string]string, raw string) events.LambdaFunctionURLRequest {
	req := events.LambdaFunctionURLRequest{
		RawPath:               "/",
		RawQueryString:        raw,
		QueryStringParameters: params,
		Headers:               map[string]string{},
	}
	req.RequestContext.HTTP.Method = method
	req.RequestContext.RequestID = "url-req-1"
	return req
}

func TestLambda_ReadsQueryParameters(t *testing.T) {
	rec := &recorder{resp: okResponse()}
	l := NewLambda(rec, nil)

	out, err := l.Invoke(context.Background(), urlRequest(http.MethodGet, map[string]string{"barcode": "012345678905"}, "barcode=ignored"))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out.StatusCode != http.StatusOK || out.Body != `{"product":{"barcode":"1"}}` {
		t.Fatalf("response = %d %s", out.StatusCode, out.Body)
	}
	if out.Headers["Content-Type"] != contentTypeJSON {
		t.Fatalf("content-type = %q", out.Headers["Content-Type"])
	}
	if len(rec.seen) != 1 || rec.seen[0].Barcode != "012345678905" {
		t.Fatalf("seen = %+v", rec.seen)
	}
	if !rec.ctxLog {
		t.Fatalf("invocation logger should be attached to ctx")
	}
}

func TestLambda_RawQueryFallback(t *testing.T) {
	rec := &recorder{resp: okResponse()}
	l := NewLambda(rec, nil)

	_, _ = l.Invoke(context.Background(), urlRequest(http.MethodGet, nil, "barcode=a%20b%26c&x=1"))
	_, _ = l.Invoke(context.Background(), urlRequest("", nil, ""))
	_, _ = l.Invoke(context.Background(), urlRequest(http.MethodGet, nil, "%zz"))
	_, _ = l.Invoke(context.Background(), urlRequest(http.MethodGet, nil, "barcode=12%"))
	_, _ = l.Invoke(context.Background(), urlRequest(http.MethodGet, map[string]string{"other": "1"}, "other=1&barcode=9%"))

	want := []string{"a b&c", "", "", "12%", "9%"}
	if len(rec.seen) != len(want) {
		t.Fatalf("seen = %+v", rec.seen)
	}
	for i, w := range want {
		if rec.seen[i].Barcode != w {
			t.Fatalf("call %d: barcode %q; want %q", i, rec.seen[i].Barcode, w)
		}
	}
}

func TestLambda_MethodNotAllowed(t *testing.T) {
	rec := &recorder{resp: okResponse()}
	l := NewLambda(rec, nil)

	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions} {
		out, err := l.Invoke(context.Background(), urlRequest(m, map[string]string{"barcode": "1"}, ""))
		if err != nil {
			t.Fatalf("Invoke: %v", err)
		}
		if out.StatusCode != http.StatusMethodNotAllowed || out.Body != `{"error":"method not allowed"}` {
			t.Fatalf("%s: %d %s", m, out.StatusCode, out.Body)
		}
	}
	if len(rec.seen) != 0 {
		t.Fatalf("service must not be called for non-GET, seen %+v", rec.seen)
	}
}

func TestLambda_ContractWithRealService(t *testing.T) {
	cases := []struct {
		name   string
		f      fetcher
		params map[string]string
		status int
		body   string
	}{
		{"found", fetcher{configured: true, rows: []json.RawMessage{json.RawMessage(`{"a":1}`), json.RawMessage(`{"a":2}`)}},
			map[string]string{"barcode": "1"}, 200, `{"product":{"a":1}}`},
		{"missing", fetcher{configured: true}, nil, 400, `{"error":"Missing barcode parameter"}`},
		{"blank", fetcher{configured: true}, map[string]string{"barcode": "  "}, 400, `{"error":"Missing barcode parameter"}`},
		{"not configured", fetcher{}, map[string]string{"barcode": "1"}, 500, `{"error":"Supabase environment variables not configured"}`},
		{"not found", fetcher{configured: true}, map[string]string{"barcode": "1"}, 404, `{"error":"Product not found"}`},
		{"transport", fetcher{configured: true, err: errors.New("dial tcp: refused")}, map[string]string{"barcode": "1"}, 500,
			`{"error":"Unexpected server error","detail":"dial tcp: refused"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLambda(services.NewLookupService(tc.f), nil)
			out, err := l.Invoke(context.Background(), urlRequest(http.MethodGet, tc.params, ""))
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			if out.StatusCode != tc.status || out.Body != tc.body {
				t.Fatalf("got %d %s; want %d %s", out.StatusCode, out.Body, tc.status, tc.body)
			}
		})
	}
}

func TestLambda_FlushRunsEveryInvocation(t *testing.T) {
	calls := 0
	l := NewLambda(&recorder{resp: okResponse()}, func(context.Context) error {
		calls++
		return errors.New("collector down")
	})
	_, _ = l.Invoke(context.Background(), urlRequest(http.MethodGet, nil, ""))
	_, err := l.Invoke(context.Background(), urlRequest(http.MethodPost, nil, ""))
	if err != nil {
		t.Fatalf("flush errors must not fail the invocation: %v", err)
	}
	if calls != 2 {
		t.Fatalf("flush calls = %d; want 2", calls)
	}
}

func TestInvocationID(t *testing.T) {
	req := urlRequest(http.MethodGet, nil, "")
	if got := invocationID(context.Background(), req); got != "url-req-1" {
		t.Fatalf("fallback id = %q", got)
	}
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "aws-1"})
	if got := invocationID(ctx, req); got != "aws-1" {
		t.Fatalf("lambda id = %q", got)
	}
}

func TestHTTPHandler(t *testing.T) {
	rec := &recorder{resp: okResponse()}
	h := HTTPHandler(rec)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/lookup?barcode=a%20b", nil)
	req.Header.Set(requestIDHeader, "rid-1")
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != `{"product":{"barcode":"1"}}` {
		t.Fatalf("GET: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != contentTypeJSON || w.Header().Get(requestIDHeader) != "rid-1" {
		t.Fatalf("headers: %v", w.Header())
	}
	if len(rec.seen) != 1 || rec.seen[0].Barcode != "a b" || !rec.ctxLog {
		t.Fatalf("seen = %+v ctxLog=%v", rec.seen, rec.ctxLog)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/lookup?barcode=1", nil))
	if w.Code != http.StatusMethodNotAllowed || w.Body.String() != `{"error":"method not allowed"}` || w.Header().Get("Allow") != "GET" {
		t.Fatalf("POST: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("generated request id missing")
	}
	if len(rec.seen) != 1 {
		t.Fatalf("service called for POST")
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/lookup?barcode=12%", nil))
	if w.Code != http.StatusOK || len(rec.seen) != 2 || rec.seen[1].Barcode != "12%" {
		t.Fatalf("malformed escape: %d seen=%+v", w.Code, rec.seen)
	}
}

func TestEncode_FallbackOnUnencodableBody(t *testing.T) {
	status, body := encode(domain.LookupResponse{Status: 200, Body: make(chan int)})
	if status != http.StatusInternalServerError || string(body) != fallbackBody {
		t.Fatalf("encode = %d %s", status, body)
	}
}
