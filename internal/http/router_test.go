package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/barcode-lookup/internal/config"
	"github.com/tbourn/barcode-lookup/internal/domain"
	"github.com/tbourn/barcode-lookup/internal/services"
)

// stubFetcher serves a fixed row set for barcode "1" and nothing otherwise.
type stubFetcher struct {
	configured bool
}

func (s stubFetcher) Configured() bool { return s.configured }

func (s stubFetcher) FetchProducts(_ context.Context, barcode string) ([]json.RawMessage, error) {
	if barcode == "1" {
		return []json.RawMessage{json.RawMessage(`{"barcode":"1","name":"Pils"}`)}, nil
	}
	return nil, nil
}

type panicService struct{}

func (panicService) Handle(context.Context, domain.LookupRequest) domain.LookupResponse {
	panic("boom")
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   100,
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, cfg config.Config, svc interface {
	Handle(context.Context, domain.LookupRequest) domain.LookupResponse
}) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, svc, cfg)
	return r
}

func do(r http.Handler, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
	return m
}

func TestRegisterRoutes_LookupContract(t *testing.T) {
	r := newRouter(t, testConfig(), services.NewLookupService(stubFetcher{configured: true}))

	cases := []struct {
		target string
		status int
		body   string
	}{
		{"/lookup?barcode=1", http.StatusOK, `{"product":{"barcode":"1","name":"Pils"}}`},
		{"/api/v1/lookup?barcode=1", http.StatusOK, `{"product":{"barcode":"1","name":"Pils"}}`},
		{"/lookup?barcode=2", http.StatusNotFound, `{"error":"Product not found"}`},
		{"/lookup", http.StatusBadRequest, `{"error":"Missing barcode parameter"}`},
		{"/lookup?barcode=", http.StatusBadRequest, `{"error":"Missing barcode parameter"}`},
	}
	for _, tc := range cases {
		w := do(r, http.MethodGet, tc.target, nil)
		if w.Code != tc.status {
			t.Fatalf("%s: status = %d; want %d", tc.target, w.Code, tc.status)
		}
		if got := strings.TrimSpace(w.Body.String()); got != tc.body {
			t.Fatalf("%s: body = %s; want %s", tc.target, got, tc.body)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Fatalf("%s: content-type = %q", tc.target, ct)
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s: missing X-Request-ID", tc.target)
		}
		if w.Header().Get("Cache-Control") != "no-store" {
			t.Fatalf("%s: lookup answers must not be cached", tc.target)
		}
	}
}

func TestRegisterRoutes_NotConfigured(t *testing.T) {
	r := newRouter(t, testConfig(), services.NewLookupService(stubFetcher{configured: false}))
	w := do(r, http.MethodGet, "/lookup?barcode=1", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode(t, w)["error"]; got != "Supabase environment variables not configured" {
		t.Fatalf("error = %v", got)
	}
}

func TestRegisterRoutes_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, testConfig(), services.NewLookupService(stubFetcher{configured: true}))

	if w := do(r, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}

	w := do(r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	w = do(r, http.MethodGet, "/nope", nil)
	if w.Code != http.StatusNotFound || decode(t, w)["error"] != "route not found" {
		t.Fatalf("NoRoute: %d %s", w.Code, w.Body.String())
	}

	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		w = do(r, m, "/lookup?barcode=1", nil)
		if w.Code != http.StatusMethodNotAllowed || decode(t, w)["error"] != "method not allowed" {
			t.Fatalf("%s /lookup: %d %s", m, w.Code, w.Body.String())
		}
	}

	// Swagger is off unless enabled.
	if w = do(r, http.MethodGet, "/swagger/index.html", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_Swagger(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r := newRouter(t, cfg, services.NewLookupService(stubFetcher{configured: true}))

	w := do(r, http.MethodGet, "/swagger/doc.json", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/lookup") {
		t.Fatalf("swagger doc: %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_RootBasePathDoesNotDuplicate(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/"
	r := newRouter(t, cfg, services.NewLookupService(stubFetcher{configured: true}))
	if w := do(r, http.MethodGet, "/lookup?barcode=1", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRegisterRoutes_CORS(t *testing.T) {
	t.Run("allow all", func(t *testing.T) {
		r := newRouter(t, testConfig(), services.NewLookupService(stubFetcher{configured: true}))
		w := do(r, http.MethodGet, "/lookup?barcode=1", map[string]string{"Origin": "https://shop.example"})
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("ACAO = %q", got)
		}
		if got := w.Header().Get("Access-Control-Allow-Credentials"); got == "true" {
			t.Fatalf("credentials must not be allowed")
		}
	})

	t.Run("allowlist", func(t *testing.T) {
		cfg := testConfig()
		cfg.CORS.AllowedOrigins = []string{"https://ok.example"}
		r := newRouter(t, cfg, services.NewLookupService(stubFetcher{configured: true}))

		w := do(r, http.MethodGet, "/lookup?barcode=1", map[string]string{"Origin": "https://ok.example"})
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ok.example" {
			t.Fatalf("ACAO = %q", got)
		}
		w = do(r, http.MethodGet, "/lookup?barcode=1", map[string]string{"Origin": "https://evil.example"})
		if w.Code != http.StatusForbidden {
			t.Fatalf("disallowed origin = %d", w.Code)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		r := newRouter(t, testConfig(), services.NewLookupService(stubFetcher{configured: true}))
		w := do(r, http.MethodOptions, "/lookup", map[string]string{
			"Origin":                        "https://shop.example",
			"Access-Control-Request-Method": "GET",
		})
		if w.Code != http.StatusNoContent {
			t.Fatalf("preflight = %d", w.Code)
		}
	})
}

func TestRegisterRoutes_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := newRouter(t, cfg, services.NewLookupService(stubFetcher{configured: true}))

	if w := do(r, http.MethodGet, "/lookup?barcode=1", nil); w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	w := do(r, http.MethodGet, "/lookup?barcode=1", nil)
	if w.Code != http.StatusTooManyRequests || decode(t, w)["error"] != "rate limit exceeded" {
		t.Fatalf("second = %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_RateLimitKeyHeader(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	cfg.RateKeyHeader = "X-Consumer-ID"
	r := newRouter(t, cfg, services.NewLookupService(stubFetcher{configured: true}))

	// Same client IP, distinct consumers: each gets its own bucket.
	for _, id := range []string{"shop-a", "shop-b"} {
		if w := do(r, http.MethodGet, "/lookup?barcode=1", map[string]string{"X-Consumer-ID": id}); w.Code != http.StatusOK {
			t.Fatalf("%s first = %d", id, w.Code)
		}
	}
	if w := do(r, http.MethodGet, "/lookup?barcode=1", map[string]string{"X-Consumer-ID": "shop-a"}); w.Code != http.StatusTooManyRequests {
		t.Fatalf("shop-a second = %d", w.Code)
	}
	// Without the header the IP bucket applies, separate from the consumer buckets.
	if w := do(r, http.MethodGet, "/lookup?barcode=1", nil); w.Code != http.StatusOK {
		t.Fatalf("ip first = %d", w.Code)
	}
}

func TestRegisterRoutes_PanicRecovered(t *testing.T) {
	r := newRouter(t, testConfig(), panicService{})
	w := do(r, http.MethodGet, "/lookup?barcode=1", nil)
	if w.Code != http.StatusInternalServerError || decode(t, w)["error"] != "Unexpected server error" {
		t.Fatalf("panic: %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_Gzip(t *testing.T) {
	r := newRouter(t, testConfig(), services.NewLookupService(stubFetcher{configured: true}))
	w := do(r, http.MethodGet, "/lookup?barcode=1", map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("gzip: %d %q", w.Code, w.Header().Get("Content-Encoding"))
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(5))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("123456"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("limitBody did not trigger: %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("123"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("limitBody blocked a small body: %d", w.Code)
	}
}
