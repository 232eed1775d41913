// Package httpapi wires the Gin transport to the lookup service, middleware,
// and route handlers. It centralizes cross-cutting concerns: tracing,
// correlation IDs, redacted access logs, panic recovery, metrics, rate
// limiting, compression, CORS and security headers.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/barcode-lookup/docs"
	"github.com/tbourn/barcode-lookup/internal/config"
	"github.com/tbourn/barcode-lookup/internal/http/handlers"
	"github.com/tbourn/barcode-lookup/internal/http/middleware"
)

// maxBodyBytes caps request bodies. The lookup API takes none.
const maxBodyBytes = 64 << 10

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with credential masking
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per client IP)
//  8. Gzip, CORS and security headers
//
// The lookup endpoint is served at /lookup (the path serverless hosts expose)
// and aliased under cfg.APIBasePath.
func RegisterRoutes(r *gin.Engine, svc handlers.LookupService, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders:     []string{"X-API-Key"},
		KeepQueryParams: []string{"barcode"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	key := middleware.KeyByIP()
	if cfg.RateKeyHeader != "" {
		key = middleware.KeyByHeaderOrIP(cfg.RateKeyHeader)
	}
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, key)
	r.Use(rl.Handler())

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(cors.New(corsConfig(cfg.CORS)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:    cfg.Security.EnableHSTS,
		HSTSMaxAge:    cfg.Security.HSTSMaxAge,
		NoStore:       true,
		EnablePolicy:  true,
		ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svc)
	r.GET("/lookup", h.Lookup)
	if base := cfg.APIBasePath; base != "" && base != "/" {
		api := r.Group(base)
		api.GET("/lookup", h.Lookup)
	}
}

// corsConfig builds the gin-contrib/cors policy. With no allowlist every
// origin may call the read-only lookup endpoint; credentials are never
// allowed.
func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Accept", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cc
}

// limitBody caps the request body size using http.MaxBytesReader.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
