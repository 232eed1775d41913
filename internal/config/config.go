// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, rate limiting, observability, the backend REST credentials used by
// the lookup service, and the settings of the local dev backend.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "barcode-lookup")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// BackendConfig holds the credentials and call policy for the hosted REST
// backend that stores product rows.
//
// URL and APIKey are deliberately not validated by Load: a deployment missing
// them still boots and answers every lookup with a configuration error.
type BackendConfig struct {
	URL          string        // BACKEND_URL (fallback SUPABASE_URL)
	APIKey       string        // BACKEND_API_KEY (fallback SUPABASE_ANON_KEY)
	Timeout      time.Duration // BACKEND_TIMEOUT
	Retries      int           // BACKEND_RETRIES, 0 means a single attempt
	RetryBackoff time.Duration // BACKEND_RETRY_BACKOFF, initial backoff interval
}

// Configured reports whether both backend secrets are present.
func (b BackendConfig) Configured() bool {
	return strings.TrimSpace(b.URL) != "" && strings.TrimSpace(b.APIKey) != ""
}

// DevBackendConfig configures the local SQLite stand-in for the backend.
type DevBackendConfig struct {
	Port     string // DEV_PORT
	DBPath   string // DEV_DB_PATH
	SeedPath string // DEV_SEED_PATH, optional JSON array of products
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for the versioned API alias

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// RateKeyHeader, when set, keys rate limiting by this request header
	// (e.g. an API gateway consumer ID) and falls back to the client IP.
	RateKeyHeader string

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Upstream
	Backend BackendConfig

	// Local development
	DevBackend DevBackendConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Rate limiting
		RateRPS:       getfloat("RATE_RPS", 20.0),
		RateBurst:     getint("RATE_BURST", 40),
		RateKeyHeader: strings.TrimSpace(getenv("RATE_KEY_HEADER", "")),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Upstream
		Backend: BackendConfig{
			URL:          firstEnv("BACKEND_URL", "SUPABASE_URL"),
			APIKey:       firstEnv("BACKEND_API_KEY", "SUPABASE_ANON_KEY"),
			Timeout:      getdur("BACKEND_TIMEOUT", 10*time.Second),
			Retries:      getint("BACKEND_RETRIES", 0),
			RetryBackoff: getdur("BACKEND_RETRY_BACKOFF", 200*time.Millisecond),
		},

		// Local development
		DevBackend: DevBackendConfig{
			Port:     getenv("DEV_PORT", "54321"),
			DBPath:   getenv("DEV_DB_PATH", "devbackend.db"),
			SeedPath: getenv("DEV_SEED_PATH", ""),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "barcode-lookup"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.Backend.URL = strings.TrimSpace(cfg.Backend.URL)
	cfg.Backend.APIKey = strings.TrimSpace(cfg.Backend.APIKey)

	return cfg, cfg.Validate()
}

// Validate checks every setting except the backend secrets.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.LogLevel,
			validation.Required.Error("LOG_LEVEL must not be empty"),
			validation.In("debug", "info", "warn", "error", "fatal", "panic").
				Error("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"),
		),
		validation.Field(&c.Port,
			validation.By(notBlank("PORT must not be empty")),
			is.Port.Error("PORT must be a valid port number"),
		),
		validation.Field(&c.ReadTimeout, positive("timeouts must be positive durations")...),
		validation.Field(&c.ReadHeaderTimeout, positive("timeouts must be positive durations")...),
		validation.Field(&c.WriteTimeout, positive("timeouts must be positive durations")...),
		validation.Field(&c.IdleTimeout, positive("timeouts must be positive durations")...),
		validation.Field(&c.MaxHeaderBytes, positive("MAX_HEADER_BYTES must be > 0")...),
		validation.Field(&c.RateRPS, validation.Min(0.0).Error("RATE_RPS must be >= 0")),
		validation.Field(&c.RateBurst, positive("RATE_BURST must be >= 1")...),
		validation.Field(&c.Security, validation.By(func(v interface{}) error {
			sc, _ := v.(SecurityConfig)
			if sc.HSTSMaxAge < 0 {
				return validation.NewError("validation_hsts_max_age", "HSTS_MAX_AGE must be >= 0")
			}
			return nil
		})),
		validation.Field(&c.Backend, validation.By(func(v interface{}) error {
			bc, _ := v.(BackendConfig)
			return validation.ValidateStruct(&bc,
				validation.Field(&bc.Timeout, positive("BACKEND_TIMEOUT must be > 0")...),
				validation.Field(&bc.Retries, validation.Min(0).Error("BACKEND_RETRIES must be >= 0")),
				validation.Field(&bc.RetryBackoff, validation.Min(time.Duration(0)).Error("BACKEND_RETRY_BACKOFF must be >= 0")),
			)
		})),
		validation.Field(&c.DevBackend, validation.By(func(v interface{}) error {
			dc, _ := v.(DevBackendConfig)
			if strings.TrimSpace(dc.DBPath) == "" {
				return validation.NewError("validation_dev_db_path", "DEV_DB_PATH must not be empty")
			}
			return nil
		})),
		validation.Field(&c.OTEL, validation.By(func(v interface{}) error {
			oc, _ := v.(OTELConfig)
			if oc.SampleRatio < 0 || oc.SampleRatio > 1 {
				return validation.NewError("validation_sample_ratio", "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
			}
			return nil
		})),
	)
}

// positive requires a non-zero value of at least 1 (or 1ns for durations).
// Min alone would let the zero value through.
func positive(msg string) []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(msg),
		validation.By(func(v interface{}) error {
			switch n := v.(type) {
			case int:
				if n < 1 {
					return validation.NewError("validation_positive", msg)
				}
			case time.Duration:
				if n <= 0 {
					return validation.NewError("validation_positive", msg)
				}
			}
			return nil
		}),
	}
}

// notBlank rejects strings that are empty after trimming.
func notBlank(msg string) validation.RuleFunc {
	return func(v interface{}) error {
		s, _ := v.(string)
		if strings.TrimSpace(s) == "" {
			return validation.NewError("validation_blank", msg)
		}
		return nil
	}
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

// firstEnv returns the value of the first non-empty variable among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
