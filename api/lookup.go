// Package handler is the Vercel-style serverless entry point: the host calls
// Handler for every request to /api/lookup.
package handler

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/barcode-lookup/internal/backend"
	"github.com/tbourn/barcode-lookup/internal/config"
	"github.com/tbourn/barcode-lookup/internal/serverless"
	"github.com/tbourn/barcode-lookup/internal/services"
	"github.com/tbourn/barcode-lookup/internal/sysutil"
)

var (
	once sync.Once
	h    http.Handler
)

// setup builds the handler once per warm instance. Invalid ambient settings
// are logged and the backend settings are still honored.
func setup() {
	cfg, err := config.Load()
	sysutil.SetupLogger(nil, cfg.LogLevel, false, cfg.OTEL.ServiceName)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
	}
	h = serverless.HTTPHandler(services.NewLookupService(backend.FromConfig(cfg.Backend)))
}

// Handler serves GET /api/lookup?barcode=<value>.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	h.ServeHTTP(w, r)
}
