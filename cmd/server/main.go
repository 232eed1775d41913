// Package main boots the barcode lookup HTTP server.
//
// @title       Barcode Lookup API
// @version     1.0
// @description Read-only product lookup by barcode over a hosted REST backend.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/barcode-lookup/internal/backend"
	"github.com/tbourn/barcode-lookup/internal/config"
	httpapi "github.com/tbourn/barcode-lookup/internal/http"
	"github.com/tbourn/barcode-lookup/internal/observability"
	"github.com/tbourn/barcode-lookup/internal/services"
	"github.com/tbourn/barcode-lookup/internal/sysutil"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.Version())
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()

	if !cfg.Backend.Configured() {
		log.Warn().Msg("backend credentials missing; lookups will answer with a configuration error")
	}
	httpapi.RegisterRoutes(r, services.NewLookupService(backend.FromConfig(cfg.Backend)), cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("http_listen")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown_signal")

	ctxSrv, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxSrv); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	if err := shutdownOTel(ctxSrv); err != nil {
		log.Error().Err(err).Msg("otel shutdown error")
	}
	log.Info().Msg("service_stopped")
}
