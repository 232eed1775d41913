// Package main runs a local stand-in for the hosted products backend, backed
// by SQLite. Point BACKEND_URL at it (http://localhost:$DEV_PORT) and use the
// same BACKEND_API_KEY on both sides.
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

	"github.com/tbourn/barcode-lookup/internal/config"
	"github.com/tbourn/barcode-lookup/internal/devbackend"
	"github.com/tbourn/barcode-lookup/internal/observability"
	"github.com/tbourn/barcode-lookup/internal/repo"
	"github.com/tbourn/barcode-lookup/internal/sysutil"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName+"-devbackend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.Version())
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DevBackend.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DevBackend.DBPath).Msg("open sqlite")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("automigrate")
	}
	if p := cfg.DevBackend.SeedPath; p != "" {
		n, err := repo.SeedProductsFromFile(ctx, db, p)
		if err != nil {
			log.Fatal().Err(err).Str("path", p).Msg("seed products")
		}
		log.Info().Int("products", n).Str("path", p).Msg("seeded")
	}
	if cfg.Backend.APIKey == "" {
		log.Warn().Msg("BACKEND_API_KEY is empty; every request will be rejected")
	}

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.DevBackend.Port),
		Handler:           devbackend.NewEngine(devbackend.New(db, cfg.Backend.APIKey), cfg.OTEL.ServiceName+"-devbackend"),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("db", cfg.DevBackend.DBPath).Msg("devbackend_listen")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	ctxSrv, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxSrv); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = shutdownOTel(ctxSrv)
	log.Info().Msg("devbackend_stopped")
}
