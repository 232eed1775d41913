// Package main runs the barcode lookup behind an AWS Lambda Function URL.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/barcode-lookup/internal/backend"
	"github.com/tbourn/barcode-lookup/internal/config"
	"github.com/tbourn/barcode-lookup/internal/observability"
	"github.com/tbourn/barcode-lookup/internal/serverless"
	"github.com/tbourn/barcode-lookup/internal/services"
	"github.com/tbourn/barcode-lookup/internal/sysutil"
)

func main() {
	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, false, cfg.OTEL.ServiceName)

	if _, err := observability.SetupOTel(context.Background(), cfg.OTEL, sysutil.Version()); err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	svc := services.NewLookupService(backend.FromConfig(cfg.Backend))
	lambda.Start(serverless.NewLambda(svc, observability.ForceFlush).Invoke)
}
