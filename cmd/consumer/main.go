// Package main provides the Lambda entry point for the MediaInfo analyzer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"github.com/maauso/mediainfo-pipeline/internal/bootstrap"
	"github.com/maauso/mediainfo-pipeline/internal/config"
	"github.com/maauso/mediainfo-pipeline/internal/handler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is only expected for local runs
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadConsumer()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting mediainfo consumer",
		slog.String("config", cfg.String()),
	)

	h, err := bootstrap.NewConsumer(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	chain := handler.Chain(
		handler.Logging[events.SQSEvent](logger, "consumer"),
		handler.Recovery[events.SQSEvent](logger),
	)
	lambda.Start(chain(h.Handle))
	return nil
}
