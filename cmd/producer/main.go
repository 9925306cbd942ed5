// Package main provides the Lambda entry point for the media scanner.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

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

	cfg, err := config.LoadProducer()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting mediainfo producer",
		slog.String("config", cfg.String()),
	)

	h, err := bootstrap.NewProducer(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	chain := handler.Chain(
		handler.Logging[json.RawMessage](logger, "producer"),
		handler.Recovery[json.RawMessage](logger),
	)
	lambda.Start(chain(h.Handle))
	return nil
}
