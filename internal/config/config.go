// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrBucketNameRequired is returned when BUCKET_NAME is not set.
	ErrBucketNameRequired = errors.New("config: BUCKET_NAME is required")
	// ErrIngestQueueRequired is returned when INGEST_QUEUE is not set.
	ErrIngestQueueRequired = errors.New("config: INGEST_QUEUE is required")
	// ErrRegionRequired is returned when AWS_REGION is not set for the consumer.
	ErrRegionRequired = errors.New("config: AWS_REGION is required")
)

// Object store backends.
const (
	StoreS3    = "s3"
	StoreMinio = "minio"
	StoreLocal = "local"
)

// Report key modes.
const (
	// KeyModeExtension names reports after the analyzed file extension.
	// Reports of different sources sharing an extension overwrite each other.
	KeyModeExtension = "extension"
	// KeyModeSource names reports after the source object key.
	KeyModeSource = "source"
)

// Common holds the settings shared by the producer and the consumer.
type Common struct {
	// Bucket settings. For the producer they describe the scanned location,
	// for the consumer the report destination.
	BucketName   string `env:"BUCKET_NAME, required" json:"bucket_name" validate:"required"`
	BucketPrefix string `env:"BUCKET_PREFIX" json:"bucket_prefix"`

	// Object store settings
	ObjectStore        string `env:"OBJECT_STORE, default=s3" json:"object_store" validate:"oneof=s3 minio local"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON
	MinioEndpoint      string `env:"MINIO_ENDPOINT" json:"minio_endpoint,omitempty" validate:"required_if=ObjectStore minio"`
	MinioUseSSL        bool   `env:"MINIO_USE_SSL, default=true" json:"minio_use_ssl"`
	LocalStoreDir      string `env:"LOCAL_STORE_DIR, default=/tmp/mediainfo-pipeline" json:"local_store_dir"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=json" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// ProducerConfig holds the configuration of the scanner Lambda.
type ProducerConfig struct {
	Common

	Region      string `env:"AWS_REGION" json:"region,omitempty"`
	IngestQueue string `env:"INGEST_QUEUE, required" json:"ingest_queue" validate:"required"`
	SQSEndpoint string `env:"SQS_ENDPOINT" json:"sqs_endpoint,omitempty"`

	// Extensions overrides the allow-list of analyzed file extensions.
	Extensions []string `env:"ANALYZE_EXTENSIONS" json:"extensions,omitempty" validate:"dive,startswith=."`
}

// ConsumerConfig holds the configuration of the analyzer Lambda.
type ConsumerConfig struct {
	Common

	Region string `env:"AWS_REGION, required" json:"region" validate:"required"`

	// MediaInfoPath is the location of the pre-installed MediaInfo binary.
	MediaInfoPath string        `env:"MEDIAINFO_PATH, default=/opt/bin/mediainfo" json:"mediainfo_path"`
	SignedURLTTL  time.Duration `env:"SIGNED_URL_TTL, default=300s" json:"signed_url_ttl" validate:"gt=0s"`

	ReportKeyMode string `env:"REPORT_KEY_MODE, default=extension" json:"report_key_mode" validate:"oneof=extension source"`
	// ReportWriteFailures lists records whose report write failed as
	// batchItemFailures so the event source mapping redelivers them.
	ReportWriteFailures bool `env:"REPORT_WRITE_FAILURES, default=false" json:"report_write_failures"`
}

// LoadProducer reads the producer configuration from environment variables.
func LoadProducer() (*ProducerConfig, error) {
	return LoadProducerFrom(envconfig.OsLookuper())
}

// LoadProducerFrom reads the producer configuration from the given lookuper.
func LoadProducerFrom(l envconfig.Lookuper) (*ProducerConfig, error) {
	cfg := &ProducerConfig{}
	if err := process(cfg, l); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConsumer reads the consumer configuration from environment variables.
func LoadConsumer() (*ConsumerConfig, error) {
	return LoadConsumerFrom(envconfig.OsLookuper())
}

// LoadConsumerFrom reads the consumer configuration from the given lookuper.
func LoadConsumerFrom(l envconfig.Lookuper) (*ConsumerConfig, error) {
	cfg := &ConsumerConfig{}
	if err := process(cfg, l); err != nil {
		return nil, err
	}
	return cfg, nil
}

func process(cfg any, l envconfig.Lookuper) error {
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: l,
	}); err != nil {
		// Map envconfig errors to our domain errors for required fields
		msg := err.Error()
		switch {
		case strings.Contains(msg, "BUCKET_NAME"):
			return ErrBucketNameRequired
		case strings.Contains(msg, "INGEST_QUEUE"):
			return ErrIngestQueueRequired
		case strings.Contains(msg, "AWS_REGION"):
			return ErrRegionRequired
		}
		return fmt.Errorf("config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for CloudWatch.
// Otherwise, it outputs human-readable text logs.
func (c *Common) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *ProducerConfig) String() string {
	return fmt.Sprintf(
		"ProducerConfig{BucketName: %s, BucketPrefix: %s, IngestQueue: %s, ObjectStore: %s, Region: %s, Extensions: %v, LogFormat: %s, LogLevel: %s}",
		c.BucketName,
		c.BucketPrefix,
		c.IngestQueue,
		c.ObjectStore,
		c.Region,
		c.Extensions,
		c.LogFormat,
		c.LogLevel,
	)
}

// String returns a string representation of the config with sensitive values masked.
func (c *ConsumerConfig) String() string {
	return fmt.Sprintf(
		"ConsumerConfig{BucketName: %s, BucketPrefix: %s, ObjectStore: %s, Region: %s, MediaInfoPath: %s, SignedURLTTL: %s, ReportKeyMode: %s, LogFormat: %s, LogLevel: %s}",
		c.BucketName,
		c.BucketPrefix,
		c.ObjectStore,
		c.Region,
		c.MediaInfoPath,
		c.SignedURLTTL,
		c.ReportKeyMode,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
