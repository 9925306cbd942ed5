// Package bootstrap wires the producer and consumer handlers from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/maauso/mediainfo-pipeline/internal/analyze"
	"github.com/maauso/mediainfo-pipeline/internal/config"
	"github.com/maauso/mediainfo-pipeline/internal/handler"
	"github.com/maauso/mediainfo-pipeline/internal/mediainfo"
	"github.com/maauso/mediainfo-pipeline/internal/queue"
	"github.com/maauso/mediainfo-pipeline/internal/scan"
	"github.com/maauso/mediainfo-pipeline/internal/storage"
)

// NewProducer creates the producer handler and its dependencies.
func NewProducer(ctx context.Context, cfg *config.ProducerConfig, logger *slog.Logger) (*handler.Producer, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.Region, &cfg.Common)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(awsCfg, cfg.Region, &cfg.Common, logger)
	if err != nil {
		return nil, err
	}

	var sqsOpts []func(*sqs.Options)
	if cfg.SQSEndpoint != "" {
		sqsOpts = append(sqsOpts, func(o *sqs.Options) {
			o.BaseEndpoint = aws.String(cfg.SQSEndpoint)
		})
	}
	publisher, err := queue.NewSQSPublisher(sqs.NewFromConfig(awsCfg, sqsOpts...), cfg.IngestQueue)
	if err != nil {
		return nil, fmt.Errorf("create SQS publisher: %w", err)
	}

	scanner := scan.NewScanner(store, publisher, scan.Config{
		Bucket:     cfg.BucketName,
		Prefix:     cfg.BucketPrefix,
		Extensions: cfg.Extensions,
	}, logger)

	return handler.NewProducer(scanner, logger), nil
}

// NewConsumer creates the consumer handler and its dependencies.
func NewConsumer(ctx context.Context, cfg *config.ConsumerConfig, logger *slog.Logger) (*handler.Consumer, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.Region, &cfg.Common)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(awsCfg, cfg.Region, &cfg.Common, logger)
	if err != nil {
		return nil, err
	}

	analyzer := mediainfo.NewCLIAnalyzer(cfg.MediaInfoPath)
	logger.Info("mediainfo analyzer configured", slog.String("path", cfg.MediaInfoPath))

	processor := analyze.NewProcessor(store, analyzer, analyze.Config{
		Bucket:       cfg.BucketName,
		Prefix:       cfg.BucketPrefix,
		KeyMode:      analyze.KeyMode(cfg.ReportKeyMode),
		SignedURLTTL: cfg.SignedURLTTL,
	}, logger)

	return handler.NewConsumer(processor, logger,
		handler.WithWriteFailureReporting(cfg.ReportWriteFailures),
	), nil
}

// loadAWSConfig loads the shared AWS configuration. Static credentials are
// used when both keys are set; otherwise the default chain applies.
func loadAWSConfig(ctx context.Context, region string, cfg *config.Common) (aws.Config, error) {
	var configOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(region))
	}

	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return awsCfg, nil
}

// initStorage creates the object store backend selected by configuration.
func initStorage(awsCfg aws.Config, region string, cfg *config.Common, logger *slog.Logger) (storage.ObjectStore, error) {
	switch cfg.ObjectStore {
	case config.StoreMinio:
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			Region:          region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			UseSSL:          cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("create MinIO storage: %w", err)
		}
		logger.Info("MinIO storage configured",
			slog.String("endpoint", cfg.MinioEndpoint),
			slog.Bool("ssl", cfg.MinioUseSSL),
		)
		return store, nil

	case config.StoreLocal:
		store, err := storage.NewLocalStore(cfg.LocalStoreDir)
		if err != nil {
			return nil, fmt.Errorf("create local storage: %w", err)
		}
		logger.Info("local storage configured", slog.String("root", store.Root()))
		return store, nil

	default:
		store := storage.NewS3Store(awsCfg, storage.S3Config{Endpoint: cfg.S3Endpoint})
		logger.Info("S3 storage configured",
			slog.String("region", awsCfg.Region),
			slog.String("endpoint", cfg.S3Endpoint),
		)
		return store, nil
	}
}
