package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Compile-time check that MinioStore implements ObjectStore.
var _ ObjectStore = (*MinioStore)(nil)

// MinioConfig holds the configuration for a MinIO (or other S3-compatible)
// object store.
type MinioConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// MinioStore implements ObjectStore with the MinIO client.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore creates a new MinioStore. Setting Region avoids the bucket
// location lookup on every request.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{client: cli}, nil
}

// List walks the bucket recursively under prefix.
func (s *MinioStore) List(ctx context.Context, bucket, prefix string, fn func(Object) error) error {
	// Cancelling stops the listing goroutine when fn aborts the walk.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for info := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			if isMinioNotFound(info.Err) {
				return fmt.Errorf("list %s/%s: %w", bucket, prefix, ErrNotFound)
			}
			return fmt.Errorf("list %s/%s: %w", bucket, prefix, info.Err)
		}
		if err := fn(Object{
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
		}); err != nil {
			return err
		}
	}
	return nil
}

// PresignGet returns a presigned GET URL valid for ttl.
func (s *MinioStore) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, key, err)
	}
	return u.String(), nil
}

// Put uploads body to bucket/key.
func (s *MinioStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound
}
