package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Compile-time check that S3Store implements ObjectStore.
var _ ObjectStore = (*S3Store)(nil)

// S3Config holds the configuration for S3 storage.
type S3Config struct {
	Endpoint string // Optional: for custom S3-compatible endpoints
}

// S3Store implements ObjectStore on top of the AWS SDK S3 client.
// Presigned URLs use SigV4 and virtual-hosted-style addressing unless a
// custom endpoint forces path style.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
}

// NewS3Store creates a new S3Store from an already loaded AWS configuration.
// The region of awsCfg is the one URLs are signed for.
func NewS3Store(awsCfg aws.Config, cfg S3Config) *S3Store {
	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
	}
}

// List pages through ListObjectsV2 and calls fn for every object.
func (s *S3Store) List(ctx context.Context, bucket, prefix string, fn func(Object) error) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isS3NotFound(err) {
				return fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, ErrNotFound)
			}
			return fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
		}

		for _, obj := range page.Contents {
			o := Object{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				o.LastModified = *obj.LastModified
			}
			if err := fn(o); err != nil {
				return err
			}
		}
	}

	return nil
}

// PresignGet returns a presigned GetObject URL valid for ttl.
func (s *S3Store) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign s3://%s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

// Put uploads body to bucket/key.
func (s *S3Store) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// isS3NotFound reports whether err is a missing bucket or a plain 404.
func isS3NotFound(err error) bool {
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NotFound", "404":
			return true
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}
