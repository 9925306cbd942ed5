// Package storage provides object store access for the pipeline.
// It defines the ObjectStore interface (port) and implementations for
// Amazon S3, MinIO and a local directory tree.
package storage

import (
	"context"
	"errors"
	"time"
)

// Static errors for object store operations.
var (
	// ErrNotFound is returned by List when the bucket (or the listing
	// location) does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidBucket is returned when a bucket name cannot be mapped to a
	// single storage location.
	ErrInvalidBucket = errors.New("storage: invalid bucket name")
)

// Object describes a single entry of a bucket listing.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore defines the object store operations used by the producer and
// the consumer.
type ObjectStore interface {
	// List walks every object under prefix in key order and calls fn for each
	// of them. Listings are paginated and never materialized in full.
	// Returns ErrNotFound (wrapped) when the bucket does not exist.
	// An error returned by fn stops the walk and is returned as is.
	List(ctx context.Context, bucket, prefix string, fn func(Object) error) error

	// PresignGet returns a URL granting read access to bucket/key for ttl.
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)

	// Put writes body to bucket/key, replacing any existing object.
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}
