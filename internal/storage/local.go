package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Compile-time check that LocalStore implements ObjectStore.
var _ ObjectStore = (*LocalStore)(nil)

// LocalStore implements ObjectStore on a local directory tree.
// Each bucket is a subdirectory of the root and object keys are
// slash-separated paths below it. Presigned URLs are plain file paths,
// which MediaInfo reads directly. Intended for local runs.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at root.
// If root is empty, a directory under os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "mediainfo-pipeline")
	}

	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	return &LocalStore{root: root}, nil
}

// Root returns the root directory of the store.
func (s *LocalStore) Root() string {
	return s.root
}

// List walks the bucket directory and calls fn for every file whose key
// starts with prefix, in lexicographic key order.
func (s *LocalStore) List(ctx context.Context, bucket, prefix string, fn func(Object) error) error {
	bucketDir, err := s.bucketDir(bucket)
	if err != nil {
		return err
	}
	if _, err := os.Stat(bucketDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("list %s/%s: %w", bucket, prefix, ErrNotFound)
		}
		return fmt.Errorf("list %s/%s: %w", bucket, prefix, err)
	}

	var objects []Object
	err = filepath.WalkDir(bucketDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(bucketDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("list %s/%s: %w", bucket, prefix, err)
	}

	// WalkDir orders per directory; S3 orders by full key.
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	for _, o := range objects {
		if err := fn(o); err != nil {
			return err
		}
	}
	return nil
}

// PresignGet returns the absolute path of bucket/key. The ttl is ignored.
func (s *LocalStore) PresignGet(ctx context.Context, bucket, key string, _ time.Duration) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	p, err := s.objectPath(bucket, key)
	if err != nil {
		return "", err
	}
	return filepath.Abs(p)
}

// Put writes body to bucket/key, creating intermediate directories.
func (s *LocalStore) Put(ctx context.Context, bucket, key string, body []byte, _ string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	p, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(p, body, 0600); err != nil {
		return fmt.Errorf("write object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// objectPath maps bucket/key to a path below root, rejecting keys that
// would escape the bucket directory.
func (s *LocalStore) objectPath(bucket, key string) (string, error) {
	bucketDir, err := s.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	p := filepath.Join(bucketDir, filepath.FromSlash(key))
	if !strings.HasPrefix(p, bucketDir+string(filepath.Separator)) {
		return "", fmt.Errorf("object key %q escapes bucket %q", key, bucket)
	}
	return p, nil
}

// bucketDir maps bucket to its directory, which must be a direct child of
// root.
func (s *LocalStore) bucketDir(bucket string) (string, error) {
	if bucket == "" || bucket == "." || bucket == ".." || strings.ContainsAny(bucket, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidBucket, bucket)
	}
	dir := filepath.Join(s.root, bucket)
	if filepath.Dir(dir) != filepath.Clean(s.root) {
		return "", fmt.Errorf("%w: %q", ErrInvalidBucket, bucket)
	}
	return dir, nil
}
