// Package scan enumerates media objects in a bucket and queues one analysis
// request per object whose extension is on the allow-list.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/maauso/mediainfo-pipeline/internal/queue"
	"github.com/maauso/mediainfo-pipeline/internal/scan/id"
	"github.com/maauso/mediainfo-pipeline/internal/storage"
)

// DefaultExtensions is the allow-list used when none is configured.
var DefaultExtensions = []string{".mp4", ".mxf", ".mov", ".wav", ".stl", ".scc"}

// Config holds the scan target and filter.
type Config struct {
	// Bucket is the bucket to scan. Requests reference this bucket.
	Bucket string
	// Prefix restricts the scan to keys starting with it.
	Prefix string
	// Extensions is the allow-list, dot included. Empty uses DefaultExtensions.
	Extensions []string
}

// PublishFailure records a key whose request could not be queued.
type PublishFailure struct {
	Key string
	Err error
}

// Outcome summarizes a single scan.
type Outcome struct {
	ScanID    string
	Listed    int
	Matched   int
	Published int
	Failures  []PublishFailure
}

// NoMatches reports whether objects were listed but none were on the allow-list.
func (o Outcome) NoMatches() bool {
	return o.Listed > 0 && o.Matched == 0
}

// Scanner runs scans against an object store and publishes to a queue.
type Scanner struct {
	store      storage.ObjectStore
	publisher  queue.Publisher
	logger     *slog.Logger
	bucket     string
	prefix     string
	extensions map[string]struct{}
	newID      func() string
}

// NewScanner creates a new Scanner.
func NewScanner(store storage.ObjectStore, publisher queue.Publisher, cfg Config, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allowed[e] = struct{}{}
	}
	return &Scanner{
		store:      store,
		publisher:  publisher,
		logger:     logger,
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		extensions: allowed,
		newID:      id.Generate,
	}
}

// Bucket returns the scanned bucket.
func (s *Scanner) Bucket() string { return s.bucket }

// Prefix returns the scanned prefix.
func (s *Scanner) Prefix() string { return s.prefix }

// Matches reports whether key has an allow-listed extension.
// The comparison is case-sensitive.
func (s *Scanner) Matches(key string) bool {
	ext := Extension(key)
	if ext == "" {
		return false
	}
	_, ok := s.extensions[ext]
	return ok
}

// Run lists every object under the configured prefix, then publishes one
// request per matching key, in listing order. Nothing is published unless
// the listing completes. Publish failures are recorded in the outcome and
// do not stop the scan. A missing bucket counts as an empty listing; any
// other listing error is returned.
func (s *Scanner) Run(ctx context.Context) (Outcome, error) {
	out := Outcome{ScanID: s.newID()}
	logger := s.logger.With(
		slog.String("scan_id", out.ScanID),
		slog.String("bucket", s.bucket),
		slog.String("prefix", s.prefix),
	)
	logger.Info("starting scan")

	var keys []string
	err := s.store.List(ctx, s.bucket, s.prefix, func(obj storage.Object) error {
		out.Listed++
		if !s.Matches(obj.Key) {
			logger.Debug("skipping object", slog.String("key", obj.Key))
			return nil
		}
		keys = append(keys, obj.Key)
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Info("scan target not found, nothing to do", slog.String("error", err.Error()))
			return out, nil
		}
		return out, fmt.Errorf("scan s3://%s/%s: %w", s.bucket, s.prefix, err)
	}
	out.Matched = len(keys)

	attrs := map[string]string{queue.AttrScanID: out.ScanID}
	for _, key := range keys {
		req := queue.AnalysisRequest{Bucket: s.bucket, Key: key}
		msgID, err := s.publisher.Publish(ctx, req, attrs)
		if err != nil {
			logger.Error("failed to queue analysis request",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			out.Failures = append(out.Failures, PublishFailure{Key: key, Err: err})
			continue
		}
		out.Published++
		logger.Debug("queued analysis request",
			slog.String("key", key),
			slog.String("message_id", msgID),
		)
	}

	switch {
	case out.Listed == 0:
		logger.Info("no objects found")
	case out.Matched == 0:
		logger.Error("no media objects matched",
			slog.Int("listed", out.Listed),
			slog.String("extensions", strings.Join(s.allowList(), ",")),
		)
	default:
		logger.Info("scan completed",
			slog.Int("listed", out.Listed),
			slog.Int("matched", out.Matched),
			slog.Int("published", out.Published),
			slog.Int("failed", len(out.Failures)),
		)
	}
	return out, nil
}

func (s *Scanner) allowList() []string {
	exts := make([]string, 0, len(s.extensions))
	for e := range s.extensions {
		exts = append(exts, e)
	}
	slices.Sort(exts)
	return exts
}

// Extension returns the extension of the last path segment of key, dot
// included, or "" if it has none. Leading dots do not start an extension,
// so ".mp4" and "videos/.hidden" have none.
func Extension(key string) string {
	base := key[strings.LastIndex(key, "/")+1:]
	trimmed := strings.TrimLeft(base, ".")
	i := strings.LastIndex(trimmed, ".")
	if i < 0 {
		return ""
	}
	return trimmed[i:]
}
