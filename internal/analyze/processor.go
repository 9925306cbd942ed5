// Package analyze runs MediaInfo against queued objects and stores the
// resulting reports.
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/maauso/mediainfo-pipeline/internal/mediainfo"
	"github.com/maauso/mediainfo-pipeline/internal/queue"
	"github.com/maauso/mediainfo-pipeline/internal/storage"
)

// KeyMode selects how report keys are derived.
type KeyMode string

const (
	// KeyModeExtension names the report after the file extension MediaInfo
	// detected. Sources sharing an extension overwrite each other's report.
	KeyModeExtension KeyMode = "extension"
	// KeyModeSource names the report after the source object key.
	KeyModeSource KeyMode = "source"
)

const (
	// DefaultSignedURLTTL is how long presigned source URLs stay valid.
	DefaultSignedURLTTL = 300 * time.Second

	reportSuffix      = ".mediainfo.json"
	reportContentType = "application/json"
	unknownExtension  = "unknown"
)

// Config holds the report destination and analysis settings.
type Config struct {
	// Bucket receives the reports.
	Bucket string
	// Prefix is prepended to every report key.
	Prefix string
	// KeyMode defaults to KeyModeExtension.
	KeyMode KeyMode
	// SignedURLTTL defaults to DefaultSignedURLTTL.
	SignedURLTTL time.Duration
}

// ItemResult is the result of one processed record. Err holds a report
// write failure; the record is otherwise complete.
type ItemResult struct {
	MessageID string
	Request   queue.AnalysisRequest
	ReportKey string
	Err       error
}

// BatchOutcome lists the results of a batch in record order.
type BatchOutcome struct {
	Items []ItemResult
}

// Failed returns the items whose report could not be written.
func (o BatchOutcome) Failed() []ItemResult {
	var failed []ItemResult
	for _, it := range o.Items {
		if it.Err != nil {
			failed = append(failed, it)
		}
	}
	return failed
}

// Processor analyzes the objects referenced by queue messages.
type Processor struct {
	store    storage.ObjectStore
	analyzer mediainfo.Analyzer
	logger   *slog.Logger
	cfg      Config
}

// NewProcessor creates a new Processor. The same store serves presigning
// and report writes.
func NewProcessor(store storage.ObjectStore, analyzer mediainfo.Analyzer, cfg Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.KeyMode == "" {
		cfg.KeyMode = KeyModeExtension
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = DefaultSignedURLTTL
	}
	return &Processor{
		store:    store,
		analyzer: analyzer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Destination returns the report location as s3://bucket/prefix.
func (p *Processor) Destination() string {
	return fmt.Sprintf("s3://%s/%s", p.cfg.Bucket, p.cfg.Prefix)
}

// ProcessBatch processes the records of event one at a time, in order.
// The first fatal error stops the batch; the outcome then holds the records
// completed before it.
func (p *Processor) ProcessBatch(ctx context.Context, event events.SQSEvent) (BatchOutcome, error) {
	var out BatchOutcome
	for _, msg := range event.Records {
		item, err := p.ProcessRecord(ctx, msg)
		if err != nil {
			return out, fmt.Errorf("process message %s: %w", msg.MessageId, err)
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// ProcessRecord analyzes the object referenced by msg and writes its report.
// Decoding, presigning, analysis and a report without tracks are fatal and
// returned as errors. A failed report write is logged and returned in
// ItemResult.Err.
func (p *Processor) ProcessRecord(ctx context.Context, msg events.SQSMessage) (ItemResult, error) {
	item := ItemResult{MessageID: msg.MessageId}

	logger := p.logger.With(slog.String("message_id", msg.MessageId))
	if attr, ok := msg.MessageAttributes[queue.AttrScanID]; ok && attr.StringValue != nil {
		logger = logger.With(slog.String("scan_id", *attr.StringValue))
	}

	req, err := queue.Decode([]byte(msg.Body))
	if err != nil {
		return item, err
	}
	item.Request = req
	logger = logger.With(slog.String("bucket", req.Bucket), slog.String("key", req.Key))

	url, err := p.store.PresignGet(ctx, req.Bucket, req.Key, p.cfg.SignedURLTTL)
	if err != nil {
		return item, fmt.Errorf("presign %s: %w", req, err)
	}

	start := time.Now()
	report, err := p.analyzer.Analyze(ctx, url)
	if err != nil {
		return item, fmt.Errorf("analyze %s: %w", req, err)
	}

	summary, err := report.Summary()
	if err != nil {
		return item, fmt.Errorf("read report for %s: %w", req, err)
	}
	logger.Info("media analyzed",
		slog.String("complete_name", summary.CompleteName),
		slog.String("file_extension", summary.FileExtension),
		slog.String("internet_media_type", summary.InternetMediaType),
		slog.Int("tracks", len(report.Tracks)),
		slog.Duration("duration", time.Since(start)),
	)

	item.ReportKey = ReportKey(p.cfg.Prefix, p.cfg.KeyMode, req.Key, summary.FileExtension)
	if err := p.store.Put(ctx, p.cfg.Bucket, item.ReportKey, report.JSON(), reportContentType); err != nil {
		logger.Error("failed to write report",
			slog.String("report_key", item.ReportKey),
			slog.String("error", err.Error()),
		)
		item.Err = err
		return item, nil
	}

	logger.Info("report written",
		slog.String("report_bucket", p.cfg.Bucket),
		slog.String("report_key", item.ReportKey),
	)
	return item, nil
}

// ReportKey builds the destination key of a report.
//
//	extension mode: <prefix>/<ext>.mediainfo.json
//	source mode:    <prefix>/<source key>.mediainfo.json
//
// An empty prefix yields the bare name and an empty extension becomes
// "unknown".
func ReportKey(prefix string, mode KeyMode, sourceKey, fileExtension string) string {
	name := fileExtension
	if mode == KeyModeSource {
		name = sourceKey
	} else if name == "" {
		name = unknownExtension
	}
	name += reportSuffix

	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
