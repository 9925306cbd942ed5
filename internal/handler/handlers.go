package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/maauso/mediainfo-pipeline/internal/analyze"
	"github.com/maauso/mediainfo-pipeline/internal/scan"
)

// Response messages.
const (
	messageScanDone     = "Batch MediaInfo run successfully"
	messageNoMatches    = "No media objects matched under s3://%s/%s"
	messageAnalysisDone = "MediaInfo ran successfully with results saved to %s"
)

// ScanRunner runs one scan of the configured location.
type ScanRunner interface {
	Run(ctx context.Context) (scan.Outcome, error)
	Bucket() string
	Prefix() string
}

// BatchProcessor analyzes the records of an SQS event.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, event events.SQSEvent) (analyze.BatchOutcome, error)
	Destination() string
}

// Producer handles scheduled or manual producer invocations.
type Producer struct {
	scanner ScanRunner
	logger  *slog.Logger
}

// NewProducer creates a new Producer handler.
func NewProducer(scanner ScanRunner, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{scanner: scanner, logger: logger}
}

// Handle runs one full scan. The trigger payload is ignored.
func (h *Producer) Handle(ctx context.Context, _ json.RawMessage) (Response, error) {
	out, err := h.scanner.Run(ctx)
	if err != nil {
		return Response{}, err
	}

	if len(out.Failures) > 0 {
		h.logger.Warn("some analysis requests were not queued",
			slog.String("scan_id", out.ScanID),
			slog.Int("failed", len(out.Failures)),
			slog.Int("published", out.Published),
		)
	}

	if out.NoMatches() {
		return newResponse(fmt.Sprintf(messageNoMatches, h.scanner.Bucket(), h.scanner.Prefix())), nil
	}
	return newResponse(messageScanDone), nil
}

// ConsumerOption is a function that configures a Consumer.
type ConsumerOption func(*Consumer)

// WithWriteFailureReporting makes the consumer return records whose report
// could not be written as batch item failures, so the trigger redelivers them.
func WithWriteFailureReporting(enabled bool) ConsumerOption {
	return func(h *Consumer) {
		h.reportFailures = enabled
	}
}

// Consumer handles SQS batches of analysis requests.
type Consumer struct {
	processor      BatchProcessor
	logger         *slog.Logger
	reportFailures bool
}

// NewConsumer creates a new Consumer handler.
func NewConsumer(processor BatchProcessor, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Consumer{processor: processor, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes every record of event. Any fatal record error fails the
// whole invocation.
func (h *Consumer) Handle(ctx context.Context, event events.SQSEvent) (Response, error) {
	out, err := h.processor.ProcessBatch(ctx, event)
	if err != nil {
		return Response{}, err
	}

	resp := newResponse(fmt.Sprintf(messageAnalysisDone, h.processor.Destination()))

	failed := out.Failed()
	if len(failed) == 0 {
		return resp, nil
	}
	if !h.reportFailures {
		h.logger.Warn("reports not written",
			slog.Int("failed", len(failed)),
			slog.Int("records", len(event.Records)),
		)
		return resp, nil
	}

	for _, it := range failed {
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
			ItemIdentifier: it.MessageID,
		})
	}
	return resp, nil
}
