package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

// ErrPanic wraps a value recovered from a panicking handler.
var ErrPanic = errors.New("handler: panic recovered")

// HandlerFunc is a Lambda handler taking an event of type E.
type HandlerFunc[E any] func(ctx context.Context, event E) (Response, error)

// Middleware decorates a HandlerFunc.
type Middleware[E any] func(HandlerFunc[E]) HandlerFunc[E]

// Logging logs every invocation with its request ID, duration and result.
func Logging[E any](logger *slog.Logger, function string) Middleware[E] {
	return func(next HandlerFunc[E]) HandlerFunc[E] {
		return func(ctx context.Context, event E) (Response, error) {
			start := time.Now()

			attrs := []any{slog.String("function", function)}
			if lc, ok := lambdacontext.FromContext(ctx); ok {
				attrs = append(attrs, slog.String("request_id", lc.AwsRequestID))
			}

			resp, err := next(ctx, event)

			attrs = append(attrs, slog.Duration("duration", time.Since(start)))
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.Error("invocation failed", attrs...)
				return resp, err
			}
			attrs = append(attrs,
				slog.Int("status", resp.StatusCode),
				slog.Int("batch_item_failures", len(resp.BatchItemFailures)),
			)
			logger.Info("invocation completed", attrs...)
			return resp, nil
		}
	}
}

// Recovery turns a panic in the handler into an ErrPanic error.
func Recovery[E any](logger *slog.Logger) Middleware[E] {
	return func(next HandlerFunc[E]) HandlerFunc[E] {
		return func(ctx context.Context, event E) (resp Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered",
						slog.Any("error", r),
						slog.String("stack", string(debug.Stack())),
					)
					resp, err = Response{}, fmt.Errorf("%w: %v", ErrPanic, r)
				}
			}()
			return next(ctx, event)
		}
	}
}

// Chain chains multiple middleware functions together. The first one is
// the outermost.
func Chain[E any](middlewares ...Middleware[E]) Middleware[E] {
	return func(final HandlerFunc[E]) HandlerFunc[E] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
