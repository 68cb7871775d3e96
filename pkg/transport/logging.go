package transport

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that emits structured log entries for each
// streamed turn. The log entry includes the thread ID, duration, request
// ID (from context), and whether the turn succeeded or failed.
//
// Note: The HTTP method and path are not available at the TurnStreamer
// level. For full HTTP-level logging (including status codes), use
// HTTP-level middleware in the adapter.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next TurnStreamer) TurnStreamer {
		return TurnStreamerFunc(func(ctx context.Context, threadID, message string, w DeltaWriter) error {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			err := next.StreamTurn(ctx, threadID, message, w)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("thread_id", threadID),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "turn failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "turn completed", attrs...)
			}

			return err
		})
	}
}
