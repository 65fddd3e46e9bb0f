package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Logging returns middleware that logs each outbound request's client,
// method, duration, and error.
func Logging(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, client, method string, params json.RawMessage) (json.RawMessage, error) {
			start := time.Now()
			result, err := next(ctx, client, method, params)
			duration := time.Since(start)

			attrs := []slog.Attr{
				slog.String("client", client),
				slog.String("method", method),
				slog.Duration("duration", duration),
			}
			if id := FanoutID(ctx); id != "" {
				attrs = append(attrs, slog.String("fanout", id))
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelWarn, "client request failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelDebug, "client request answered", attrs...)
			}

			return result, err
		}
	}
}
