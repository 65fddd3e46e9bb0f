package middleware

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

type fanoutIDKey struct{}

// WithFanoutID stamps the context with a fresh correlation ID. The dispatcher
// calls this once per fan-out so every per-client request in the same logical
// operation shares one ID in logs and metrics.
func WithFanoutID(ctx context.Context) context.Context {
	return context.WithValue(ctx, fanoutIDKey{}, uuid.NewString())
}

// FanoutID returns the fan-out correlation ID from the context, if set.
func FanoutID(ctx context.Context) string {
	if v, ok := ctx.Value(fanoutIDKey{}).(string); ok {
		return v
	}
	return ""
}

// Tracing returns middleware that ensures every outbound request carries a
// fan-out correlation ID, generating one if the dispatcher did not.
func Tracing() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, client, method string, params json.RawMessage) (json.RawMessage, error) {
			if FanoutID(ctx) == "" {
				ctx = WithFanoutID(ctx)
			}
			return next(ctx, client, method, params)
		}
	}
}
