// Package middleware provides composable middleware for the chorus outbound
// request path. Middleware wraps the per-client send, so cross-cutting
// concerns like logging, panic recovery, and correlation apply uniformly to
// every request a fan-out issues, regardless of which client it targets.
package middleware

import (
	"context"
	"encoding/json"
)

// Handler performs one outbound request against one client and returns the
// raw result. client is the stable client ID from the registry.
type Handler func(ctx context.Context, client, method string, params json.RawMessage) (json.RawMessage, error)

// Middleware wraps a Handler to add cross-cutting behavior.
type Middleware func(Handler) Handler

// Chain composes multiple middleware into a single middleware.
// Middleware is applied in the order given: the first middleware in the slice
// is the outermost wrapper (executes first).
func Chain(mws ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
