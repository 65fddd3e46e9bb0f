package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/chorus-lsp/chorus/protocol"
)

// Recovery returns middleware that recovers from panics further down the
// chain (a transport bug, a misbehaving inner middleware), logs the stack
// trace, and converts the panic into a per-client protocol error so the rest
// of the fan-out survives.
func Recovery(logger ...*slog.Logger) Middleware {
	var log *slog.Logger
	if len(logger) > 0 && logger[0] != nil {
		log = logger[0]
	} else {
		log = slog.Default()
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, client, method string, params json.RawMessage) (result json.RawMessage, err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := debug.Stack()
					log.Error("panic recovered in outbound request",
						"client", client,
						"method", method,
						"panic", fmt.Sprint(r),
						"stack", string(stack),
					)
					result = nil
					err = &protocol.ResponseError{
						Code:    protocol.CodeInternalError,
						Message: fmt.Sprintf("internal error: %v", r),
					}
				}
			}()
			return next(ctx, client, method, params)
		}
	}
}
