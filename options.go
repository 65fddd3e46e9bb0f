package chorus

import (
	"log/slog"
	"time"

	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/middleware"
	"github.com/chorus-lsp/chorus/pick"
	"github.com/chorus-lsp/chorus/protocol"
)

// Option configures a Hub during construction.
type Option func(*hubOptions)

type hubOptions struct {
	logger      *slog.Logger
	selector    pick.Selector
	applier     Applier
	encoding    protocol.OffsetEncoding
	lines       LineSource
	middlewares []middleware.Middleware
	dispatch    []dispatch.Option
}

// WithLogger sets the hub's slog logger. It is shared with the dispatcher
// and the default recovery middleware.
func WithLogger(l *slog.Logger) Option {
	return func(o *hubOptions) { o.logger = l }
}

// WithSelector sets the disambiguation collaborator. Without one, Multiple
// outcomes of driven operations end with no effect.
func WithSelector(s pick.Selector) Option {
	return func(o *hubOptions) { o.selector = s }
}

// WithApplier sets the effect collaborator. Without one, effects are
// dropped; plain (non-driven) operations are unaffected.
func WithApplier(a Applier) Option {
	return func(o *hubOptions) { o.applier = a }
}

// WithEncoding declares the offset encoding of positions handed to the hub
// (default utf-16).
func WithEncoding(enc protocol.OffsetEncoding) Option {
	return func(o *hubOptions) { o.encoding = enc }
}

// WithLineSource enables per-client position translation for clients whose
// offset encoding differs from the hub's.
func WithLineSource(ls LineSource) Option {
	return func(o *hubOptions) { o.lines = ls }
}

// WithMiddleware adds middleware around every outbound per-client request.
// Middleware is applied in order: the first is outermost (after the built-in
// recovery layer).
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *hubOptions) { o.middlewares = append(o.middlewares, mws...) }
}

// WithTimeout bounds each fan-out (default 5s).
func WithTimeout(t time.Duration) Option {
	return func(o *hubOptions) { o.dispatch = append(o.dispatch, dispatch.WithTimeout(t)) }
}

// WithMaxInFlight bounds concurrently outstanding per-client requests across
// all fan-outs. Zero or negative means unbounded.
func WithMaxInFlight(n int64) Option {
	return func(o *hubOptions) { o.dispatch = append(o.dispatch, dispatch.WithMaxInFlight(n)) }
}
