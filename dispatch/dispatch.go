// Package dispatch implements concurrent fan-out of one logical request to a
// set of protocol clients. It owns no connections: a consumed Transport
// performs the per-client exchange, and the dispatcher contributes the
// concurrency, the single-fire completion contract, and deterministic
// registration-order reporting of results.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/chorus-lsp/chorus/middleware"
	"github.com/chorus-lsp/chorus/protocol"
)

// Client is an opaque handle to a protocol peer. Implementations are owned by
// a registry; the dispatcher only borrows references for the duration of one
// fan-out and never mutates them.
type Client interface {
	// ID is a stable identifier unique within the registry.
	ID() string
	// Name is a human-readable label ("gopls", "golangci-lint-ls").
	Name() string
	// Supports reports whether the client declared the capability backing
	// the given method.
	Supports(method string) bool
	// Encoding is the offset encoding the client negotiated.
	Encoding() protocol.OffsetEncoding
}

// ErrClientGone is returned by a Transport when the target client was
// deregistered before it answered. The dispatcher treats it as "no response"
// rather than a failure: the client simply produces no entry.
var ErrClientGone = errors.New("client deregistered before responding")

// Transport performs one blocking request exchange with one client. The
// dispatcher provides the fan-out concurrency around it. A *protocol.
// ResponseError return is a protocol-level failure from the peer; any other
// error is treated as an internal transport failure except ErrClientGone.
type Transport interface {
	Call(ctx context.Context, client Client, method string, params json.RawMessage) (json.RawMessage, error)
}

// Envelope describes one logical request. Params is evaluated once per
// client, because capabilities and offset encodings vary per client; it must
// be pure. A nil Params sends the request without parameters. Envelopes are
// immutable once constructed.
type Envelope struct {
	Method string
	Params func(c Client) (any, error)
}

// Response is the answer of a single client within one fan-out. Exactly one
// Response exists per client that answered; deregistered clients produce
// none. Result may be nil or JSON null for an empty-but-successful answer,
// which is distinct from Err being set.
type Response struct {
	Client Client
	// Index is the client's position in the registration-ordered candidate
	// set, not its arrival position. Tie-breaks key off this.
	Index  int
	Result json.RawMessage
	Err    *protocol.ResponseError
}

// Failed reports whether the client returned a protocol-level error.
func (r Response) Failed() bool { return r.Err != nil }

// Dispatcher fans requests out to candidate clients.
type Dispatcher struct {
	transport Transport
	invoke    middleware.Handler
	sem       *semaphore.Weighted
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMiddleware adds middleware around every outbound per-client request.
// Middleware is applied in order: the first is outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(d *Dispatcher) {
		d.invoke = middleware.Chain(mws...)(d.invoke)
	}
}

// WithMaxInFlight bounds the number of concurrently outstanding per-client
// requests across all fan-outs. Zero or negative means unbounded.
func WithMaxInFlight(n int64) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithTimeout sets the deadline for the synchronous Call variant
// (default 5s).
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = t }
}

// WithLogger sets the dispatcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a Dispatcher sending through the given transport.
func New(t Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: t,
		timeout:   5 * time.Second,
		logger:    slog.Default(),
	}
	d.invoke = d.send
	for _, o := range opts {
		o(d)
	}
	return d
}

// send is the innermost handler; middleware wraps it. The concrete Client is
// resolved by the caller and threaded through clientSlot on the context,
// since middleware only sees the ID.
func (d *Dispatcher) send(ctx context.Context, _ string, method string, params json.RawMessage) (json.RawMessage, error) {
	c, _ := ctx.Value(clientSlot{}).(Client)
	return d.transport.Call(ctx, c, method, params)
}

type clientSlot struct{}

// Go sends the envelope to every candidate concurrently and invokes done
// exactly once, after all candidates have answered or dropped out. done
// receives the responses sorted by registration order regardless of arrival
// order; no partial invocation happens mid-flight. The candidate slice is
// snapshotted and never mutated.
func (d *Dispatcher) Go(ctx context.Context, clients []Client, env Envelope, done func([]Response)) {
	snapshot := make([]Client, len(clients))
	copy(snapshot, clients)

	ctx = middleware.WithFanoutID(ctx)
	results := make(chan *Response, len(snapshot))

	for i, c := range snapshot {
		go func(idx int, c Client) {
			results <- d.one(ctx, idx, c, env)
		}(i, c)
	}

	go func() {
		collected := make([]Response, 0, len(snapshot))
		for range snapshot {
			if r := <-results; r != nil {
				collected = append(collected, *r)
			}
		}
		sort.Slice(collected, func(i, j int) bool {
			return collected[i].Index < collected[j].Index
		})
		done(collected)
	}()
}

// Call is the synchronous variant of Go, bounded by the configured timeout.
// Clients that have not answered when the deadline passes produce no entry.
func (d *Dispatcher) Call(ctx context.Context, clients []Client, env Envelope) []Response {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	ch := make(chan []Response, 1)
	d.Go(ctx, clients, env, func(rs []Response) { ch <- rs })
	return <-ch
}

// one performs the exchange with a single client. A nil return means the
// client contributes no entry (deregistered mid-flight, or the context
// expired before it answered). A panic anywhere in the exchange, the params
// factory included, is contained as that client's internal error; it must
// never unwind the fan-out goroutine.
func (d *Dispatcher) one(ctx context.Context, idx int, c Client, env Envelope) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in fan-out request",
				"client", c.ID(),
				"method", env.Method,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			resp = &Response{Client: c, Index: idx, Err: &protocol.ResponseError{
				Code:    protocol.CodeInternalError,
				Message: fmt.Sprintf("internal error: %v", r),
			}}
		}
	}()

	if d.sem != nil {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			return nil
		}
		defer d.sem.Release(1)
	}

	var raw json.RawMessage
	if env.Params != nil {
		params, err := env.Params(c)
		if err != nil {
			return &Response{Client: c, Index: idx, Err: &protocol.ResponseError{
				Code:    protocol.CodeInvalidParams,
				Message: err.Error(),
			}}
		}
		if params != nil {
			raw, err = json.Marshal(params)
			if err != nil {
				return &Response{Client: c, Index: idx, Err: &protocol.ResponseError{
					Code:    protocol.CodeInvalidParams,
					Message: err.Error(),
				}}
			}
		}
	}

	ctx = context.WithValue(ctx, clientSlot{}, c)
	result, err := d.invoke(ctx, c.ID(), env.Method, raw)
	switch {
	case err == nil:
		return &Response{Client: c, Index: idx, Result: result}
	case errors.Is(err, ErrClientGone):
		d.logger.Debug("client vanished mid-flight", "client", c.ID(), "method", env.Method)
		return nil
	case ctx.Err() != nil:
		return nil
	default:
		var respErr *protocol.ResponseError
		if !errors.As(err, &respErr) {
			respErr = &protocol.ResponseError{
				Code:    protocol.CodeInternalError,
				Message: err.Error(),
			}
		}
		return &Response{Client: c, Index: idx, Err: respErr}
	}
}
