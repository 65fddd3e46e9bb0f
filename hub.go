package chorus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/middleware"
	"github.com/chorus-lsp/chorus/pick"
	"github.com/chorus-lsp/chorus/protocol"
)

// Hub is the central type of chorus. It fans one logical LSP operation out
// to every capable client, aggregates the independently-failing responses
// under defined tie-break rules, and either returns the classified outcome
// or drives disambiguation and the effect collaborator.
type Hub struct {
	registry   Registry
	dispatcher *dispatch.Dispatcher
	selector   pick.Selector
	applier    Applier
	logger     *slog.Logger
	encoding   protocol.OffsetEncoding
	lines      LineSource

	// epoch is bumped by Invalidate; anchors captured under an older epoch
	// are stale and their results are discarded.
	epoch atomic.Uint64
}

// New creates a Hub over the given registry and per-client transport.
func New(registry Registry, transport dispatch.Transport, opts ...Option) *Hub {
	o := &hubOptions{
		logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
		encoding: protocol.EncodingUTF16,
	}
	for _, opt := range opts {
		opt(o)
	}

	mws := append([]middleware.Middleware{middleware.Recovery(o.logger)}, o.middlewares...)
	dopts := append([]dispatch.Option{
		dispatch.WithLogger(o.logger),
		dispatch.WithMiddleware(mws...),
	}, o.dispatch...)

	return &Hub{
		registry:   registry,
		dispatcher: dispatch.New(transport, dopts...),
		selector:   o.selector,
		applier:    o.applier,
		logger:     o.logger,
		encoding:   o.encoding,
		lines:      o.lines,
	}
}

// Logger returns the hub's logger.
func (h *Hub) Logger() *slog.Logger { return h.logger }

// Invalidate signals that the editing context changed: the active document,
// the cursor neighborhood, or the client roster. In-flight operations are
// not retracted, but results anchored before the call are discarded at
// effect time, and live selection sessions go stale.
func (h *Hub) Invalidate() {
	h.epoch.Add(1)
}

// candidates pre-filters the registry snapshot by capability. Zero
// candidates means the operation cannot be served at all, reported before
// any dispatch happens.
func (h *Hub) candidates(method string, uri protocol.DocumentURI) ([]dispatch.Client, error) {
	cands := h.registry.ClientsFor(method, uri)
	if len(cands) == 0 {
		return nil, fmt.Errorf("%s: %w", method, ErrNoCapability)
	}
	return cands, nil
}

// fanout runs one synchronous fan-out to every capable client.
func (h *Hub) fanout(ctx context.Context, method string, uri protocol.DocumentURI, params func(dispatch.Client) (any, error)) ([]dispatch.Response, error) {
	cands, err := h.candidates(method, uri)
	if err != nil {
		return nil, err
	}
	return h.dispatcher.Call(ctx, cands, dispatch.Envelope{Method: method, Params: params}), nil
}

// callOne sends a follow-up request to a single client, typically the one
// that produced the candidate being resolved or committed to.
func (h *Hub) callOne(ctx context.Context, c dispatch.Client, method string, params any) (json.RawMessage, error) {
	resps := h.dispatcher.Call(ctx, []dispatch.Client{c}, dispatch.Envelope{
		Method: method,
		Params: func(dispatch.Client) (any, error) { return params, nil },
	})
	if len(resps) == 0 {
		return nil, fmt.Errorf("%s: %w", c.Name(), dispatch.ErrClientGone)
	}
	if resps[0].Err != nil {
		return nil, resps[0].Err
	}
	return resps[0].Result, nil
}

// position re-encodes a hub position for one client. Without a line source
// the position passes through unchanged.
func (h *Hub) position(c dispatch.Client, uri protocol.DocumentURI, pos protocol.Position) protocol.Position {
	if h.lines == nil || c.Encoding() == h.encoding {
		return pos
	}
	line, ok := h.lines(uri, pos.Line)
	if !ok {
		return pos
	}
	return protocol.TranslatePosition(line, pos, h.encoding, c.Encoding())
}

// positionParams builds the per-client params factory for position-based
// requests.
func (h *Hub) positionParams(uri protocol.DocumentURI, pos protocol.Position) func(dispatch.Client) (any, error) {
	return func(c dispatch.Client) (any, error) {
		return protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     h.position(c, uri, pos),
		}, nil
	}
}

// choose runs disambiguation for a driven operation. Without a selector a
// Multiple outcome ends the operation with no choice; that mirrors a user
// dismissing the picker.
func (h *Hub) choose(prompt string, n int) pick.Selector {
	if h.selector != nil {
		return h.selector
	}
	if n > 1 {
		h.logger.Info("ambiguous result with no selector configured", "prompt", prompt, "candidates", n)
	}
	return pick.SelectorFunc(func(context.Context, string, []pick.Choice) (int, bool, error) {
		return 0, false, nil
	})
}

// apply hands an effect to the applier, unless the anchor went stale while
// the operation was in flight. Stale results are discarded silently; that is
// the contract, not a failure.
func (h *Hub) apply(ctx context.Context, a Anchor, e Effect) error {
	if !h.fresh(a) {
		h.logger.Debug("discarding stale result", "effect", e.Kind.String(), "uri", a.URI)
		return nil
	}
	if h.applier == nil {
		h.logger.Debug("no applier configured, dropping effect", "effect", e.Kind.String())
		return nil
	}
	return h.applier.Apply(ctx, e)
}
