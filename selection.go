package chorus

import (
	"context"

	"github.com/chorus-lsp/chorus/aggregate"
	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/protocol"
)

// SelectionSession is one incremental expand/shrink interaction. The chain
// is fetched once at session start and walked locally; the session dies when
// the hub epoch moves, and a dead session refuses to move the cursor.
type SelectionSession struct {
	hub    *Hub
	anchor Anchor
	source dispatch.Client

	// ranges is the chain innermost first; idx is the current step.
	ranges []protocol.Range
	idx    int
}

// SelectionSession starts a selection-range session at the given position.
// When several clients answer, the first in registration order wins the
// session; chains are not merged across clients because their nesting
// structures are not comparable. A nil session with nil error means no
// client had a chain for the position.
func (h *Hub) SelectionSession(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) (*SelectionSession, error) {
	anchor := h.anchorAt(uri, pos)
	params := func(c dispatch.Client) (any, error) {
		return protocol.SelectionRangeParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Positions:    []protocol.Position{h.position(c, uri, pos)},
		}, nil
	}
	resps, err := h.fanout(ctx, protocol.MethodSelectionRange, uri, params)
	if err != nil {
		return nil, err
	}
	o := aggregate.SelectionRanges(resps)
	if err := surface(protocol.MethodSelectionRange, o); err != nil {
		return nil, err
	}
	first, ok := o.First()
	if !ok {
		return nil, nil
	}

	var ranges []protocol.Range
	for sr := &first.Value; sr != nil; sr = sr.Parent {
		ranges = append(ranges, sr.Range)
	}
	return &SelectionSession{
		hub:    h,
		anchor: anchor,
		source: first.Client,
		ranges: ranges,
	}, nil
}

// Client returns the client whose chain backs the session.
func (s *SelectionSession) Client() dispatch.Client { return s.source }

// Alive reports whether the session's anchor still matches the hub epoch.
func (s *SelectionSession) Alive() bool { return s.hub.fresh(s.anchor) }

// Current returns the range at the session's cursor.
func (s *SelectionSession) Current() protocol.Range { return s.ranges[s.idx] }

// Expand moves to the next enclosing range. ok=false at the outermost range.
// A dead session reports ErrSessionStale and does not move.
func (s *SelectionSession) Expand() (protocol.Range, bool, error) {
	if !s.Alive() {
		return protocol.Range{}, false, ErrSessionStale
	}
	if s.idx+1 >= len(s.ranges) {
		return s.Current(), false, nil
	}
	s.idx++
	return s.Current(), true, nil
}

// Shrink moves back toward the innermost range. ok=false at the innermost.
func (s *SelectionSession) Shrink() (protocol.Range, bool, error) {
	if !s.Alive() {
		return protocol.Range{}, false, ErrSessionStale
	}
	if s.idx == 0 {
		return s.Current(), false, nil
	}
	s.idx--
	return s.Current(), true, nil
}
