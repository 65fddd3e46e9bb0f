package chorus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chorus-lsp/chorus"
	"github.com/chorus-lsp/chorus/chorustest"
	"github.com/chorus-lsp/chorus/protocol"
)

const chainJSON = `[{"range":{"start":{"line":4,"character":8},"end":{"line":4,"character":12}},"parent":{"range":{"start":{"line":4,"character":0},"end":{"line":4,"character":30}},"parent":{"range":{"start":{"line":0,"character":0},"end":{"line":10,"character":0}}}}}]`

func TestSelectionSessionExpandsAndShrinks(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodSelectionRange, chainJSON)
	hub := newHub(tr, nil, &chorustest.FakeClient{ClientID: "a"})

	s, err := hub.SelectionSession(context.Background(), testURI, testPos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s == nil {
		t.Fatal("expected a session")
	}
	if s.Current().Start.Character != 8 {
		t.Errorf("innermost = %+v", s.Current())
	}

	r, ok, err := s.Expand()
	if err != nil || !ok || r.End.Character != 30 {
		t.Errorf("first expand: %+v ok=%v err=%v", r, ok, err)
	}
	r, ok, err = s.Expand()
	if err != nil || !ok || r.End.Line != 10 {
		t.Errorf("second expand: %+v ok=%v err=%v", r, ok, err)
	}
	if _, ok, _ = s.Expand(); ok {
		t.Error("expand past the outermost should report ok=false")
	}

	r, ok, err = s.Shrink()
	if err != nil || !ok || r.End.Character != 30 {
		t.Errorf("shrink: %+v ok=%v err=%v", r, ok, err)
	}
}

func TestSelectionSessionFirstClientWins(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodSelectionRange, chainJSON)
	tr.ReplyRaw("b", protocol.MethodSelectionRange, `[{"range":{"start":{"line":4,"character":9},"end":{"line":4,"character":10}}}]`)
	hub := newHub(tr, nil,
		&chorustest.FakeClient{ClientID: "a"},
		&chorustest.FakeClient{ClientID: "b"},
	)

	s, err := hub.SelectionSession(context.Background(), testURI, testPos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Client().ID() != "a" {
		t.Errorf("session backed by %s, want a (registration order)", s.Client().ID())
	}
}

func TestSelectionSessionGoesStaleOnInvalidate(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodSelectionRange, chainJSON)
	hub := newHub(tr, nil, &chorustest.FakeClient{ClientID: "a"})

	s, err := hub.SelectionSession(context.Background(), testURI, testPos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hub.Invalidate()
	if s.Alive() {
		t.Error("session should be dead after Invalidate")
	}
	if _, _, err := s.Expand(); !errors.Is(err, chorus.ErrSessionStale) {
		t.Errorf("expand on dead session: err = %v, want ErrSessionStale", err)
	}
	if _, _, err := s.Shrink(); !errors.Is(err, chorus.ErrSessionStale) {
		t.Errorf("shrink on dead session: err = %v, want ErrSessionStale", err)
	}
}

func TestSelectionSessionNoChains(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodSelectionRange, `null`)
	hub := newHub(tr, nil, &chorustest.FakeClient{ClientID: "a"})

	s, err := hub.SelectionSession(context.Background(), testURI, testPos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != nil {
		t.Errorf("expected no session, got %+v", s)
	}
}
