package chorus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chorus-lsp/chorus"
	"github.com/chorus-lsp/chorus/chorustest"
	"github.com/chorus-lsp/chorus/protocol"
)

var renameEdit = protocol.WorkspaceEdit{
	Changes: map[protocol.DocumentURI][]protocol.TextEdit{
		chorustest.FileURI("/src/main.go"): {{Range: chorustest.Rng(4, 8, 4, 12), NewText: "renamed"}},
	},
}

func TestRenameFallsThroughToNextClient(t *testing.T) {
	// a rejects the prepare phase; b has no prepare support and commits.
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodPrepareRename, `null`)
	tr.Reply("b", protocol.MethodRename, renameEdit)
	hub := newHub(tr, nil,
		&chorustest.FakeClient{ClientID: "a"},
		&chorustest.FakeClient{ClientID: "b", Methods: []string{protocol.MethodRename}},
	)

	edit, c, err := hub.Rename(context.Background(), testURI, testPos, "renamed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID() != "b" {
		t.Errorf("rename committed to %s, want b", c.ID())
	}
	if len(edit.Changes) != 1 {
		t.Errorf("edit changes = %d", len(edit.Changes))
	}
	if calls := tr.Calls(protocol.MethodRename); len(calls) != 1 || calls[0].ClientID != "b" {
		t.Errorf("mutating request must reach exactly one client, got %+v", calls)
	}
}

func TestRenamePrepareErrorAdvancesChain(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.Fail("a", protocol.MethodPrepareRename, protocol.CodeRequestFailed, "not ready")
	tr.ReplyRaw("b", protocol.MethodPrepareRename, `{"range":{"start":{"line":4,"character":8},"end":{"line":4,"character":12}},"placeholder":"old"}`)
	tr.Reply("b", protocol.MethodRename, renameEdit)
	hub := newHub(tr, nil,
		&chorustest.FakeClient{ClientID: "a"},
		&chorustest.FakeClient{ClientID: "b"},
	)

	_, c, err := hub.Rename(context.Background(), testURI, testPos, "renamed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID() != "b" {
		t.Errorf("committed to %s, want b", c.ID())
	}
	if calls := tr.Calls(protocol.MethodRename); len(calls) != 1 {
		t.Errorf("rename sent %d times", len(calls))
	}
}

func TestRenameCommitsToFirstAccepting(t *testing.T) {
	// Both would accept; only the first in registration order mutates.
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodPrepareRename, `{"defaultBehavior":true}`)
	tr.Reply("a", protocol.MethodRename, renameEdit)
	tr.ReplyRaw("b", protocol.MethodPrepareRename, `{"defaultBehavior":true}`)
	hub := newHub(tr, nil,
		&chorustest.FakeClient{ClientID: "a"},
		&chorustest.FakeClient{ClientID: "b"},
	)

	_, c, err := hub.Rename(context.Background(), testURI, testPos, "renamed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID() != "a" {
		t.Errorf("committed to %s, want a", c.ID())
	}
	if calls := tr.Calls(protocol.MethodPrepareRename); len(calls) != 1 {
		t.Errorf("b should never have been probed, prepare calls: %+v", calls)
	}
}

func TestRenameAllReject(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodPrepareRename, `null`)
	tr.ReplyRaw("b", protocol.MethodPrepareRename, `null`)
	hub := newHub(tr, nil,
		&chorustest.FakeClient{ClientID: "a"},
		&chorustest.FakeClient{ClientID: "b"},
	)

	_, _, err := hub.Rename(context.Background(), testURI, testPos, "renamed")
	if !errors.Is(err, chorus.ErrRenameRejected) {
		t.Fatalf("err = %v, want ErrRenameRejected", err)
	}
	if calls := tr.Calls(protocol.MethodRename); len(calls) != 0 {
		t.Errorf("nothing should have been mutated, rename calls: %+v", calls)
	}
}

func TestRenameCommittedFailureSurfaces(t *testing.T) {
	// After commit there is no falling through to another client.
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodPrepareRename, `{"defaultBehavior":true}`)
	tr.Fail("a", protocol.MethodRename, protocol.CodeRequestFailed, "workspace busy")
	tr.ReplyRaw("b", protocol.MethodPrepareRename, `{"defaultBehavior":true}`)
	tr.Reply("b", protocol.MethodRename, renameEdit)
	hub := newHub(tr, nil,
		&chorustest.FakeClient{ClientID: "a"},
		&chorustest.FakeClient{ClientID: "b"},
	)

	_, _, err := hub.Rename(context.Background(), testURI, testPos, "renamed")
	if err == nil {
		t.Fatal("committed failure must surface")
	}
	if calls := tr.Calls(protocol.MethodRename); len(calls) != 1 || calls[0].ClientID != "a" {
		t.Errorf("b must not receive the mutating request after a committed, got %+v", calls)
	}
}

func TestPrepareRenameReturnsPlaceholder(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodPrepareRename, `{"range":{"start":{"line":4,"character":8},"end":{"line":4,"character":12}},"placeholder":"oldName"}`)
	hub := newHub(tr, nil, &chorustest.FakeClient{ClientID: "a"})

	res, c, err := hub.PrepareRename(context.Background(), testURI, testPos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID() != "a" || res.Placeholder != "oldName" {
		t.Errorf("got %+v from %v", res, c)
	}
}

func TestApplyRenameHandsEditToApplier(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodPrepareRename, `{"defaultBehavior":true}`)
	tr.Reply("a", protocol.MethodRename, renameEdit)
	rec := &chorustest.EffectRecorder{}
	hub := newHub(tr, []chorus.Option{chorus.WithApplier(rec)}, &chorustest.FakeClient{ClientID: "a"})

	if err := hub.ApplyRename(context.Background(), testURI, testPos, "renamed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, ok := rec.Last()
	if !ok || e.Kind != chorus.EffectEdit || e.Edit == nil {
		t.Fatalf("expected an edit effect, got %+v", e)
	}
	if e.Client.ID() != "a" {
		t.Errorf("edit traced to %s", e.Client.ID())
	}
}
