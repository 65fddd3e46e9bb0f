package chorus_test

import (
	"context"
	"testing"

	"github.com/chorus-lsp/chorus"
	"github.com/chorus-lsp/chorus/aggregate"
	"github.com/chorus-lsp/chorus/chorustest"
	"github.com/chorus-lsp/chorus/protocol"
)

func actionParams(only ...protocol.CodeActionKind) protocol.CodeActionParams {
	return protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Range:        chorustest.Rng(4, 0, 4, 20),
		Context:      protocol.CodeActionContext{Only: only},
	}
}

func TestCodeActionsKeepOriginatingClient(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodCodeAction, `[{"title":"Fix typo","kind":"quickfix"}]`)
	tr.ReplyRaw("b", protocol.MethodCodeAction, `[{"title":"Extract","kind":"refactor.extract"}]`)
	hub := newHub(tr, nil,
		&chorustest.FakeClient{ClientID: "a"},
		&chorustest.FakeClient{ClientID: "b"},
	)

	o, err := hub.CodeActions(context.Background(), actionParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chorustest.AssertItemClients(t, o, "a", "b")
}

func TestCodeActionsOnlyFilterYieldsCleanEmpty(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodCodeAction, `[{"title":"Fix typo","kind":"quickfix"}]`)
	hub := newHub(tr, nil, &chorustest.FakeClient{ClientID: "a"})

	o, err := hub.CodeActions(context.Background(), actionParams(protocol.CodeActionSource))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chorustest.AssertCleanEmpty(t, o)
}

func TestRunCodeActionAppliesEditAndCommand(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodCodeAction,
		`[{"title":"Fix all","kind":"quickfix","edit":{"changes":{"file:///src/main.go":[{"range":{"start":{"line":4,"character":0},"end":{"line":4,"character":3}},"newText":"fix"}]}},"command":{"title":"Fix all","command":"fixall.run"}}]`)
	tr.ReplyRaw("a", protocol.MethodExecuteCommand, `null`)
	rec := &chorustest.EffectRecorder{}
	hub := newHub(tr, []chorus.Option{chorus.WithApplier(rec)}, &chorustest.FakeClient{ClientID: "a"})

	if err := hub.RunCodeAction(context.Background(), actionParams()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, ok := rec.Last()
	if !ok || e.Kind != chorus.EffectEdit {
		t.Fatalf("expected an edit effect, got %+v", e)
	}
	if calls := tr.Calls(protocol.MethodExecuteCommand); len(calls) != 1 || calls[0].ClientID != "a" {
		t.Errorf("command should run on the originating client, got %+v", calls)
	}
}

func TestRunCodeActionResolvesLazyAction(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodCodeAction, `[{"title":"Lazy fix","kind":"quickfix","data":{"id":7}}]`)
	tr.ReplyRaw("a", protocol.MethodCodeActionResolve,
		`{"title":"Lazy fix","kind":"quickfix","edit":{"changes":{"file:///src/main.go":[{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"newText":"x"}]}}}`)
	rec := &chorustest.EffectRecorder{}
	hub := newHub(tr, []chorus.Option{chorus.WithApplier(rec)}, &chorustest.FakeClient{ClientID: "a"})

	if err := hub.RunCodeAction(context.Background(), actionParams()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls := tr.Calls(protocol.MethodCodeActionResolve); len(calls) != 1 {
		t.Fatalf("resolve calls: %+v", calls)
	}
	e, ok := rec.Last()
	if !ok || e.Kind != chorus.EffectEdit {
		t.Errorf("resolved edit should be applied, got %+v", e)
	}
}

func TestRunCodeActionResolvesEditBehindCommand(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodCodeAction,
		`[{"title":"Fix and note","kind":"quickfix","command":{"title":"Note","command":"note.run"},"data":{"id":3}}]`)
	tr.ReplyRaw("a", protocol.MethodCodeActionResolve,
		`{"title":"Fix and note","kind":"quickfix","edit":{"changes":{"file:///src/main.go":[{"range":{"start":{"line":1,"character":0},"end":{"line":1,"character":1}},"newText":"y"}]}},"command":{"title":"Note","command":"note.run"}}`)
	tr.ReplyRaw("a", protocol.MethodExecuteCommand, `null`)
	rec := &chorustest.EffectRecorder{}
	hub := newHub(tr, []chorus.Option{chorus.WithApplier(rec)}, &chorustest.FakeClient{ClientID: "a"})

	if err := hub.RunCodeAction(context.Background(), actionParams()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls := tr.Calls(protocol.MethodCodeActionResolve); len(calls) != 1 {
		t.Fatalf("a command must not preempt resolving the edit, resolve calls: %+v", calls)
	}
	e, ok := rec.Last()
	if !ok || e.Kind != chorus.EffectEdit {
		t.Fatalf("resolved edit should be applied, got %+v", e)
	}
	if calls := tr.Calls(protocol.MethodExecuteCommand); len(calls) != 1 {
		t.Errorf("command should still run after the edit, got %+v", calls)
	}
}

func TestResolveActionSkipsClientsWithoutResolve(t *testing.T) {
	tr := chorustest.NewTransport()
	hub := newHub(tr, nil, &chorustest.FakeClient{
		ClientID: "a",
		Methods:  []string{protocol.MethodCodeAction},
	})

	reg := chorustest.NewRegistry(&chorustest.FakeClient{ClientID: "a", Methods: []string{protocol.MethodCodeAction}})
	c, _ := reg.ClientByID("a")
	item := aggregate.Item[protocol.CodeAction]{Client: c, Value: protocol.CodeAction{Title: "Plain"}}

	action, err := hub.ResolveAction(context.Background(), item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action.Title != "Plain" {
		t.Errorf("action should pass through unchanged, got %+v", action)
	}
	if calls := tr.Calls(protocol.MethodCodeActionResolve); len(calls) != 0 {
		t.Errorf("no resolve request should be sent, got %+v", calls)
	}
}

func TestPrepareCallHierarchy(t *testing.T) {
	tr := chorustest.NewTransport()
	tr.ReplyRaw("a", protocol.MethodPrepareCallHierarchy,
		`[{"name":"F","kind":12,"uri":"file:///src/main.go","range":{"start":{"line":4,"character":0},"end":{"line":8,"character":0}},"selectionRange":{"start":{"line":4,"character":5},"end":{"line":4,"character":6}}}]`)
	tr.ReplyRaw("b", protocol.MethodPrepareCallHierarchy, `null`)
	hub := newHub(tr, nil,
		&chorustest.FakeClient{ClientID: "a"},
		&chorustest.FakeClient{ClientID: "b"},
	)

	o, err := hub.PrepareCallHierarchy(context.Background(), testURI, testPos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chorustest.AssertVerdict(t, o, aggregate.VerdictSingle)
	if o.Items[0].Value.Name != "F" {
		t.Errorf("item = %+v", o.Items[0].Value)
	}
}
