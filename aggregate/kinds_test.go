package aggregate

import (
	"testing"

	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/protocol"
)

func TestRenderHoverLabelsOnlyWhenShared(t *testing.T) {
	lone := Hover([]dispatch.Response{
		resp("gopls", 0, `{"contents":"func F()"}`),
		resp("lint", 1, `null`),
	})
	if got := RenderHover(lone); got != "func F()" {
		t.Errorf("lone contribution should stay unlabeled, got %q", got)
	}

	shared := Hover([]dispatch.Response{
		resp("gopls", 0, `{"contents":"func F()"}`),
		resp("lint", 1, `{"contents":"unused"}`),
	})
	want := "# gopls\n\nfunc F()\n\n---\n\n# lint\n\nunused"
	if got := RenderHover(shared); got != want {
		t.Errorf("shared render:\n%q\nwant:\n%q", got, want)
	}
}

func TestHoverDropsWhitespaceBlocks(t *testing.T) {
	o := Hover([]dispatch.Response{
		resp("a", 0, `{"contents":"   "}`),
		resp("b", 1, `{"contents":"real"}`),
	})
	if o.Contributors() != 1 {
		t.Errorf("whitespace hover should not contribute, contributors=%d", o.Contributors())
	}
	if RenderHover(o) != "real" {
		t.Errorf("render = %q", RenderHover(o))
	}
}

func TestKindFilterIsHierarchical(t *testing.T) {
	o := Actions([]dispatch.Response{
		resp("a", 0, `[{"title":"Extract function","kind":"refactor.extract.function"},{"title":"Fix typo","kind":"quickfix"}]`),
	}, KindFilter([]protocol.CodeActionKind{protocol.CodeActionRefactor}))

	if o.Verdict() != VerdictSingle {
		t.Fatalf("verdict = %s, want single", o.Verdict())
	}
	if o.Items[0].Value.Title != "Extract function" {
		t.Errorf("kept %q", o.Items[0].Value.Title)
	}
}

func TestActionsFilteredToNothingIsCleanEmpty(t *testing.T) {
	o := Actions([]dispatch.Response{
		resp("a", 0, `[{"title":"Fix typo","kind":"quickfix"}]`),
	}, KindFilter([]protocol.CodeActionKind{protocol.CodeActionSource}))

	if o.Verdict() != VerdictEmpty || o.Failed() {
		t.Errorf("filtered-out actions should be empty-clean, verdict=%s failed=%v", o.Verdict(), o.Failed())
	}
}

func TestSelectionRangesKeepFirstChainPerClient(t *testing.T) {
	o := SelectionRanges([]dispatch.Response{
		resp("a", 0, `[{"range":{"start":{"line":1,"character":0},"end":{"line":1,"character":5}},"parent":{"range":{"start":{"line":0,"character":0},"end":{"line":3,"character":0}}}},{"range":{"start":{"line":9,"character":0},"end":{"line":9,"character":1}}}]`),
	})
	if len(o.Items) != 1 {
		t.Fatalf("expected one chain, got %d", len(o.Items))
	}
	chain := o.Items[0].Value
	if chain.Range.Start.Line != 1 || chain.Parent == nil || chain.Parent.Range.End.Line != 3 {
		t.Errorf("unexpected chain: %+v", chain)
	}
}

func TestSignaturesFlattenAcrossClients(t *testing.T) {
	o := Signatures([]dispatch.Response{
		resp("a", 0, `{"signatures":[{"label":"F(x int)"}],"activeSignature":0}`),
		resp("b", 1, `{"signatures":[{"label":"F(x, y int)"},{"label":"F()"}]}`),
	})
	if len(o.Items) != 3 {
		t.Fatalf("expected 3 signatures, got %d", len(o.Items))
	}
	if o.Items[0].Value.Label != "F(x int)" || o.Items[2].Client.ID() != "b" {
		t.Errorf("unexpected flatten: %+v", o.Items)
	}
}
