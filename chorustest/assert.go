package chorustest

import (
	"testing"

	"github.com/chorus-lsp/chorus/aggregate"
)

// AssertVerdict asserts the outcome's classification.
func AssertVerdict[T any](t testing.TB, o aggregate.Outcome[T], want aggregate.Verdict) {
	t.Helper()
	if got := o.Verdict(); got != want {
		t.Errorf("verdict = %s, want %s (items=%d errors=%d answered=%d)",
			got, want, len(o.Items), len(o.Errors), o.Answered)
	}
}

// AssertItemCount asserts the number of surviving items.
func AssertItemCount[T any](t testing.TB, o aggregate.Outcome[T], count int) {
	t.Helper()
	if len(o.Items) != count {
		t.Errorf("expected %d items, got %d", count, len(o.Items))
	}
}

// AssertItemClients asserts the client IDs of the items, in order.
func AssertItemClients[T any](t testing.TB, o aggregate.Outcome[T], ids ...string) {
	t.Helper()
	if len(o.Items) != len(ids) {
		t.Fatalf("expected %d items, got %d", len(ids), len(o.Items))
	}
	for i, it := range o.Items {
		if it.Client.ID() != ids[i] {
			t.Errorf("item %d from client %s, want %s", i, it.Client.ID(), ids[i])
		}
	}
}

// AssertCleanEmpty asserts an empty outcome in which nobody failed.
func AssertCleanEmpty[T any](t testing.TB, o aggregate.Outcome[T]) {
	t.Helper()
	AssertVerdict(t, o, aggregate.VerdictEmpty)
	if o.Failed() {
		t.Errorf("outcome reported failed, want clean empty (errors=%d answered=%d)",
			len(o.Errors), o.Answered)
	}
}
