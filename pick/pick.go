// Package pick resolves a Multiple aggregation outcome to at most one
// candidate through an external selection collaborator. The collaborator is
// typically an editor UI; chorus only defines the contract: present labeled
// choices, get back one index or nothing. "Nothing" ends the operation with
// no side effect; there is no default choice.
package pick

import (
	"context"

	"github.com/chorus-lsp/chorus/aggregate"
)

// Choice is one candidate as presented to the selection collaborator.
type Choice struct {
	// Label is the kind-specific rendering of the candidate.
	Label string
	// Source is the name of the client that produced the candidate.
	Source string
}

// Selector presents choices and reports the chosen index. ok=false means the
// user dismissed the selection; that is a normal end of the operation, not an
// error.
type Selector interface {
	Select(ctx context.Context, prompt string, choices []Choice) (index int, ok bool, err error)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(ctx context.Context, prompt string, choices []Choice) (int, bool, error)

func (f SelectorFunc) Select(ctx context.Context, prompt string, choices []Choice) (int, bool, error) {
	return f(ctx, prompt, choices)
}

// One reduces an outcome to at most one item. A Single verdict takes the
// fast path without consulting the selector; Multiple presents the
// candidates rendered by render in their aggregated order. The returned item
// keeps its client back-reference so follow-up requests reach the client
// that produced it.
func One[T any](ctx context.Context, sel Selector, prompt string, o aggregate.Outcome[T], render func(T) string) (aggregate.Item[T], bool, error) {
	switch o.Verdict() {
	case aggregate.VerdictEmpty:
		return aggregate.Item[T]{}, false, nil
	case aggregate.VerdictSingle:
		return o.Items[0], true, nil
	}

	choices := make([]Choice, len(o.Items))
	for i, it := range o.Items {
		choices[i] = Choice{Label: render(it.Value), Source: it.Client.Name()}
	}
	idx, ok, err := sel.Select(ctx, prompt, choices)
	if err != nil {
		return aggregate.Item[T]{}, false, err
	}
	if !ok || idx < 0 || idx >= len(o.Items) {
		return aggregate.Item[T]{}, false, nil
	}
	return o.Items[idx], true, nil
}
