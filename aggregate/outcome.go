// Package aggregate merges the per-client responses of one fan-out into a
// single classified outcome. Policies differ per entity kind (locations,
// hover blocks, code actions, signatures), but every policy shares the same
// invariants: each aggregated item traces to exactly one client's response,
// items are ordered by client registration order then per-client original
// order, and "nobody had an answer" stays distinguishable from "everybody
// failed".
package aggregate

import (
	"encoding/json"

	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/protocol"
)

// Verdict classifies an outcome by surviving-candidate count. The Single
// fast path is permitted only when exactly one candidate survived filtering,
// never merely because one client responded.
type Verdict int

const (
	VerdictEmpty Verdict = iota
	VerdictSingle
	VerdictMultiple
)

func (v Verdict) String() string {
	switch v {
	case VerdictEmpty:
		return "empty"
	case VerdictSingle:
		return "single"
	case VerdictMultiple:
		return "multiple"
	}
	return "unknown"
}

// Item is one candidate, carrying a back-reference to the client that
// produced it. Follow-up requests (resolve, execute) must go back to that
// client, never to an arbitrary one.
type Item[T any] struct {
	Client dispatch.Client
	Value  T
}

// ClientError records one client's protocol-level failure within a fan-out.
type ClientError struct {
	Client dispatch.Client
	Err    *protocol.ResponseError
}

// Outcome is the aggregation result for one fan-out. Answered counts the
// clients that produced a response entry at all (success or error), which is
// what distinguishes empty-clean from empty-with-error.
type Outcome[T any] struct {
	Items    []Item[T]
	Errors   []ClientError
	Answered int
}

// Verdict classifies the outcome by how many candidates survived.
func (o Outcome[T]) Verdict() Verdict {
	switch len(o.Items) {
	case 0:
		return VerdictEmpty
	case 1:
		return VerdictSingle
	}
	return VerdictMultiple
}

// Failed reports whether the outcome is empty because every answering client
// returned an error. An outcome with zero answering clients is empty-clean.
func (o Outcome[T]) Failed() bool {
	return len(o.Items) == 0 && o.Answered > 0 && len(o.Errors) == o.Answered
}

// Contributors returns how many distinct clients contributed at least one
// surviving item.
func (o Outcome[T]) Contributors() int {
	seen := make(map[string]struct{}, len(o.Items))
	for _, it := range o.Items {
		seen[it.Client.ID()] = struct{}{}
	}
	return len(seen)
}

// First returns the first item, which for a Single verdict is the one
// unambiguous candidate.
func (o Outcome[T]) First() (Item[T], bool) {
	if len(o.Items) == 0 {
		return Item[T]{}, false
	}
	return o.Items[0], true
}

// Values returns the item payloads without their client back-references.
func (o Outcome[T]) Values() []T {
	vals := make([]T, len(o.Items))
	for i, it := range o.Items {
		vals[i] = it.Value
	}
	return vals
}

// Collect builds an outcome from registration-ordered responses. decode
// turns one successful raw result into zero or more values; a decode error
// is recorded as that client's failure rather than aborting the whole
// aggregation. Responses arrive already sorted by the dispatcher, so the
// flattened item order is client registration order, then each client's
// original order.
func Collect[T any](resps []dispatch.Response, decode func(dispatch.Response) ([]T, error)) Outcome[T] {
	var o Outcome[T]
	o.Answered = len(resps)
	for _, r := range resps {
		if r.Failed() {
			o.Errors = append(o.Errors, ClientError{Client: r.Client, Err: r.Err})
			continue
		}
		vals, err := decode(r)
		if err != nil {
			o.Errors = append(o.Errors, ClientError{Client: r.Client, Err: &protocol.ResponseError{
				Code:    protocol.CodeParseError,
				Message: err.Error(),
			}})
			continue
		}
		for _, v := range vals {
			o.Items = append(o.Items, Item[T]{Client: r.Client, Value: v})
		}
	}
	return o
}

// Filter returns a copy of the outcome with only the items keep accepts.
// Filtering happens before a caller inspects the verdict, so a predicate
// that rejects every candidate yields an empty-clean outcome instead of a
// silently discarded Multiple.
func Filter[T any](o Outcome[T], keep func(T) bool) Outcome[T] {
	if keep == nil {
		return o
	}
	out := Outcome[T]{Errors: o.Errors, Answered: o.Answered}
	for _, it := range o.Items {
		if keep(it.Value) {
			out.Items = append(out.Items, it)
		}
	}
	return out
}

// isNull reports whether a raw result carries no content at all.
func isNull(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	s := string(raw)
	return s == "null" || s == `""` || s == "[]" || s == "{}"
}
