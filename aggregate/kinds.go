package aggregate

import (
	"strings"

	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/protocol"
)

// Per-kind aggregation policies. All of them consume the registration-ordered
// responses of one fan-out.

// Locations flattens per-client location lists for the definition family,
// references, and similar requests. Exactly one surviving location across all
// clients yields a Single verdict; the count of responding clients plays no
// part in the classification.
func Locations(resps []dispatch.Response) Outcome[protocol.Location] {
	return Collect(resps, func(r dispatch.Response) ([]protocol.Location, error) {
		return DecodeLocations(r.Result)
	})
}

// Hover keeps every per-client block that is non-empty after trimming. The
// verdict is never used to auto-apply anything: hover text is presented, not
// chosen from, so all contributions survive side by side.
func Hover(resps []dispatch.Response) Outcome[Block] {
	return Collect(resps, func(r dispatch.Response) ([]Block, error) {
		block, ok, err := DecodeHover(r.Result)
		if err != nil || !ok {
			return nil, err
		}
		return []Block{block}, nil
	})
}

// RenderHover concatenates hover blocks in client order. Each block gets a
// client-name heading only when more than one client contributed; a lone
// answer stays unlabeled.
func RenderHover(o Outcome[Block]) string {
	if len(o.Items) == 0 {
		return ""
	}
	labeled := o.Contributors() > 1
	var b strings.Builder
	for i, it := range o.Items {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		if labeled {
			b.WriteString("# " + it.Client.Name() + "\n\n")
		}
		b.WriteString(it.Value.Value)
	}
	return b.String()
}

// Actions aggregates code actions with their originating clients. filter runs
// before classification: rejecting every candidate reports an empty-clean
// outcome, never a silently discarded Multiple. A nil filter keeps all.
func Actions(resps []dispatch.Response, filter func(protocol.CodeAction) bool) Outcome[protocol.CodeAction] {
	o := Collect(resps, func(r dispatch.Response) ([]protocol.CodeAction, error) {
		return DecodeCodeActions(r.Result)
	})
	return Filter(o, filter)
}

// KindFilter builds an action filter from the hierarchical "only" kinds of a
// code action request. An empty list accepts everything.
func KindFilter(only []protocol.CodeActionKind) func(protocol.CodeAction) bool {
	if len(only) == 0 {
		return nil
	}
	return func(a protocol.CodeAction) bool {
		for _, k := range only {
			if a.Kind.Matches(k) {
				return true
			}
		}
		return false
	}
}

// DocumentSymbols flattens each client's symbol tree for the given document.
func DocumentSymbols(resps []dispatch.Response, uri protocol.DocumentURI) Outcome[protocol.SymbolInformation] {
	return Collect(resps, func(r dispatch.Response) ([]protocol.SymbolInformation, error) {
		return DecodeDocumentSymbols(r.Result, uri)
	})
}

// WorkspaceSymbols flattens per-client workspace symbol lists.
func WorkspaceSymbols(resps []dispatch.Response) Outcome[protocol.SymbolInformation] {
	return Collect(resps, func(r dispatch.Response) ([]protocol.SymbolInformation, error) {
		return DecodeWorkspaceSymbols(r.Result)
	})
}

// Signatures flattens per-client signature lists. Active-signature indices
// are per-client and meaningless after merging, so only the signatures
// themselves survive.
func Signatures(resps []dispatch.Response) Outcome[protocol.SignatureInformation] {
	return Collect(resps, func(r dispatch.Response) ([]protocol.SignatureInformation, error) {
		help, ok, err := DecodeSignatureHelp(r.Result)
		if err != nil || !ok {
			return nil, err
		}
		return help.Signatures, nil
	})
}

// SelectionRanges keeps each client's chain for the requested position.
// Clients answer with one chain per position; chorus asks for one position
// at a time, so only the first chain of each response survives.
func SelectionRanges(resps []dispatch.Response) Outcome[protocol.SelectionRange] {
	return Collect(resps, func(r dispatch.Response) ([]protocol.SelectionRange, error) {
		chains, err := DecodeSelectionRanges(r.Result)
		if err != nil || len(chains) == 0 {
			return nil, err
		}
		return chains[:1], nil
	})
}

// HierarchyItems aggregates prepareCallHierarchy items, filtered before
// classification like actions.
func HierarchyItems(resps []dispatch.Response, filter func(protocol.CallHierarchyItem) bool) Outcome[protocol.CallHierarchyItem] {
	o := Collect(resps, func(r dispatch.Response) ([]protocol.CallHierarchyItem, error) {
		return DecodeCallHierarchyItems(r.Result)
	})
	return Filter(o, filter)
}
