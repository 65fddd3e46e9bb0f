package chorus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chorus-lsp/chorus/aggregate"
	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/pick"
	"github.com/chorus-lsp/chorus/protocol"
)

// CodeActions aggregates textDocument/codeAction. The request's "only" kinds
// filter candidates before classification, so a filter that rejects
// everything reports an empty-clean outcome.
func (h *Hub) CodeActions(ctx context.Context, params protocol.CodeActionParams) (aggregate.Outcome[protocol.CodeAction], error) {
	uri := params.TextDocument.URI
	factory := func(c dispatch.Client) (any, error) {
		p := params
		p.Range.Start = h.position(c, uri, params.Range.Start)
		p.Range.End = h.position(c, uri, params.Range.End)
		return p, nil
	}
	resps, err := h.fanout(ctx, protocol.MethodCodeAction, uri, factory)
	if err != nil {
		return aggregate.Outcome[protocol.CodeAction]{}, err
	}
	o := aggregate.Actions(resps, aggregate.KindFilter(params.Context.Only))
	return o, surface(protocol.MethodCodeAction, o)
}

// ResolveAction fills in the lazy fields of a chosen code action by asking
// the client that produced it. Clients without resolve support return the
// action unchanged; resolving against any other client is a protocol
// violation and never happens here.
func (h *Hub) ResolveAction(ctx context.Context, item aggregate.Item[protocol.CodeAction]) (protocol.CodeAction, error) {
	if !item.Client.Supports(protocol.MethodCodeActionResolve) {
		return item.Value, nil
	}
	raw, err := h.callOne(ctx, item.Client, protocol.MethodCodeActionResolve, item.Value)
	if err != nil {
		return protocol.CodeAction{}, fmt.Errorf("resolving %q via %s: %w", item.Value.Title, item.Client.Name(), err)
	}
	var resolved protocol.CodeAction
	if err := json.Unmarshal(raw, &resolved); err != nil {
		return protocol.CodeAction{}, fmt.Errorf("resolving %q via %s: %w", item.Value.Title, item.Client.Name(), err)
	}
	return resolved, nil
}

// ExecuteCommand routes a server-defined command to the client that defined
// it. Commands are not portable across clients.
func (h *Hub) ExecuteCommand(ctx context.Context, c dispatch.Client, cmd protocol.Command) (json.RawMessage, error) {
	return h.callOne(ctx, c, protocol.MethodExecuteCommand, protocol.ExecuteCommandParams{
		Command:   cmd.Command,
		Arguments: cmd.Arguments,
	})
}

// RunCodeAction drives the full code action pipeline: aggregate, pick one,
// resolve it against its originating client, apply its edit, then execute
// its command on that same client.
func (h *Hub) RunCodeAction(ctx context.Context, params protocol.CodeActionParams) error {
	anchor := h.anchorAt(params.TextDocument.URI, params.Range.Start)
	o, err := h.CodeActions(ctx, params)
	if err != nil {
		return err
	}
	sel := h.choose("Code action", len(o.Items))
	item, ok, err := pick.One(ctx, sel, "Code action", o, renderAction)
	if err != nil || !ok {
		return err
	}

	// A resolve-supporting server may lazily omit the edit even when a
	// command is present, so a missing edit always triggers a resolve.
	action := item.Value
	if action.Edit == nil {
		action, err = h.ResolveAction(ctx, item)
		if err != nil {
			return err
		}
	}

	if action.Edit != nil {
		if err := h.apply(ctx, anchor, Effect{Kind: EffectEdit, Client: item.Client, Edit: action.Edit}); err != nil {
			return err
		}
	}
	if action.Command != nil {
		// The command runs on the server; edits it produces come back
		// through the consumer's applyEdit channel, not through chorus.
		if !h.fresh(anchor) {
			h.logger.Debug("discarding stale code action command", "command", action.Command.Command)
			return nil
		}
		if _, err := h.ExecuteCommand(ctx, item.Client, *action.Command); err != nil {
			return fmt.Errorf("executing %q via %s: %w", action.Command.Command, item.Client.Name(), err)
		}
	}
	return nil
}

func renderAction(a protocol.CodeAction) string {
	if a.Kind != "" {
		return fmt.Sprintf("%s [%s]", a.Title, a.Kind)
	}
	return a.Title
}

// PrepareCallHierarchy aggregates textDocument/prepareCallHierarchy. Each
// item keeps its originating client: incoming/outgoing-call follow-ups must
// go back to it.
func (h *Hub) PrepareCallHierarchy(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) (aggregate.Outcome[protocol.CallHierarchyItem], error) {
	resps, err := h.fanout(ctx, protocol.MethodPrepareCallHierarchy, uri, h.positionParams(uri, pos))
	if err != nil {
		return aggregate.Outcome[protocol.CallHierarchyItem]{}, err
	}
	o := aggregate.HierarchyItems(resps, nil)
	return o, surface(protocol.MethodPrepareCallHierarchy, o)
}
