package chorus

import (
	"context"
	"fmt"

	"github.com/chorus-lsp/chorus/aggregate"
	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/protocol"
)

// Rename runs the sequential fallback chain. Unlike read-only operations,
// rename mutates the workspace, so it is never fanned out: candidates are
// tried one at a time in registration order, and the first client whose
// prepare phase accepts the position gets the mutating request alone.
//
// A client that supports prepareRename is probed first; a prepare error or a
// rejected position advances the chain. A client without prepare support
// commits immediately. The returned client is the one that performed the
// rename.
func (h *Hub) Rename(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position, newName string) (protocol.WorkspaceEdit, dispatch.Client, error) {
	cands, err := h.candidates(protocol.MethodRename, uri)
	if err != nil {
		return protocol.WorkspaceEdit{}, nil, err
	}

	for _, c := range cands {
		if c.Supports(protocol.MethodPrepareRename) {
			ok, err := h.prepareRename(ctx, c, uri, pos)
			if err != nil {
				h.logger.Debug("prepare rename failed, trying next client",
					"client", c.ID(), "error", err)
				continue
			}
			if !ok {
				h.logger.Debug("client rejected rename position, trying next client",
					"client", c.ID())
				continue
			}
		}

		// Committed: the mutating request goes to this client alone.
		edit, err := h.renameOn(ctx, c, uri, pos, newName)
		if err != nil {
			return protocol.WorkspaceEdit{}, c, fmt.Errorf("rename via %s: %w", c.Name(), err)
		}
		return edit, c, nil
	}

	return protocol.WorkspaceEdit{}, nil, ErrRenameRejected
}

// PrepareRename probes the chain the same way Rename does, returning the
// placeholder information of the client that would perform the rename. It
// lets interactive consumers prefill the rename input without committing.
func (h *Hub) PrepareRename(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) (protocol.PrepareRenameResult, dispatch.Client, error) {
	cands, err := h.candidates(protocol.MethodRename, uri)
	if err != nil {
		return protocol.PrepareRenameResult{}, nil, err
	}

	for _, c := range cands {
		if !c.Supports(protocol.MethodPrepareRename) {
			// Prepare-less clients accept by default.
			return protocol.PrepareRenameResult{DefaultBehavior: true}, c, nil
		}
		res, ok, err := h.prepareRenameResult(ctx, c, uri, pos)
		if err != nil || !ok {
			continue
		}
		return res, c, nil
	}
	return protocol.PrepareRenameResult{}, nil, ErrRenameRejected
}

// ApplyRename drives the full rename pipeline, handing the winning edit to
// the applier unless the context went stale mid-chain.
func (h *Hub) ApplyRename(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position, newName string) error {
	anchor := h.anchorAt(uri, pos)
	edit, c, err := h.Rename(ctx, uri, pos, newName)
	if err != nil {
		return err
	}
	if len(edit.Changes) == 0 {
		return nil
	}
	return h.apply(ctx, anchor, Effect{Kind: EffectEdit, Client: c, Edit: &edit})
}

func (h *Hub) prepareRename(ctx context.Context, c dispatch.Client, uri protocol.DocumentURI, pos protocol.Position) (bool, error) {
	_, ok, err := h.prepareRenameResult(ctx, c, uri, pos)
	return ok, err
}

func (h *Hub) prepareRenameResult(ctx context.Context, c dispatch.Client, uri protocol.DocumentURI, pos protocol.Position) (protocol.PrepareRenameResult, bool, error) {
	params := protocol.PrepareRenameParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     h.position(c, uri, pos),
		},
	}
	raw, err := h.callOne(ctx, c, protocol.MethodPrepareRename, params)
	if err != nil {
		return protocol.PrepareRenameResult{}, false, err
	}
	return aggregate.DecodePrepareRename(raw)
}

func (h *Hub) renameOn(ctx context.Context, c dispatch.Client, uri protocol.DocumentURI, pos protocol.Position, newName string) (protocol.WorkspaceEdit, error) {
	params := protocol.RenameParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     h.position(c, uri, pos),
		},
		NewName: newName,
	}
	raw, err := h.callOne(ctx, c, protocol.MethodRename, params)
	if err != nil {
		return protocol.WorkspaceEdit{}, err
	}
	edit, _, err := aggregate.DecodeWorkspaceEdit(raw)
	return edit, err
}
