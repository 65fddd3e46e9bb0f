package chorus

import (
	"context"
	"fmt"
	"strings"

	"github.com/chorus-lsp/chorus/aggregate"
	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/pick"
	"github.com/chorus-lsp/chorus/protocol"
)

// Plain operations return a classified outcome and leave disambiguation to
// the caller; the GoTo / Show variants drive the full pipeline through the
// selector and applier.

// locations is the shared fan-out for the definition family.
func (h *Hub) locations(ctx context.Context, method string, uri protocol.DocumentURI, params func(dispatch.Client) (any, error)) (aggregate.Outcome[protocol.Location], error) {
	resps, err := h.fanout(ctx, method, uri, params)
	if err != nil {
		return aggregate.Outcome[protocol.Location]{}, err
	}
	o := aggregate.Locations(resps)
	return o, surface(method, o)
}

// Definition aggregates textDocument/definition across all capable clients.
func (h *Hub) Definition(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) (aggregate.Outcome[protocol.Location], error) {
	return h.locations(ctx, protocol.MethodDefinition, uri, h.positionParams(uri, pos))
}

// Declaration aggregates textDocument/declaration.
func (h *Hub) Declaration(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) (aggregate.Outcome[protocol.Location], error) {
	return h.locations(ctx, protocol.MethodDeclaration, uri, h.positionParams(uri, pos))
}

// TypeDefinition aggregates textDocument/typeDefinition.
func (h *Hub) TypeDefinition(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) (aggregate.Outcome[protocol.Location], error) {
	return h.locations(ctx, protocol.MethodTypeDefinition, uri, h.positionParams(uri, pos))
}

// Implementation aggregates textDocument/implementation.
func (h *Hub) Implementation(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) (aggregate.Outcome[protocol.Location], error) {
	return h.locations(ctx, protocol.MethodImplementation, uri, h.positionParams(uri, pos))
}

// References aggregates textDocument/references.
func (h *Hub) References(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position, includeDeclaration bool) (aggregate.Outcome[protocol.Location], error) {
	params := func(c dispatch.Client) (any, error) {
		return protocol.ReferenceParams{
			TextDocumentPositionParams: protocol.TextDocumentPositionParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: uri},
				Position:     h.position(c, uri, pos),
			},
			Context: protocol.ReferenceContext{IncludeDeclaration: includeDeclaration},
		}, nil
	}
	return h.locations(ctx, protocol.MethodReferences, uri, params)
}

// goTo drives one navigation operation end to end: anchor, fan-out,
// disambiguation, jump effect.
func (h *Hub) goTo(ctx context.Context, method, prompt string, uri protocol.DocumentURI, pos protocol.Position) error {
	anchor := h.anchorAt(uri, pos)
	o, err := h.locations(ctx, method, uri, h.positionParams(uri, pos))
	if err != nil {
		return err
	}
	sel := h.choose(prompt, len(o.Items))
	item, ok, err := pick.One(ctx, sel, prompt, o, renderLocation)
	if err != nil || !ok {
		return err
	}
	loc := item.Value
	return h.apply(ctx, anchor, Effect{Kind: EffectJump, Client: item.Client, Location: &loc})
}

// GoToDefinition runs the driven definition pipeline.
func (h *Hub) GoToDefinition(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) error {
	return h.goTo(ctx, protocol.MethodDefinition, "Definition", uri, pos)
}

// GoToDeclaration runs the driven declaration pipeline.
func (h *Hub) GoToDeclaration(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) error {
	return h.goTo(ctx, protocol.MethodDeclaration, "Declaration", uri, pos)
}

// GoToTypeDefinition runs the driven type-definition pipeline.
func (h *Hub) GoToTypeDefinition(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) error {
	return h.goTo(ctx, protocol.MethodTypeDefinition, "Type definition", uri, pos)
}

// GoToImplementation runs the driven implementation pipeline.
func (h *Hub) GoToImplementation(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) error {
	return h.goTo(ctx, protocol.MethodImplementation, "Implementation", uri, pos)
}

// renderLocation labels a location candidate for disambiguation.
func renderLocation(loc protocol.Location) string {
	path := strings.TrimPrefix(string(loc.URI), "file://")
	return fmt.Sprintf("%s:%d:%d", path, loc.Range.Start.Line+1, loc.Range.Start.Character+1)
}

// Hover aggregates textDocument/hover. Every non-empty per-client block
// survives; nothing is chosen from.
func (h *Hub) Hover(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) (aggregate.Outcome[aggregate.Block], error) {
	resps, err := h.fanout(ctx, protocol.MethodHover, uri, h.positionParams(uri, pos))
	if err != nil {
		return aggregate.Outcome[aggregate.Block]{}, err
	}
	o := aggregate.Hover(resps)
	return o, surface(protocol.MethodHover, o)
}

// ShowHover runs the driven hover pipeline: blocks are concatenated in
// client order (labeled per client only when more than one contributed) and
// handed to the applier as a show effect.
func (h *Hub) ShowHover(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) error {
	anchor := h.anchorAt(uri, pos)
	o, err := h.Hover(ctx, uri, pos)
	if err != nil {
		return err
	}
	text := aggregate.RenderHover(o)
	if text == "" {
		return nil
	}
	kind := protocol.Markdown
	if first, ok := o.First(); ok && o.Contributors() == 1 {
		kind = first.Value.Kind
	}
	return h.apply(ctx, anchor, Effect{Kind: EffectShow, Text: text, TextKind: kind})
}

// SignatureHelp aggregates textDocument/signatureHelp. Signatures from all
// clients are flattened; per-client active indices do not survive the merge.
func (h *Hub) SignatureHelp(ctx context.Context, uri protocol.DocumentURI, pos protocol.Position) (aggregate.Outcome[protocol.SignatureInformation], error) {
	resps, err := h.fanout(ctx, protocol.MethodSignatureHelp, uri, h.positionParams(uri, pos))
	if err != nil {
		return aggregate.Outcome[protocol.SignatureInformation]{}, err
	}
	o := aggregate.Signatures(resps)
	return o, surface(protocol.MethodSignatureHelp, o)
}

// DocumentSymbols aggregates textDocument/documentSymbol, flattening
// hierarchical results depth-first.
func (h *Hub) DocumentSymbols(ctx context.Context, uri protocol.DocumentURI) (aggregate.Outcome[protocol.SymbolInformation], error) {
	params := func(dispatch.Client) (any, error) {
		return protocol.DocumentSymbolParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}}, nil
	}
	resps, err := h.fanout(ctx, protocol.MethodDocumentSymbol, uri, params)
	if err != nil {
		return aggregate.Outcome[protocol.SymbolInformation]{}, err
	}
	o := aggregate.DocumentSymbols(resps, uri)
	return o, surface(protocol.MethodDocumentSymbol, o)
}

// WorkspaceSymbols aggregates workspace/symbol across every client that
// supports it, regardless of language scope.
func (h *Hub) WorkspaceSymbols(ctx context.Context, query string) (aggregate.Outcome[protocol.SymbolInformation], error) {
	params := func(dispatch.Client) (any, error) {
		return protocol.WorkspaceSymbolParams{Query: query}, nil
	}
	resps, err := h.fanout(ctx, protocol.MethodWorkspaceSymbol, "", params)
	if err != nil {
		return aggregate.Outcome[protocol.SymbolInformation]{}, err
	}
	o := aggregate.WorkspaceSymbols(resps)
	return o, surface(protocol.MethodWorkspaceSymbol, o)
}
