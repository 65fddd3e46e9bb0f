package aggregate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/chorus-lsp/chorus/protocol"
)

// The definition family, hover, code actions, and document symbols are
// union-typed on the wire: servers legitimately return several shapes for
// the same method. These decoders sniff the shape with gjson and normalize
// to one type before aggregation, so policies never see the union.

// DecodeLocations normalizes Location | []Location | []LocationLink to a
// flat location list, preserving the server's order.
func DecodeLocations(raw json.RawMessage) ([]protocol.Location, error) {
	if isNull(raw) {
		return nil, nil
	}
	v := gjson.ParseBytes(raw)

	if v.IsObject() {
		loc, err := decodeOneLocation(raw, v)
		if err != nil {
			return nil, err
		}
		return []protocol.Location{loc}, nil
	}

	if !v.IsArray() {
		return nil, fmt.Errorf("unexpected location result shape: %s", snippet(raw))
	}

	elems := v.Array()
	locs := make([]protocol.Location, 0, len(elems))
	for _, e := range elems {
		loc, err := decodeOneLocation(json.RawMessage(e.Raw), e)
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

func decodeOneLocation(raw json.RawMessage, v gjson.Result) (protocol.Location, error) {
	if v.Get("targetUri").Exists() {
		var link protocol.LocationLink
		if err := json.Unmarshal(raw, &link); err != nil {
			return protocol.Location{}, err
		}
		return link.Location(), nil
	}
	var loc protocol.Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return protocol.Location{}, err
	}
	return loc, nil
}

// Block is one client's hover contribution, normalized to markup.
type Block struct {
	Kind  protocol.MarkupKind
	Value string
}

// DecodeHover normalizes the hover contents union (string, MarkedString,
// []MarkedString, or MarkupContent) into a single block. A block whose
// value trims to nothing reports ok=false and is dropped by the hover
// policy: whitespace-only hovers are indistinguishable from no answer.
func DecodeHover(raw json.RawMessage) (Block, bool, error) {
	if isNull(raw) {
		return Block{}, false, nil
	}
	contents := gjson.GetBytes(raw, "contents")
	if !contents.Exists() {
		return Block{}, false, nil
	}

	var parts []string
	kind := protocol.Markdown

	switch {
	case contents.IsArray():
		for _, e := range contents.Array() {
			parts = append(parts, markedString(e))
		}
	case contents.IsObject():
		if contents.Get("kind").Exists() {
			if protocol.MarkupKind(contents.Get("kind").String()) == protocol.PlainText {
				kind = protocol.PlainText
			}
			parts = append(parts, contents.Get("value").String())
		} else {
			parts = append(parts, markedString(contents))
		}
	default:
		parts = append(parts, contents.String())
	}

	joined := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if joined == "" {
		return Block{}, false, nil
	}
	return Block{Kind: kind, Value: joined}, true, nil
}

// markedString renders a MarkedString (string or {language, value}) as
// markdown, fencing code in its language.
func markedString(v gjson.Result) string {
	if v.IsObject() {
		lang := v.Get("language").String()
		val := v.Get("value").String()
		if strings.TrimSpace(val) == "" {
			return ""
		}
		return "```" + lang + "\n" + val + "\n```"
	}
	return v.String()
}

// DecodeCodeActions normalizes [](CodeAction | Command) to code actions;
// bare commands become actions that only carry a command.
func DecodeCodeActions(raw json.RawMessage) ([]protocol.CodeAction, error) {
	if isNull(raw) {
		return nil, nil
	}
	v := gjson.ParseBytes(raw)
	if !v.IsArray() {
		return nil, fmt.Errorf("unexpected code action result shape: %s", snippet(raw))
	}

	elems := v.Array()
	actions := make([]protocol.CodeAction, 0, len(elems))
	for _, e := range elems {
		if e.Get("command").Type == gjson.String {
			var cmd protocol.Command
			if err := json.Unmarshal(json.RawMessage(e.Raw), &cmd); err != nil {
				return nil, err
			}
			actions = append(actions, protocol.CodeAction{Title: cmd.Title, Command: &cmd})
			continue
		}
		var action protocol.CodeAction
		if err := json.Unmarshal(json.RawMessage(e.Raw), &action); err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

// DecodeDocumentSymbols flattens []DocumentSymbol (hierarchical) or
// []SymbolInformation (flat) into symbol information, depth-first so a
// symbol precedes its children. uri fills in the location for hierarchical
// results, which do not carry one.
func DecodeDocumentSymbols(raw json.RawMessage, uri protocol.DocumentURI) ([]protocol.SymbolInformation, error) {
	if isNull(raw) {
		return nil, nil
	}
	v := gjson.ParseBytes(raw)
	if !v.IsArray() {
		return nil, fmt.Errorf("unexpected symbol result shape: %s", snippet(raw))
	}
	elems := v.Array()
	if len(elems) == 0 {
		return nil, nil
	}

	if elems[0].Get("location").Exists() {
		var infos []protocol.SymbolInformation
		if err := json.Unmarshal(raw, &infos); err != nil {
			return nil, err
		}
		return infos, nil
	}

	var tree []protocol.DocumentSymbol
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	var flat []protocol.SymbolInformation
	flattenSymbols(tree, uri, "", &flat)
	return flat, nil
}

func flattenSymbols(symbols []protocol.DocumentSymbol, uri protocol.DocumentURI, container string, out *[]protocol.SymbolInformation) {
	for _, s := range symbols {
		*out = append(*out, protocol.SymbolInformation{
			Name:          s.Name,
			Kind:          s.Kind,
			ContainerName: container,
			Location:      protocol.Location{URI: uri, Range: s.SelectionRange},
		})
		flattenSymbols(s.Children, uri, s.Name, out)
	}
}

// DecodeWorkspaceSymbols decodes a workspace/symbol result. WorkspaceSymbol
// locations may omit the range ({uri} only); these decode with a zero range.
func DecodeWorkspaceSymbols(raw json.RawMessage) ([]protocol.SymbolInformation, error) {
	if isNull(raw) {
		return nil, nil
	}
	var infos []protocol.SymbolInformation
	if err := json.Unmarshal(raw, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// DecodeSignatureHelp decodes a signatureHelp result, reporting ok=false for
// a null or signature-less answer.
func DecodeSignatureHelp(raw json.RawMessage) (protocol.SignatureHelp, bool, error) {
	if isNull(raw) {
		return protocol.SignatureHelp{}, false, nil
	}
	var help protocol.SignatureHelp
	if err := json.Unmarshal(raw, &help); err != nil {
		return protocol.SignatureHelp{}, false, err
	}
	if len(help.Signatures) == 0 {
		return protocol.SignatureHelp{}, false, nil
	}
	return help, true, nil
}

// DecodeSelectionRanges decodes a selectionRange result: one chain per
// requested position.
func DecodeSelectionRanges(raw json.RawMessage) ([]protocol.SelectionRange, error) {
	if isNull(raw) {
		return nil, nil
	}
	var ranges []protocol.SelectionRange
	if err := json.Unmarshal(raw, &ranges); err != nil {
		return nil, err
	}
	return ranges, nil
}

// DecodeCallHierarchyItems decodes a prepareCallHierarchy result.
func DecodeCallHierarchyItems(raw json.RawMessage) ([]protocol.CallHierarchyItem, error) {
	if isNull(raw) {
		return nil, nil
	}
	var items []protocol.CallHierarchyItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DecodePrepareRename normalizes the prepareRename union: Range,
// {range, placeholder}, or {defaultBehavior}. ok=false means the server
// rejected the rename position.
func DecodePrepareRename(raw json.RawMessage) (protocol.PrepareRenameResult, bool, error) {
	if isNull(raw) {
		return protocol.PrepareRenameResult{}, false, nil
	}
	v := gjson.ParseBytes(raw)
	if v.Get("start").Exists() {
		var rng protocol.Range
		if err := json.Unmarshal(raw, &rng); err != nil {
			return protocol.PrepareRenameResult{}, false, err
		}
		return protocol.PrepareRenameResult{Range: &rng}, true, nil
	}
	var res protocol.PrepareRenameResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return protocol.PrepareRenameResult{}, false, err
	}
	if res.Range == nil && !res.DefaultBehavior {
		return protocol.PrepareRenameResult{}, false, nil
	}
	return res, true, nil
}

// DecodeWorkspaceEdit decodes a rename result.
func DecodeWorkspaceEdit(raw json.RawMessage) (protocol.WorkspaceEdit, bool, error) {
	if isNull(raw) {
		return protocol.WorkspaceEdit{}, false, nil
	}
	var edit protocol.WorkspaceEdit
	if err := json.Unmarshal(raw, &edit); err != nil {
		return protocol.WorkspaceEdit{}, false, err
	}
	return edit, true, nil
}

func snippet(raw json.RawMessage) string {
	const max = 64
	s := string(raw)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
