package chorustest

import (
	"fmt"
	"strings"

	"github.com/chorus-lsp/chorus/protocol"
)

// FileURI creates a file:// URI from a path.
func FileURI(path string) protocol.DocumentURI {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return protocol.DocumentURI(fmt.Sprintf("file://%s", path))
}

// Pos creates a protocol.Position from line and character (0-indexed).
func Pos(line, char uint32) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

// Rng creates a protocol.Range from start and end positions.
func Rng(startLine, startChar, endLine, endChar uint32) protocol.Range {
	return protocol.Range{
		Start: Pos(startLine, startChar),
		End:   Pos(endLine, endChar),
	}
}

// Loc creates a protocol.Location.
func Loc(path string, startLine, startChar, endLine, endChar uint32) protocol.Location {
	return protocol.Location{
		URI:   FileURI(path),
		Range: Rng(startLine, startChar, endLine, endChar),
	}
}
