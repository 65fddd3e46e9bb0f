package chorus

import (
	"github.com/chorus-lsp/chorus/protocol"
)

// Anchor captures the context of an operation at its start: the document,
// the position, and the hub epoch the operation was launched under. Anchors
// are plain values; once captured they never observe later context changes,
// which is what makes the staleness check race-free.
type Anchor struct {
	URI      protocol.DocumentURI
	Position protocol.Position

	epoch uint64
}

// anchorAt captures an anchor under the current epoch.
func (h *Hub) anchorAt(uri protocol.DocumentURI, pos protocol.Position) Anchor {
	return Anchor{URI: uri, Position: pos, epoch: h.epoch.Load()}
}

// fresh reports whether the anchor's epoch still matches the hub's. A stale
// anchor means the editing context moved on while the operation was in
// flight; its result must be discarded silently.
func (h *Hub) fresh(a Anchor) bool {
	return h.epoch.Load() == a.epoch
}
