package chorus

import (
	"context"

	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/protocol"
)

// Client is an opaque handle to one language server, owned by a Registry.
type Client = dispatch.Client

// Registry supplies the candidate clients for an operation. ClientsFor
// returns clients in registration order; that order is the tie-break key
// everywhere in chorus, so implementations must keep it stable between
// calls. An empty URI means a workspace-wide request with no document to
// scope by.
type Registry interface {
	ClientsFor(method string, uri protocol.DocumentURI) []dispatch.Client
	ClientByID(id string) (dispatch.Client, bool)
}

// EffectKind tags what an Effect asks the consumer to do.
type EffectKind int

const (
	// EffectJump navigates to Location.
	EffectJump EffectKind = iota
	// EffectEdit applies Edit to the workspace.
	EffectEdit
	// EffectShow presents Text to the user.
	EffectShow
)

func (k EffectKind) String() string {
	switch k {
	case EffectJump:
		return "jump"
	case EffectEdit:
		return "edit"
	case EffectShow:
		return "show"
	}
	return "unknown"
}

// Effect is the single outward-facing product of a driven operation. The hub
// never mutates documents or UI itself; it hands a kind-tagged effect to the
// Applier. Client is the server that produced the payload; it is nil for
// merged text assembled from several clients.
type Effect struct {
	Kind     EffectKind
	Client   dispatch.Client
	Location *protocol.Location
	Edit     *protocol.WorkspaceEdit
	Text     string
	TextKind protocol.MarkupKind
}

// Applier executes effects on behalf of the hub: jumping the editor to a
// location, applying a workspace edit, presenting text. A hub without an
// applier drops effects silently, which suits consumers that only read
// outcomes.
type Applier interface {
	Apply(ctx context.Context, e Effect) error
}

// ApplierFunc adapts a function to the Applier interface.
type ApplierFunc func(ctx context.Context, e Effect) error

func (f ApplierFunc) Apply(ctx context.Context, e Effect) error { return f(ctx, e) }

// LineSource supplies the text of one line of a document, enabling
// per-client offset-encoding translation of positions. Chorus does not
// manage document content; consumers that hold buffers provide this.
type LineSource func(uri protocol.DocumentURI, line uint32) (string, bool)
