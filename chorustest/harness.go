package chorustest

import (
	"context"
	"sync"

	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/pick"
	"github.com/chorus-lsp/chorus/protocol"
)

// Registry is a fixed-order registry for tests. Order in Clients is the
// registration order.
type Registry struct {
	Clients []dispatch.Client
}

// NewRegistry builds a registry from clients in registration order.
func NewRegistry(clients ...dispatch.Client) *Registry {
	return &Registry{Clients: clients}
}

func (r *Registry) ClientsFor(method string, _ protocol.DocumentURI) []dispatch.Client {
	var out []dispatch.Client
	for _, c := range r.Clients {
		if c.Supports(method) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) ClientByID(id string) (dispatch.Client, bool) {
	for _, c := range r.Clients {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// PickIndex returns a selector that always chooses the given index.
func PickIndex(i int) pick.Selector {
	return pick.SelectorFunc(func(context.Context, string, []pick.Choice) (int, bool, error) {
		return i, true, nil
	})
}

// PickNone returns a selector that always dismisses the choice.
func PickNone() pick.Selector {
	return pick.SelectorFunc(func(context.Context, string, []pick.Choice) (int, bool, error) {
		return 0, false, nil
	})
}

// ChoiceRecorder wraps a selector and records the choices it was shown.
type ChoiceRecorder struct {
	Inner pick.Selector

	mu      sync.Mutex
	Prompts []string
	Shown   [][]pick.Choice
}

func (r *ChoiceRecorder) Select(ctx context.Context, prompt string, choices []pick.Choice) (int, bool, error) {
	r.mu.Lock()
	r.Prompts = append(r.Prompts, prompt)
	r.Shown = append(r.Shown, choices)
	r.mu.Unlock()
	if r.Inner == nil {
		return 0, false, nil
	}
	return r.Inner.Select(ctx, prompt, choices)
}
