package chorustest

import (
	"context"
	"sync"

	"github.com/chorus-lsp/chorus"
)

// EffectRecorder implements chorus.Applier, recording every effect it is
// handed. Err, when set, is returned from each Apply call.
type EffectRecorder struct {
	mu      sync.Mutex
	effects []chorus.Effect

	Err error
}

func (r *EffectRecorder) Apply(_ context.Context, e chorus.Effect) error {
	r.mu.Lock()
	r.effects = append(r.effects, e)
	r.mu.Unlock()
	return r.Err
}

// Effects returns a snapshot of the recorded effects.
func (r *EffectRecorder) Effects() []chorus.Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]chorus.Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// Last returns the most recent effect.
func (r *EffectRecorder) Last() (chorus.Effect, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.effects) == 0 {
		return chorus.Effect{}, false
	}
	return r.effects[len(r.effects)-1], true
}
