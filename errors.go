package chorus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chorus-lsp/chorus/aggregate"
)

var (
	// ErrNoCapability is reported before any dispatch when no registered
	// client supports the requested operation for the target document.
	ErrNoCapability = errors.New("no client supports the operation")

	// ErrRenameRejected is reported when every candidate in the rename
	// chain rejected the prepare phase; nothing was mutated.
	ErrRenameRejected = errors.New("all clients rejected the rename")

	// ErrSessionStale is reported by a selection session whose anchor no
	// longer matches the hub epoch; the session refuses to move.
	ErrSessionStale = errors.New("selection session invalidated by context change")
)

// FanoutError reports a fan-out in which every answering client failed.
// Individual client failures are never fatal on their own; this error only
// exists when there is no result to fall back on.
type FanoutError struct {
	Method string
	Errors []aggregate.ClientError
}

func (e *FanoutError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed on all %d clients", e.Method, len(e.Errors))
	for _, ce := range e.Errors {
		fmt.Fprintf(&b, "; %s: %s", ce.Client.Name(), ce.Err.Message)
	}
	return b.String()
}

// surface converts an all-failed outcome into a *FanoutError, or nil when at
// least one client produced a usable answer (including an empty one).
func surface[T any](method string, o aggregate.Outcome[T]) error {
	if !o.Failed() {
		return nil
	}
	return &FanoutError{Method: method, Errors: o.Errors}
}
