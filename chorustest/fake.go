// Package chorustest provides testing utilities for chorus hubs: fake
// clients, a transport that replays scripted responses without wire I/O,
// recording collaborators, and assertion helpers for aggregation outcomes.
package chorustest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chorus-lsp/chorus/dispatch"
	"github.com/chorus-lsp/chorus/protocol"
)

// FakeClient implements dispatch.Client for tests.
type FakeClient struct {
	ClientID string
	Label    string
	// Methods is an allowlist; nil means the client supports everything.
	Methods []string
	// Enc defaults to utf-16 when empty.
	Enc protocol.OffsetEncoding
}

func (c *FakeClient) ID() string { return c.ClientID }

func (c *FakeClient) Name() string {
	if c.Label != "" {
		return c.Label
	}
	return c.ClientID
}

func (c *FakeClient) Supports(method string) bool {
	if c.Methods == nil {
		return true
	}
	for _, m := range c.Methods {
		if m == method {
			return true
		}
	}
	return false
}

func (c *FakeClient) Encoding() protocol.OffsetEncoding {
	if c.Enc == "" {
		return protocol.EncodingUTF16
	}
	return c.Enc
}

// Reply is one scripted answer.
type Reply struct {
	Result json.RawMessage
	Err    *protocol.ResponseError
	// Delay is waited before answering, bounded by the call context.
	Delay time.Duration
	// Gone simulates a client deregistered mid-flight.
	Gone bool
}

// Call records one transport exchange.
type Call struct {
	ClientID string
	Method   string
	Params   json.RawMessage
}

// ScriptTransport replays scripted replies keyed by client and method, and
// records every call it sees. An unscripted method answers with a
// method-not-found protocol error, which keeps forgotten scripts visible in
// outcome errors instead of hanging tests.
type ScriptTransport struct {
	mu      sync.Mutex
	replies map[string][]Reply
	calls   []Call
}

// NewTransport creates an empty scripted transport.
func NewTransport() *ScriptTransport {
	return &ScriptTransport{replies: make(map[string][]Reply)}
}

func key(clientID, method string) string { return clientID + " " + method }

// Script queues a reply for one client and method. Multiple scripts for the
// same key are consumed in order, the last one sticking.
func (t *ScriptTransport) Script(clientID, method string, r Reply) *ScriptTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key(clientID, method)
	t.replies[k] = append(t.replies[k], r)
	return t
}

// Reply scripts a successful result, marshalled from v.
func (t *ScriptTransport) Reply(clientID, method string, v any) *ScriptTransport {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("chorustest: marshalling scripted reply: %v", err))
	}
	return t.Script(clientID, method, Reply{Result: raw})
}

// ReplyRaw scripts a successful result from a JSON literal.
func (t *ScriptTransport) ReplyRaw(clientID, method, raw string) *ScriptTransport {
	return t.Script(clientID, method, Reply{Result: json.RawMessage(raw)})
}

// ReplyAfter scripts a delayed successful result.
func (t *ScriptTransport) ReplyAfter(clientID, method string, d time.Duration, v any) *ScriptTransport {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("chorustest: marshalling scripted reply: %v", err))
	}
	return t.Script(clientID, method, Reply{Result: raw, Delay: d})
}

// Fail scripts a protocol error.
func (t *ScriptTransport) Fail(clientID, method string, code int, msg string) *ScriptTransport {
	return t.Script(clientID, method, Reply{Err: &protocol.ResponseError{Code: code, Message: msg}})
}

// Gone scripts a mid-flight deregistration.
func (t *ScriptTransport) Gone(clientID, method string) *ScriptTransport {
	return t.Script(clientID, method, Reply{Gone: true})
}

// Calls returns the recorded calls for a method, in arrival order.
func (t *ScriptTransport) Calls(method string) []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Call
	for _, c := range t.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Call implements dispatch.Transport.
func (t *ScriptTransport) Call(ctx context.Context, client dispatch.Client, method string, params json.RawMessage) (json.RawMessage, error) {
	t.mu.Lock()
	t.calls = append(t.calls, Call{ClientID: client.ID(), Method: method, Params: params})
	k := key(client.ID(), method)
	queue := t.replies[k]
	var r Reply
	switch len(queue) {
	case 0:
		t.mu.Unlock()
		return nil, &protocol.ResponseError{
			Code:    protocol.CodeMethodNotFound,
			Message: fmt.Sprintf("no scripted reply for %s on %s", method, client.ID()),
		}
	case 1:
		r = queue[0]
	default:
		r = queue[0]
		t.replies[k] = queue[1:]
	}
	t.mu.Unlock()

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.Gone {
		return nil, dispatch.ErrClientGone
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Result, nil
}
