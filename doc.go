// Package chorus aggregates Language Server Protocol requests across
// multiple concurrently attached language servers. One logical operation
// fans out to every capable client, per-client answers are collected as
// they arrive, and the merged outcome is classified and tie-broken by
// client registration order, so results are deterministic regardless of
// which server answered first.
//
// A minimal consumer wires a registry, a transport, and the collaborators
// that act on results:
//
//	reg, _ := chorus.OpenRoster("servers.toml", nil)
//	hub := chorus.New(reg, myTransport,
//		chorus.WithSelector(mySelector),
//		chorus.WithApplier(myApplier),
//	)
//	err := hub.GoToDefinition(ctx, uri, pos)
//
// See the examples/ directory for progressively more complete consumers.
package chorus
