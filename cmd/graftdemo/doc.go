// Command graftdemo — end-to-end wiring with the graft engine.
//
// The demo wires a small service graph without any reflection:
//
//   - a Config value added to the container as an existing instance
//   - rules constructing a Store and a Cache from the Config
//   - two competing rules for a Notifier, to show resolution modes
//   - a Service rule depending on all of the above
//
// It then resolves and builds the graph three ways:
//
//  1. GetOrCreateAsyncWith(select_first): the first registered Notifier
//     wins.
//  2. GetOrCreateAllAsyncWith(exhaustive): one Service per Notifier
//     candidate.
//  3. GetOrCreateAsyncWith(unique): fails, because two non-optional
//     Notifier rules compete for the same key.
//
// Run it with:
//
//	go run ./cmd/graftdemo
package main
