// Package graft is a declarative dependency-resolution and object
// construction engine.
//
// Given a requested capability key (a base identity plus optional attribute
// and qualifier tags), graft discovers every valid way to build a value of
// that key from the registered rules and stored instances, assembles the
// discovery into explicit dependency blueprints, and materializes chosen
// blueprints into concrete objects, deduplicating work per builder and
// sharing in-flight construction across concurrent requests.
//
// The pieces, leaves first:
//
//   - keys: capability keys (identity, ancestors, attributes, qualifiers)
//   - resolution: resolution modes (exhaustive, select_first, unique)
//   - registry: the typed index with variance-qualified lookup
//   - rules: registered construction rules and their provider
//   - store: the instance container and its provider
//   - blueprint: the recursive blueprint resolver
//   - builder: sync and async blueprint materialization
//
// This package ties them together behind a small surface: Add instances,
// Register rules, then Get / GetOrCreate values. Wiring stays explicit:
// there is no reflection over your constructors; every rule declares its
// output key and parameter keys itself.
//
// Start with cmd/graftdemo for end-to-end wiring style.
package graft
