// Package blueprint implements the blueprint resolver: the recursive graph
// enumeration that discovers every valid way to construct a value for a
// requested key from a set of registered providers.
package blueprint

import (
	"context"

	"github.com/sghaida/graft/keys"
)

// Args carries the built dependency values into a constructor, keyed by
// parameter name.
type Args map[string]any

// ConstructFunc is a constructor callable. Synchronous constructors ignore
// the context; asynchronous ones may suspend on it.
type ConstructFunc func(ctx context.Context, args Args) (any, error)

// Dependency declares one named dependency of a constructor.
type Dependency struct {
	// Name is the parameter name the built value is bound to.
	Name string

	// Key is the capability key the dependency is resolved with.
	Key keys.Key
}

// Constructor is an unresolved candidate: a callable plus its declared
// dependency keys. Constructors are produced on demand by providers and are
// not persisted beyond the resolver's per-key memo.
type Constructor struct {
	// Source identifies the origin of the constructor, e.g.
	// "rule::pkg.CreateThing" or "container::main::db-0".
	Source string

	// Call produces the value once every dependency has been built.
	Call ConstructFunc

	// IsAsync marks constructors that require the asynchronous builder.
	IsAsync bool

	// IsOptional marks constructors allowed to produce no value.
	IsOptional bool

	// Output is the key the constructor satisfies.
	Output keys.Key

	// Dependencies lists the declared parameter keys.
	Dependencies []Dependency
}

// Provider enumerates candidate constructors for a key.
//
// Absence is silent: a provider that has nothing for the key returns an
// empty slice, never an error.
type Provider interface {
	ProvideFor(key keys.Key) []Constructor
}

// Static wraps an existing value as a zero-dependency constructor callable.
func Static(value any) ConstructFunc {
	return func(context.Context, Args) (any, error) { return value, nil }
}
