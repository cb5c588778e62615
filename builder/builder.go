// Package builder materializes blueprints into concrete values.
//
// Builder is the synchronous variant: single-threaded recursion over the
// blueprint tree with a per-instance result memo, so a sub-blueprint shared
// by a diamond graph is built exactly once. AsyncBuilder adds cooperative
// concurrency: the memo holds in-flight futures, concurrent requests for
// the same blueprint await the same unit of work, and dependency builds fan
// out concurrently.
//
// Build results are scoped to one builder instance. Callers needing fresh
// builds use a fresh builder.
package builder

import (
	"context"

	"github.com/sghaida/graft/blueprint"
	"github.com/sghaida/graft/keys"
)

// Sink receives built values so later resolutions can reuse them. The key
// is tagged with the producing blueprint's source as provenance.
type Sink interface {
	Save(key keys.Key, value any) error
}

// Builder builds values from blueprints synchronously.
type Builder struct {
	cache map[string]any
	sink  Sink
}

// Option configures a Builder.
type Option func(*Builder)

// WithSink publishes every non-nil built value to sink.
func WithSink(sink Sink) Option {
	return func(b *Builder) { b.sink = sink }
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{cache: make(map[string]any)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Cached returns the previously built value for bp, if any.
func (b *Builder) Cached(bp *blueprint.Blueprint) (any, bool) {
	v, ok := b.cache[bp.Digest()]
	return v, ok
}

// Build materializes bp, invoking constructors bottom-up. Each distinct
// blueprint is built at most once per Builder instance.
func (b *Builder) Build(bp *blueprint.Blueprint) (any, error) {
	if bp.IsAsync() {
		return nil, &AsyncBlueprintError{Blueprint: bp}
	}
	if value, ok := b.cache[bp.Digest()]; ok {
		return value, nil
	}

	value, err := b.build(bp)
	if err != nil {
		return nil, err
	}
	if value != nil {
		b.cache[bp.Digest()] = value
		if b.sink != nil {
			tagged := bp.Output().WithAttribute(keys.ProvidedBy(bp.Source()))
			if err := b.sink.Save(tagged, value); err != nil {
				return nil, err
			}
		}
	}
	return value, nil
}

func (b *Builder) build(bp *blueprint.Blueprint) (any, error) {
	deps := bp.Dependencies()
	args := make(blueprint.Args, len(deps))
	for _, dep := range deps {
		value, err := b.Build(dep.Blueprint)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, &NoValueError{Key: dep.Blueprint.Output()}
		}
		args[dep.Name] = value
	}

	value, err := bp.Construct(context.Background(), args)
	if err != nil {
		return nil, err
	}
	if value == nil && !bp.IsOptional() {
		return nil, &NonOptionalBuilderMismatchError{Blueprint: bp}
	}
	return value, nil
}
