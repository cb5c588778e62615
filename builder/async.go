package builder

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sghaida/graft/blueprint"
	"github.com/sghaida/graft/keys"
)

// future is an in-flight unit of construction work. It is stored in the
// cache before completion so concurrent requests attach to the same build
// instead of spawning duplicates.
type future struct {
	done chan struct{}
	val  any
	err  error
}

func (f *future) await(ctx context.Context) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.val, f.err
	}
}

// AsyncBuilder builds values from blueprints, supporting async
// constructors.
//
// Concurrent Build calls for the same blueprint observe exactly one
// underlying execution: at-most-once side effects per blueprint per builder
// instance. If a build fails, the failure propagates to every awaiter of
// the shared future; there is no retry.
type AsyncBuilder struct {
	mu    sync.Mutex
	cache map[string]*future
	sink  Sink
	pool  *semaphore.Weighted
}

// AsyncOption configures an AsyncBuilder.
type AsyncOption func(*AsyncBuilder)

// WithAsyncSink publishes every non-nil built value to sink.
func WithAsyncSink(sink Sink) AsyncOption {
	return func(b *AsyncBuilder) { b.sink = sink }
}

// WithDispatchLimit bounds how many synchronous constructors may run
// concurrently. Without a limit, synchronous constructors run inline on the
// calling goroutine.
func WithDispatchLimit(n int64) AsyncOption {
	return func(b *AsyncBuilder) { b.pool = semaphore.NewWeighted(n) }
}

// NewAsync creates an AsyncBuilder.
func NewAsync(opts ...AsyncOption) *AsyncBuilder {
	b := &AsyncBuilder{cache: make(map[string]*future)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Cached returns the completed value for bp if a build already finished.
func (b *AsyncBuilder) Cached(bp *blueprint.Blueprint) (any, bool) {
	b.mu.Lock()
	f, ok := b.cache[bp.Digest()]
	b.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-f.done:
		if f.err != nil {
			return nil, false
		}
		return f.val, true
	default:
		return nil, false
	}
}

// Build materializes bp. Dependency builds fan out concurrently; the
// constructor is invoked once all of them complete.
func (b *AsyncBuilder) Build(ctx context.Context, bp *blueprint.Blueprint) (any, error) {
	b.mu.Lock()
	if f, ok := b.cache[bp.Digest()]; ok {
		b.mu.Unlock()
		return f.await(ctx)
	}
	f := &future{done: make(chan struct{})}
	b.cache[bp.Digest()] = f
	b.mu.Unlock()

	value, err := b.build(ctx, bp)
	if err == nil && value != nil && b.sink != nil {
		tagged := bp.Output().WithAttribute(keys.ProvidedBy(bp.Source()))
		err = b.sink.Save(tagged, value)
	}
	f.val, f.err = value, err
	close(f.done)
	return value, err
}

func (b *AsyncBuilder) build(ctx context.Context, bp *blueprint.Blueprint) (any, error) {
	deps := bp.Dependencies()
	args := make(blueprint.Args, len(deps))

	if len(deps) > 0 {
		var argsMu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for _, dep := range deps {
			g.Go(func() error {
				value, err := b.Build(gctx, dep.Blueprint)
				if err != nil {
					return err
				}
				if value == nil {
					return &NoValueError{Key: dep.Blueprint.Output()}
				}
				argsMu.Lock()
				args[dep.Name] = value
				argsMu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	value, err := b.construct(ctx, bp, args)
	if err != nil {
		return nil, err
	}
	if value == nil && !bp.IsOptional() {
		return nil, &NonOptionalBuilderMismatchError{Blueprint: bp}
	}
	return value, nil
}

// construct invokes the constructor, dispatching synchronous ones through
// the bounded pool when configured so they do not saturate the scheduler.
func (b *AsyncBuilder) construct(ctx context.Context, bp *blueprint.Blueprint, args blueprint.Args) (any, error) {
	if bp.IsAsync() || b.pool == nil {
		return bp.Construct(ctx, args)
	}
	if err := b.pool.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.pool.Release(1)
	return bp.Construct(ctx, args)
}
