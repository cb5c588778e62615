package graft

import (
	"context"
	"errors"
	"reflect"

	"github.com/sghaida/graft/blueprint"
	"github.com/sghaida/graft/builder"
	"github.com/sghaida/graft/keys"
	"github.com/sghaida/graft/resolution"
	"github.com/sghaida/graft/rules"
	"github.com/sghaida/graft/store"
)

// Graft composes the container, rule registry, resolver and builders behind
// get-one / get-all / get-or-create conveniences.
//
// Registration (Add, Register) is a barrier: it invalidates the resolver's
// constructor memo. Do not register concurrently with in-flight
// resolutions.
type Graft struct {
	container    *store.Container
	rules        *rules.Registry
	resolver     *blueprint.Resolver
	builder      *builder.Builder
	asyncBuilder *builder.AsyncBuilder
	defaultMode  resolution.Mode
}

// Option configures a Graft.
type Option func(*config)

type config struct {
	name          string
	rules         []rules.Rule
	defaultMode   resolution.Mode
	dispatchLimit int64
	allowAsync    bool
}

// WithName names the underlying container.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithRules registers rules at construction time.
func WithRules(rs ...rules.Rule) Option {
	return func(c *config) { c.rules = append(c.rules, rs...) }
}

// WithDefaultResolution sets the resolution mode used when a call supplies
// none. The initial default is resolution.Default.
func WithDefaultResolution(mode resolution.Mode) Option {
	return func(c *config) { c.defaultMode = mode }
}

// WithDispatchLimit bounds concurrent synchronous constructor invocations
// in the async builder.
func WithDispatchLimit(n int64) Option {
	return func(c *config) { c.dispatchLimit = n }
}

// SyncOnly rejects async rules at registration time. Use it when only the
// synchronous GetOrCreate surface will ever run.
func SyncOnly() Option {
	return func(c *config) { c.allowAsync = false }
}

// New creates a Graft engine.
func New(opts ...Option) (*Graft, error) {
	cfg := config{defaultMode: resolution.Default, allowAsync: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	var ruleOpts []rules.RegistryOption
	if !cfg.allowAsync {
		ruleOpts = append(ruleOpts, rules.DisallowAsync())
	}
	ruleRegistry := rules.NewRegistry(ruleOpts...)
	if err := ruleRegistry.RegisterAll(cfg.rules...); err != nil {
		return nil, err
	}

	var containerOpts []store.ContainerOption
	if cfg.name != "" {
		containerOpts = append(containerOpts, store.WithName(cfg.name))
	}
	container := store.NewContainer(containerOpts...)

	resolver := blueprint.NewResolver(
		blueprint.WithProviders(
			store.NewProvider(container),
			rules.NewProvider(ruleRegistry),
		),
		blueprint.WithDefaultMode(cfg.defaultMode),
	)

	asyncOpts := []builder.AsyncOption{builder.WithAsyncSink(container)}
	if cfg.dispatchLimit > 0 {
		asyncOpts = append(asyncOpts, builder.WithDispatchLimit(cfg.dispatchLimit))
	}

	return &Graft{
		container:    container,
		rules:        ruleRegistry,
		resolver:     resolver,
		builder:      builder.New(builder.WithSink(container)),
		asyncBuilder: builder.NewAsync(asyncOpts...),
		defaultMode:  cfg.defaultMode,
	}, nil
}

// Container exposes the underlying instance container.
func (g *Graft) Container() *store.Container { return g.container }

// Resolver exposes the underlying blueprint resolver.
func (g *Graft) Resolver() *blueprint.Resolver { return g.resolver }

// Add stores an existing value under key and invalidates the resolver
// memo.
func (g *Graft) Add(value any, key keys.Key, opts ...store.AddOption) error {
	if err := g.container.Add(value, key, opts...); err != nil {
		return err
	}
	g.resolver.ClearMemo()
	return nil
}

// Register adds construction rules and invalidates the resolver memo.
func (g *Graft) Register(rs ...rules.Rule) error {
	if err := g.rules.RegisterAll(rs...); err != nil {
		return err
	}
	g.resolver.ClearMemo()
	return nil
}

// Get returns the single existing instance for key.
func (g *Graft) Get(key keys.Key) (any, error) {
	return g.container.Get(key)
}

// GetAll returns every existing instance for key.
func (g *Graft) GetAll(key keys.Key) []any {
	return g.container.GetAll(key)
}

// GetOrCreate returns one value for key, building it if no instance
// exists, using the default resolution mode.
func (g *Graft) GetOrCreate(key keys.Key) (any, error) {
	return g.GetOrCreateWith(key, nil)
}

// GetOrCreateWith is GetOrCreate with an explicit resolution mode.
func (g *Graft) GetOrCreateWith(key keys.Key, mode resolution.Mode) (any, error) {
	plans, err := g.resolveOne(key, mode)
	if err != nil {
		return nil, err
	}
	return buildFirst(plans, key, func(bp *blueprint.Blueprint) (any, error) {
		return g.builder.Build(bp)
	})
}

// GetOrCreateAll returns one value per distinct way of satisfying key,
// using the default resolution mode below an exhaustive top level.
func (g *Graft) GetOrCreateAll(key keys.Key) ([]any, error) {
	return g.GetOrCreateAllWith(key, nil)
}

// GetOrCreateAllWith is GetOrCreateAll with an explicit resolution mode.
func (g *Graft) GetOrCreateAllWith(key keys.Key, mode resolution.Mode) ([]any, error) {
	plans, err := g.resolveAll(key, mode)
	if err != nil {
		return nil, err
	}
	return buildEach(plans, func(bp *blueprint.Blueprint) (any, error) {
		return g.builder.Build(bp)
	})
}

// GetOrCreateAsync is GetOrCreate supporting async rules.
func (g *Graft) GetOrCreateAsync(ctx context.Context, key keys.Key) (any, error) {
	return g.GetOrCreateAsyncWith(ctx, key, nil)
}

// GetOrCreateAsyncWith is GetOrCreateAsync with an explicit resolution
// mode.
func (g *Graft) GetOrCreateAsyncWith(ctx context.Context, key keys.Key, mode resolution.Mode) (any, error) {
	plans, err := g.resolveOne(key, mode)
	if err != nil {
		return nil, err
	}
	return buildFirst(plans, key, func(bp *blueprint.Blueprint) (any, error) {
		return g.asyncBuilder.Build(ctx, bp)
	})
}

// GetOrCreateAllAsync is GetOrCreateAll supporting async rules.
func (g *Graft) GetOrCreateAllAsync(ctx context.Context, key keys.Key) ([]any, error) {
	return g.GetOrCreateAllAsyncWith(ctx, key, nil)
}

// GetOrCreateAllAsyncWith is GetOrCreateAllAsync with an explicit
// resolution mode.
func (g *Graft) GetOrCreateAllAsyncWith(ctx context.Context, key keys.Key, mode resolution.Mode) ([]any, error) {
	plans, err := g.resolveAll(key, mode)
	if err != nil {
		return nil, err
	}
	return buildEach(plans, func(bp *blueprint.Blueprint) (any, error) {
		return g.asyncBuilder.Build(ctx, bp)
	})
}

func (g *Graft) mode(mode resolution.Mode) resolution.Mode {
	if mode == nil {
		return g.defaultMode
	}
	return mode
}

// resolveOne resolves for a get-one surface: at most one non-optional plan
// may remain, preceded by its optional fallbacks.
func (g *Graft) resolveOne(key keys.Key, mode resolution.Mode) ([]*blueprint.Blueprint, error) {
	plans, err := g.resolver.Resolve(key, g.mode(mode))
	if err != nil {
		return nil, err
	}
	selected := make([]*blueprint.Blueprint, 0, len(plans))
	var nonOptional *blueprint.Blueprint
	for _, plan := range plans {
		if plan.IsOptional() {
			if nonOptional == nil {
				selected = append(selected, plan)
			}
			continue
		}
		if nonOptional != nil {
			return nil, &blueprint.MultipleResolutionError{
				Key:     key,
				Sources: []string{nonOptional.Source(), plan.Source()},
			}
		}
		nonOptional = plan
		selected = append(selected, plan)
	}
	if len(selected) == 0 {
		return nil, &blueprint.NoResolutionError{Key: key}
	}
	return selected, nil
}

// resolveAll resolves for a get-all surface: exhaustive at the top level,
// the chosen mode below. A resolution failure caused purely by missing
// constructors yields an empty result instead of an error.
func (g *Graft) resolveAll(key keys.Key, mode resolution.Mode) ([]*blueprint.Blueprint, error) {
	plans, err := g.resolver.Resolve(key, resolution.Join(resolution.Exhaustive, g.mode(mode)))
	if err != nil {
		var failure *blueprint.ResolutionFailureError
		if errors.As(err, &failure) && onlyNoConstructor(failure) {
			return nil, nil
		}
		return nil, err
	}
	return plans, nil
}

func onlyNoConstructor(failure *blueprint.ResolutionFailureError) bool {
	for _, err := range failure.Errs {
		var noCtor *blueprint.NoConstructorError
		if !errors.As(err, &noCtor) {
			return false
		}
	}
	return true
}

// buildFirst builds plans in order until one yields a value. A dependency
// producing no value only disqualifies that plan.
func buildFirst(plans []*blueprint.Blueprint, key keys.Key, build func(*blueprint.Blueprint) (any, error)) (any, error) {
	for _, plan := range plans {
		value, err := build(plan)
		if err != nil {
			var noValue *builder.NoValueError
			if errors.As(err, &noValue) {
				continue
			}
			return nil, err
		}
		if value != nil {
			return value, nil
		}
	}
	return nil, &builder.NoValueError{Key: key}
}

// buildEach builds every plan, skipping value-less optional outcomes and
// deduplicating plans that are value-equal.
func buildEach(plans []*blueprint.Blueprint, build func(*blueprint.Blueprint) (any, error)) ([]any, error) {
	var out []any
	seen := make(map[string]struct{}, len(plans))
	for _, plan := range plans {
		if _, dup := seen[plan.Digest()]; dup {
			continue
		}
		seen[plan.Digest()] = struct{}{}
		value, err := build(plan)
		if err != nil {
			var noValue *builder.NoValueError
			if errors.As(err, &noValue) {
				continue
			}
			return nil, err
		}
		if value != nil {
			out = append(out, value)
		}
	}
	return out, nil
}

// GetOrCreateAs returns one value for key typed as T.
func GetOrCreateAs[T any](g *Graft, key keys.Key) (T, error) {
	var zero T
	raw, err := g.GetOrCreate(key)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &store.WrongTypeInstanceError{Key: key, GotType: reflect.TypeOf(raw).String()}
	}
	return v, nil
}
