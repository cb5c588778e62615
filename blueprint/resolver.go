package blueprint

import (
	"errors"
	"sort"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sghaida/graft/keys"
	"github.com/sghaida/graft/resolution"
)

const rootParam = "__root__"

// Resolver enumerates every blueprint satisfying a key from the registered
// providers.
//
// Resolution itself is pure graph traversal with no I/O. The candidate
// constructors per key are memoized; registering a provider is a barrier
// that flushes the memo. Concurrent Resolve calls are safe between
// registrations; registration is serialized against resolution by the
// resolver's lock.
type Resolver struct {
	mu          sync.RWMutex
	providers   []Provider
	memo        *gocache.Cache
	defaultMode resolution.Mode
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithProviders seeds the resolver with providers, in registration order.
func WithProviders(providers ...Provider) ResolverOption {
	return func(r *Resolver) { r.providers = append(r.providers, providers...) }
}

// WithDefaultMode sets the mode used when Resolve receives a nil mode.
func WithDefaultMode(mode resolution.Mode) ResolverOption {
	return func(r *Resolver) { r.defaultMode = mode }
}

// NewResolver creates a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		memo:        gocache.New(gocache.NoExpiration, 0),
		defaultMode: resolution.Default,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterProvider appends a provider. The constructor memo is no longer
// valid afterwards and is flushed.
func (r *Resolver) RegisterProvider(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.providers {
		if existing == p {
			return ErrProviderRegistered
		}
	}
	r.providers = append(r.providers, p)
	r.memo.Flush()
	return nil
}

// ClearMemo invalidates the constructor memo. Callers mutating a provider's
// backing data (e.g. adding an instance to a container) must call this
// before resolving again.
func (r *Resolver) ClearMemo() {
	r.memo.Flush()
}

// Resolve enumerates every blueprint satisfying key under the given mode,
// sorted ascending by priority tuple. A nil mode selects the resolver's
// default.
//
// Branch-local failures (missing constructors, cycles) surface only as an
// aggregated *ResolutionFailureError once every branch for the key has
// failed. Uniqueness violations and invalid modes surface directly.
func (r *Resolver) Resolve(key keys.Key, mode resolution.Mode) ([]*Blueprint, error) {
	if mode == nil {
		mode = r.defaultMode
	}
	if !mode.Valid() {
		return nil, &InvalidResolutionModeError{Mode: mode}
	}
	out, err := r.resolve(key, rootParam, mode, nil)
	if err != nil {
		var noCtor *NoConstructorError
		var cyclic *CyclicDependencyError
		if errors.As(err, &noCtor) || errors.As(err, &cyclic) {
			var failure *ResolutionFailureError
			if errors.As(err, &failure) {
				return nil, err
			}
			return nil, &ResolutionFailureError{Key: key, Errs: []error{err}}
		}
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].priority.Compare(out[j].priority) < 0
	})
	return out, nil
}

// plans returns the memoized candidate constructors for key, in provider
// registration order.
func (r *Resolver) plans(key keys.Key, trace Traces) ([]Constructor, error) {
	memoKey := key.Canonical()
	if cached, ok := r.memo.Get(memoKey); ok {
		plans := cached.([]Constructor)
		if len(plans) == 0 {
			return nil, &NoConstructorError{Key: key, Traces: trace}
		}
		return plans, nil
	}

	r.mu.RLock()
	providers := r.providers
	r.mu.RUnlock()

	var plans []Constructor
	for _, provider := range providers {
		plans = append(plans, provider.ProvideFor(key)...)
	}
	r.memo.Set(memoKey, plans, gocache.NoExpiration)

	if len(plans) == 0 {
		return nil, &NoConstructorError{Key: key, Traces: trace}
	}
	return plans, nil
}

func (r *Resolver) resolve(key keys.Key, name string, mode resolution.Mode, trace Traces) ([]*Blueprint, error) {
	cur, rest := mode.Split()

	// An explicit mode-override qualifier on the key always wins over the
	// caller's chosen mode, and governs the levels below it as well.
	if q, ok := key.Qualifiers().Get(keys.QualResolution); ok {
		override, isOverride := q.(keys.ResolutionOf)
		if !isOverride || !override.Mode().Valid() {
			return nil, &InvalidResolutionModeError{Mode: resolution.Of(resolution.Type(q.Value()))}
		}
		cur = override.Mode()
		rest = resolution.Of(cur)
	}

	plans, err := r.plans(key, trace)
	if err != nil {
		return nil, err
	}

	var branchErrs []error
	var out []*Blueprint
	for planOrder, plan := range plans {
		bps, err := r.resolvePlan(key, name, plan, planOrder, rest, trace)
		if err != nil {
			var failure *ResolutionFailureError
			var noCtor *NoConstructorError
			var cyclic *CyclicDependencyError
			switch {
			case errors.As(err, &failure):
				branchErrs = append(branchErrs, failure.Errs...)
			case errors.As(err, &noCtor), errors.As(err, &cyclic):
				branchErrs = append(branchErrs, err)
			default:
				// Uniqueness violations and programmer errors are not
				// branch-local; they surface unmodified.
				return nil, err
			}
			continue
		}
		out = append(out, bps...)
	}
	if len(out) == 0 && len(branchErrs) > 0 {
		return nil, &ResolutionFailureError{Key: key, Traces: trace, Errs: branchErrs}
	}
	return applyMode(cur, key, trace, out)
}

func (r *Resolver) resolvePlan(key keys.Key, name string, plan Constructor, planOrder int, rest resolution.Mode, trace Traces) ([]*Blueprint, error) {
	curr := Trace{Source: plan.Source, Param: name, Key: key}
	if trace.Contains(curr) {
		return nil, &CyclicDependencyError{Key: key, Traces: trace.Chain(curr)}
	}
	tracing := trace.Chain(curr)

	if len(plan.Dependencies) == 0 {
		return []*Blueprint{newBlueprint(
			plan.Source, plan.Call, plan.IsAsync, plan.IsOptional,
			plan.Output, nil, Priority{0, planOrder, 0},
		)}, nil
	}

	params := make([]resolvedParam, 0, len(plan.Dependencies))
	for _, dep := range plan.Dependencies {
		candidates, err := r.resolve(dep.Key, dep.Name, rest, tracing)
		if err != nil {
			return nil, err
		}
		params = append(params, resolvedParam{name: dep.Name, candidates: candidates})
	}

	perms := permutate(params)
	out := make([]*Blueprint, 0, len(perms))
	for i, perm := range perms {
		isAsync := plan.IsAsync
		optional := plan.IsOptional
		for _, bound := range perm.bound {
			isAsync = isAsync || bound.Blueprint.isAsync
			optional = optional || bound.Blueprint.optional
		}
		out = append(out, newBlueprint(
			plan.Source, plan.Call, isAsync, optional,
			plan.Output, perm.bound, Priority{perm.level, planOrder, i},
		))
	}
	return out, nil
}

// applyMode truncates or validates the fully enumerated blueprints for one
// recursion level. Enumeration always runs in full first so error-detection
// fidelity is identical across modes.
func applyMode(cur resolution.Type, key keys.Key, trace Traces, bps []*Blueprint) ([]*Blueprint, error) {
	switch cur {
	case resolution.Exhaustive:
		return bps, nil
	case resolution.SelectFirst:
		for i, bp := range bps {
			if !bp.optional {
				return bps[:i+1], nil
			}
		}
		return bps, nil
	case resolution.Unique:
		var sources []string
		for _, bp := range bps {
			if !bp.optional {
				sources = append(sources, bp.source)
			}
		}
		if len(sources) > 1 {
			return nil, &MultipleDependencyResolutionError{Key: key, Sources: sources, Traces: trace}
		}
		return bps, nil
	}
	return nil, &InvalidResolutionModeError{Mode: resolution.Of(cur)}
}
