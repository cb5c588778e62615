package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/graft/blueprint"
	"github.com/sghaida/graft/keys"
	"github.com/sghaida/graft/registry"
	"github.com/sghaida/graft/resolution"
)

func noop(context.Context, blueprint.Args) (any, error) { return nil, nil }

// TestNew verifies descriptor construction through options.
func TestNew(t *testing.T) {
	t.Parallel()

	cfg := keys.New("config")
	svc := keys.New("service")

	r := New("pkg.CreateService", svc, noop,
		WithParam("config", cfg),
		WithPriority(5),
		Async(),
		Optional(),
	)

	assert.Equal(t, "pkg.CreateService", r.Name())
	assert.True(t, r.Output().Equal(svc))
	assert.True(t, r.Key().Equal(svc))
	assert.Equal(t, 5, r.Priority())
	assert.True(t, r.IsAsync())
	assert.True(t, r.IsOptional())

	params := r.Params()
	require.Len(t, params, 1)
	assert.Equal(t, "config", params[0].Name)
	assert.True(t, params[0].Key.Equal(cfg))
}

// TestWithDependencyQualifiers verifies qualifiers land on previously
// declared parameters.
func TestWithDependencyQualifiers(t *testing.T) {
	t.Parallel()

	r := New("pkg.Create", keys.New("out"), noop,
		WithParam("a", keys.New("a")),
		WithParam("b", keys.New("b")),
		WithDependencyQualifiers(keys.ResolutionOf(resolution.SelectFirst)),
	)

	for _, p := range r.Params() {
		q, ok := p.Key.Qualifiers().Get(keys.QualResolution)
		require.True(t, ok, p.Name)
		assert.Equal(t, resolution.SelectFirst, q.(keys.ResolutionOf).Mode())
	}

	// Parameters declared after the option stay bare.
	late := New("pkg.Late", keys.New("out"), noop,
		WithDependencyQualifiers(keys.DisallowSubclass(true)),
		WithParam("a", keys.New("a")),
	)
	_, ok := late.Params()[0].Key.Qualifiers().Get(keys.QualDisallowSubclass)
	assert.False(t, ok)
}

// TestRegistry_Register verifies duplicate and async gating.
func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	svc := keys.New("service")
	reg := NewRegistry()
	require.True(t, reg.AllowsAsync())

	require.NoError(t, reg.Register(New("pkg.A", svc, noop)))
	err := reg.Register(New("pkg.A", svc, noop))
	var dup registry.DuplicatedEntryError
	assert.ErrorAs(t, err, &dup)

	require.NoError(t, reg.Register(New("pkg.Async", svc, noop, Async())))
}

// TestRegistry_DisallowAsync verifies the synchronous-only gate.
func TestRegistry_DisallowAsync(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(DisallowAsync())
	require.False(t, reg.AllowsAsync())

	err := reg.Register(New("pkg.Async", keys.New("service"), noop, Async()))
	var notAllowed *AsyncRuleNotAllowedError
	require.ErrorAs(t, err, &notAllowed)
	assert.Equal(t, "pkg.Async", notAllowed.Rule.Name())

	assert.NoError(t, reg.Register(New("pkg.Sync", keys.New("service"), noop)))
}

// TestRegistry_GetCovariant verifies rules surface under ancestor output
// keys.
func TestRegistry_GetCovariant(t *testing.T) {
	t.Parallel()

	notifier := keys.New("notifier")
	email := keys.New("email_notifier", keys.WithParents(notifier))

	reg := NewRegistry()
	require.NoError(t, reg.RegisterAll(
		New("pkg.Email", email, noop),
	))

	got := reg.Get(notifier)
	require.Len(t, got, 1)
	assert.Equal(t, "pkg.Email", got[0].Name())
}

// TestProvider_ProvideFor verifies the adapter carries the rule descriptor
// into the constructor.
func TestProvider_ProvideFor(t *testing.T) {
	t.Parallel()

	cfg := keys.New("config")
	svc := keys.New("service")

	fn := func(_ context.Context, args blueprint.Args) (any, error) {
		return "svc:" + args["config"].(string), nil
	}
	reg := NewRegistry()
	require.NoError(t, reg.Register(New("pkg.CreateService", svc, fn,
		WithParam("config", cfg), Async(), Optional())))

	p := NewProvider(reg)
	ctors := p.ProvideFor(svc)
	require.Len(t, ctors, 1)

	ctor := ctors[0]
	assert.Equal(t, "rule::pkg.CreateService", ctor.Source)
	assert.True(t, ctor.IsAsync)
	assert.True(t, ctor.IsOptional)
	assert.True(t, ctor.Output.Equal(svc))
	require.Len(t, ctor.Dependencies, 1)
	assert.Equal(t, "config", ctor.Dependencies[0].Name)

	got, err := ctor.Call(context.Background(), blueprint.Args{"config": "dsn"})
	require.NoError(t, err)
	assert.Equal(t, "svc:dsn", got)

	assert.Nil(t, p.ProvideFor(keys.New("unknown")))
}

// TestProvider_ResolvesEndToEnd verifies rules flow through the resolver.
func TestProvider_ResolvesEndToEnd(t *testing.T) {
	t.Parallel()

	cfg := keys.New("config")
	svc := keys.New("service")

	reg := NewRegistry()
	require.NoError(t, reg.RegisterAll(
		New("pkg.Config", cfg, func(context.Context, blueprint.Args) (any, error) {
			return "dsn", nil
		}),
		New("pkg.Service", svc, func(_ context.Context, args blueprint.Args) (any, error) {
			return "svc:" + args["config"].(string), nil
		}, WithParam("config", cfg)),
	))

	r := blueprint.NewResolver(blueprint.WithProviders(NewProvider(reg)))
	bps, err := r.Resolve(svc, resolution.Of(resolution.Unique))
	require.NoError(t, err)
	require.Len(t, bps, 1)
	assert.Equal(t, "rule::pkg.Service", bps[0].Source())
}

// TestRegistry_PriorityOrdersRules verifies higher-priority rules surface
// first.
func TestRegistry_PriorityOrdersRules(t *testing.T) {
	t.Parallel()

	svc := keys.New("service")
	reg := NewRegistry()
	require.NoError(t, reg.RegisterAll(
		New("pkg.Fallback", svc, noop),
		New("pkg.Preferred", svc, noop, WithPriority(10)),
	))

	got := reg.Get(svc)
	require.Len(t, got, 2)
	assert.Equal(t, "pkg.Preferred", got[0].Name())
	assert.Equal(t, "pkg.Fallback", got[1].Name())
}
