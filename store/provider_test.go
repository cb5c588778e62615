package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/graft/blueprint"
	"github.com/sghaida/graft/keys"
	"github.com/sghaida/graft/resolution"
)

// TestProvider_ProvideFor verifies the single-constructor contract.
func TestProvider_ProvideFor(t *testing.T) {
	t.Parallel()

	c := NewContainer(WithName("main"))
	cfg := keys.New("config")
	require.NoError(t, c.Add("dsn", cfg, Named("db")))

	p := NewProvider(c)
	ctors := p.ProvideFor(cfg)
	require.Len(t, ctors, 1)

	ctor := ctors[0]
	assert.Equal(t, "container::main::db", ctor.Source)
	assert.False(t, ctor.IsAsync)
	assert.False(t, ctor.IsOptional)
	assert.Empty(t, ctor.Dependencies)

	got, err := ctor.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "dsn", got)

	assert.Nil(t, p.ProvideFor(keys.New("missing")))
}

// TestProvider_AmbiguityIsSilent verifies several untagged instances without
// a primary yield nothing rather than an error.
func TestProvider_AmbiguityIsSilent(t *testing.T) {
	t.Parallel()

	c := NewContainer()
	cfg := keys.New("config")
	require.NoError(t, c.Add("a", cfg))
	require.NoError(t, c.Add("b", cfg))

	assert.Nil(t, NewProvider(c).ProvideFor(cfg))
}

// TestProvider_PrimaryWins verifies the primary instance is offered when
// several match.
func TestProvider_PrimaryWins(t *testing.T) {
	t.Parallel()

	c := NewContainer()
	cfg := keys.New("config")
	require.NoError(t, c.Add("a", cfg))
	require.NoError(t, c.Add("b", cfg, Primary()))

	ctors := NewProvider(c).ProvideFor(cfg)
	require.Len(t, ctors, 1)
	got, err := ctors[0].Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

// TestProvider_SkipsBuilderOutputs verifies values saved with a provenance
// tag are not re-offered as raw instances.
func TestProvider_SkipsBuilderOutputs(t *testing.T) {
	t.Parallel()

	c := NewContainer()
	cfg := keys.New("config")
	require.NoError(t, c.Add("raw", cfg))

	// A builder saving its output goes through Save with a tagged key.
	require.NoError(t, c.Save(cfg.WithAttribute(keys.ProvidedBy("rule::cfg")), "built"))

	ctors := NewProvider(c).ProvideFor(cfg)
	require.Len(t, ctors, 1)
	got, err := ctors[0].Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "raw", got)

	// Only tagged values for a key means the provider stays silent.
	other := keys.New("other")
	require.NoError(t, c.Save(other.WithAttribute(keys.ProvidedBy("rule::other")), "built"))
	assert.Nil(t, NewProvider(c).ProvideFor(other))
}

// TestProvider_ResolvesThroughResolver verifies container contents satisfy
// resolution end to end.
func TestProvider_ResolvesThroughResolver(t *testing.T) {
	t.Parallel()

	c := NewContainer(WithName("main"))
	cfg := keys.New("config")
	require.NoError(t, c.Add("dsn", cfg, Named("db")))

	r := blueprint.NewResolver(blueprint.WithProviders(NewProvider(c)))
	bps, err := r.Resolve(cfg, resolution.Of(resolution.Unique))
	require.NoError(t, err)
	require.Len(t, bps, 1)
	assert.Equal(t, "container::main::db", bps[0].Source())
}
