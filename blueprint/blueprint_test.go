package blueprint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sghaida/graft/keys"
)

// TestPriority_Compare verifies lexicographic tuple ordering.
func TestPriority_Compare(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b Priority
		want int
	}{
		{name: "equal", a: Priority{1, 2, 3}, b: Priority{1, 2, 3}, want: 0},
		{name: "first element wins", a: Priority{0, 9, 9}, b: Priority{1, 0, 0}, want: -1},
		{name: "middle element", a: Priority{1, 3, 0}, b: Priority{1, 2, 9}, want: 1},
		{name: "prefix sorts first", a: Priority{1, 2}, b: Priority{1, 2, 0}, want: -1},
		{name: "longer sorts last", a: Priority{1, 2, 0}, b: Priority{1, 2}, want: 1},
		{name: "empty vs any", a: Priority{}, b: Priority{0}, want: -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.a.Compare(tc.b))
			assert.Equal(t, -tc.want, tc.b.Compare(tc.a))
		})
	}
}

// TestPriority_CompareIsTotal property-checks antisymmetry and reflexivity
// over arbitrary tuples.
func TestPriority_CompareIsTotal(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		a := Priority(rapid.SliceOfN(rapid.IntRange(0, 8), 0, 4).Draw(t, "a"))
		b := Priority(rapid.SliceOfN(rapid.IntRange(0, 8), 0, 4).Draw(t, "b"))

		assert.Equal(t, 0, a.Compare(a))
		assert.Equal(t, -b.Compare(a), a.Compare(b))
	})
}

// TestBlueprint_DigestEquality verifies content-digest value equality.
func TestBlueprint_DigestEquality(t *testing.T) {
	t.Parallel()

	out := keys.New("out")
	dep := newBlueprint("dep", Static(1), false, false, keys.New("dep"), nil, Priority{0, 0, 0})

	a := newBlueprint("ctor", Static(2), false, false, out,
		[]BoundDependency{{Name: "d", Blueprint: dep}}, Priority{1, 0, 0})
	b := newBlueprint("ctor", Static(2), false, false, out,
		[]BoundDependency{{Name: "d", Blueprint: dep}}, Priority{1, 3, 7})

	// Priority tuples do not participate in identity.
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Digest(), b.Digest())

	other := newBlueprint("other", Static(2), false, false, out,
		[]BoundDependency{{Name: "d", Blueprint: dep}}, Priority{1, 0, 0})
	assert.False(t, a.Equal(other))

	async := newBlueprint("ctor", Static(2), true, false, out,
		[]BoundDependency{{Name: "d", Blueprint: dep}}, Priority{1, 0, 0})
	assert.False(t, a.Equal(async))

	assert.False(t, a.Equal(nil))
}

// TestBlueprint_DependenciesSorted verifies bindings are ordered by name
// independent of declaration order.
func TestBlueprint_DependenciesSorted(t *testing.T) {
	t.Parallel()

	d1 := newBlueprint("one", Static(1), false, false, keys.New("one"), nil, Priority{0, 0, 0})
	d2 := newBlueprint("two", Static(2), false, false, keys.New("two"), nil, Priority{0, 0, 0})

	bp := newBlueprint("ctor", Static(0), false, false, keys.New("out"), []BoundDependency{
		{Name: "zebra", Blueprint: d1},
		{Name: "alpha", Blueprint: d2},
	}, Priority{2, 0, 0})

	deps := bp.Dependencies()
	require.Len(t, deps, 2)
	assert.Equal(t, "alpha", deps[0].Name)
	assert.Equal(t, "zebra", deps[1].Name)

	flipped := newBlueprint("ctor", Static(0), false, false, keys.New("out"), []BoundDependency{
		{Name: "alpha", Blueprint: d2},
		{Name: "zebra", Blueprint: d1},
	}, Priority{2, 0, 0})
	assert.True(t, bp.Equal(flipped))
}

// TestBlueprint_Construct verifies argument passing.
func TestBlueprint_Construct(t *testing.T) {
	t.Parallel()

	bp := newBlueprint("sum", func(_ context.Context, args Args) (any, error) {
		return args["a"].(int) + args["b"].(int), nil
	}, false, false, keys.New("sum"), nil, Priority{0, 0, 0})

	got, err := bp.Construct(context.Background(), Args{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

// TestBlueprint_String verifies the diagnostic rendering.
func TestBlueprint_String(t *testing.T) {
	t.Parallel()

	dep := newBlueprint("cfg", Static(1), false, false, keys.New("cfg"), nil, Priority{0, 0, 0})
	bp := newBlueprint("svc", Static(2), false, false, keys.New("svc"),
		[]BoundDependency{{Name: "config", Blueprint: dep}}, Priority{1, 0, 0})

	assert.Equal(t, "svc(config=cfg)", bp.String())
	assert.Equal(t, "cfg", dep.String())
}

// TestPermutate verifies the Cartesian expansion of per-dependency
// candidates.
func TestPermutate(t *testing.T) {
	t.Parallel()

	mk := func(source string) *Blueprint {
		return newBlueprint(source, Static(source), false, false, keys.New("k"), nil, Priority{0, 0, 0})
	}
	params := []resolvedParam{
		{name: "a", candidates: []*Blueprint{mk("a1"), mk("a2")}},
		{name: "b", candidates: []*Blueprint{mk("b1"), mk("b2"), mk("b3")}},
	}

	perms := permutate(params)
	require.Len(t, perms, 6)

	seen := make(map[string]bool, 6)
	for _, p := range perms {
		require.Len(t, p.bound, 2)
		assert.Equal(t, 2, p.level)
		seen[p.bound[0].Blueprint.Source()+"/"+p.bound[1].Blueprint.Source()] = true
	}
	assert.Len(t, seen, 6)

	// Candidate order of the first parameter is the outer loop.
	assert.Equal(t, "a1", perms[0].bound[0].Blueprint.Source())
	assert.Equal(t, "b1", perms[0].bound[1].Blueprint.Source())
	assert.Equal(t, "a2", perms[5].bound[0].Blueprint.Source())
	assert.Equal(t, "b3", perms[5].bound[1].Blueprint.Source())
}

// TestPermutate_CountIsProduct property-checks that the number of
// permutations equals the product of the candidate counts.
func TestPermutate_CountIsProduct(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		counts := rapid.SliceOfN(rapid.IntRange(1, 4), 1, 4).Draw(t, "counts")

		params := make([]resolvedParam, len(counts))
		want := 1
		for i, n := range counts {
			want *= n
			cands := make([]*Blueprint, n)
			for j := range cands {
				cands[j] = newBlueprint("c", Static(j), false, false, keys.New("k"), nil, Priority{0, 0, 0})
			}
			params[i] = resolvedParam{name: string(rune('a' + i)), candidates: cands}
		}

		assert.Len(t, permutate(params), want)
	})
}

// TestPermutate_NoParams verifies the empty product is a single empty
// binding.
func TestPermutate_NoParams(t *testing.T) {
	t.Parallel()

	perms := permutate(nil)
	require.Len(t, perms, 1)
	assert.Empty(t, perms[0].bound)
	assert.Equal(t, 0, perms[0].level)
}
