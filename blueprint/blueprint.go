package blueprint

import (
	"context"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/sghaida/graft/keys"
)

// Priority orders sibling blueprints deterministically. It is the ordered
// tuple (dependencyChainDepth, providerRegistrationIndex, permutationIndex)
// compared lexicographically ascending: prefer the shallowest explanation,
// then the earliest-registered provider, then the first permutation. It has
// no bearing on correctness.
type Priority []int

// Compare returns -1, 0 or 1 comparing p to other lexicographically.
// A shorter tuple that is a prefix of the other sorts first.
func (p Priority) Compare(other Priority) int {
	for i := 0; i < len(p) && i < len(other); i++ {
		if p[i] != other[i] {
			if p[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(p) < len(other):
		return -1
	case len(p) > len(other):
		return 1
	}
	return 0
}

// BoundDependency pairs a parameter name with the blueprint chosen for it.
type BoundDependency struct {
	Name      string
	Blueprint *Blueprint
}

// Blueprint is a fully resolved, immutable construction plan: a constructor
// plus a blueprint for each of its dependencies.
//
// Blueprints are value-equal. Two blueprints with the same constructor
// source, async flag and dependency bindings compare equal regardless of
// identity; the builder exploits this for cache lookups. Equality is
// realized as a content digest computed once at construction, so diamond
// graphs that share a sub-blueprint share its digest.
type Blueprint struct {
	source   string
	call     ConstructFunc
	isAsync  bool
	optional bool
	output   keys.Key
	deps     []BoundDependency
	priority Priority
	digest   string
}

func newBlueprint(source string, call ConstructFunc, isAsync, optional bool, output keys.Key, deps []BoundDependency, priority Priority) *Blueprint {
	sorted := make([]BoundDependency, len(deps))
	copy(sorted, deps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	bp := &Blueprint{
		source:   source,
		call:     call,
		isAsync:  isAsync,
		optional: optional,
		output:   output,
		deps:     sorted,
		priority: priority,
	}
	bp.digest = bp.computeDigest()
	return bp
}

func (b *Blueprint) computeDigest() string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(b.source))
	if b.isAsync {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
	for _, dep := range b.deps {
		_, _ = h.Write([]byte(dep.Name))
		_, _ = h.Write([]byte(dep.Blueprint.digest))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Source identifies the constructor's origin.
func (b *Blueprint) Source() string { return b.source }

// IsAsync reports whether the blueprint, or any blueprint below it,
// requires the asynchronous builder.
func (b *Blueprint) IsAsync() bool { return b.isAsync }

// IsOptional reports whether the blueprint is allowed to produce no value.
func (b *Blueprint) IsOptional() bool { return b.optional }

// Output returns the key the blueprint satisfies.
func (b *Blueprint) Output() keys.Key { return b.output }

// Dependencies returns the bound dependency blueprints, ordered by
// parameter name.
func (b *Blueprint) Dependencies() []BoundDependency {
	if len(b.deps) == 0 {
		return nil
	}
	out := make([]BoundDependency, len(b.deps))
	copy(out, b.deps)
	return out
}

// Priority returns the deterministic ordering tuple.
func (b *Blueprint) Priority() Priority {
	out := make(Priority, len(b.priority))
	copy(out, b.priority)
	return out
}

// Digest returns the content digest realizing value equality.
func (b *Blueprint) Digest() string { return b.digest }

// Equal reports value equality.
func (b *Blueprint) Equal(other *Blueprint) bool {
	return other != nil && b.digest == other.digest
}

// Construct invokes the underlying constructor with the given arguments.
func (b *Blueprint) Construct(ctx context.Context, args Args) (any, error) {
	return b.call(ctx, args)
}

// String renders a compact plan description for diagnostics.
func (b *Blueprint) String() string {
	s := b.source
	if len(b.deps) > 0 {
		s += "("
		for i, dep := range b.deps {
			if i > 0 {
				s += ", "
			}
			s += dep.Name + "=" + dep.Blueprint.String()
		}
		s += ")"
	}
	return s
}

type resolvedParam struct {
	name       string
	candidates []*Blueprint
}

type permutation struct {
	bound []BoundDependency
	level int
}

// permutate enumerates the Cartesian product of the per-dependency
// candidate blueprints, in candidate order, yielding the level each
// permutation reaches.
func permutate(params []resolvedParam) []permutation {
	var out []permutation
	permutateInto(0, nil, params, &out)
	return out
}

func permutateInto(level int, bound []BoundDependency, rest []resolvedParam, out *[]permutation) {
	if len(rest) == 0 {
		final := make([]BoundDependency, len(bound))
		copy(final, bound)
		*out = append(*out, permutation{bound: final, level: level})
		return
	}
	head, tail := rest[0], rest[1:]
	for _, candidate := range head.candidates {
		permutateInto(level+1, append(bound, BoundDependency{Name: head.name, Blueprint: candidate}), tail, out)
	}
}
