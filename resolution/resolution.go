// Package resolution defines the resolution modes used by the blueprint
// resolver to decide how many sibling candidates are enumerated per key.
//
// A Mode is a sequence of types applied per graph depth: the first element
// governs the current level, the remainder governs deeper levels, and the
// last element repeats once the sequence runs out. A single-element Mode
// therefore applies the same policy at every depth.
package resolution

// Type is a single resolution policy applied at one graph depth.
type Type string

const (
	// Exhaustive enumerates every candidate constructor and every
	// dependency permutation.
	Exhaustive Type = "exhaustive"

	// SelectFirst yields blueprints up to and including the first
	// non-optional one. Optional blueprints preceding it are kept so a
	// caller still sees its fallbacks.
	SelectFirst Type = "select_first"

	// Unique asserts that at most one non-optional blueprint remains after
	// full enumeration.
	Unique Type = "unique"
)

// Default is the resolution mode used when a caller supplies none.
var Default = Mode{Unique}

// Mode is a per-depth sequence of resolution types. A nil or empty Mode is
// invalid; use Default or Of to construct one.
type Mode []Type

// Of builds a Mode from one or more types.
func Of(types ...Type) Mode { return Mode(types) }

// Valid reports whether t is a recognized resolution type.
func (t Type) Valid() bool {
	switch t {
	case Exhaustive, SelectFirst, Unique:
		return true
	}
	return false
}

// Valid reports whether every element of the mode is a recognized type and
// the mode is non-empty.
func (m Mode) Valid() bool {
	if len(m) == 0 {
		return false
	}
	for _, t := range m {
		if !t.Valid() {
			return false
		}
	}
	return true
}

// Split returns the type governing the current depth and the mode governing
// deeper depths. The last element repeats for all deeper levels.
func (m Mode) Split() (Type, Mode) {
	if len(m) == 0 {
		return "", nil
	}
	if len(m) == 1 {
		return m[0], m
	}
	return m[0], m[1:]
}

// Join prepends t to m, making t govern the current depth while m governs
// the levels below it.
func Join(t Type, m Mode) Mode {
	joined := make(Mode, 0, len(m)+1)
	joined = append(joined, t)
	return append(joined, m...)
}

// String renders the mode as a "/"-separated sequence.
func (m Mode) String() string {
	if len(m) == 0 {
		return "<empty>"
	}
	s := string(m[0])
	for _, t := range m[1:] {
		s += "/" + string(t)
	}
	return s
}
