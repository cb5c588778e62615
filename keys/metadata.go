package keys

import (
	"sort"
	"strconv"

	"github.com/sghaida/graft/resolution"
)

// AttrKind enumerates the attribute tag kinds. Attributes are exact-match
// metadata: a lookup requesting an attribute only matches entries carrying
// the same kind with the same value.
type AttrKind uint8

const (
	// AttrName names a value so it can be requested explicitly.
	AttrName AttrKind = iota + 1

	// AttrProvidedBy records the provenance of a value produced by a
	// builder. The instance provider refuses to re-offer such values as
	// raw instances.
	AttrProvidedBy
)

// Attribute is an exact-match metadata tag attached to a Key.
//
// Attributes are compared structurally by (kind, value). The set of kinds
// is extensible: external packages may define their own kinds above a
// reserved range, as long as Kind values do not collide.
type Attribute interface {
	Kind() AttrKind
	Value() string
}

// Name tags a value with an explicit name.
type Name string

// Kind implements Attribute.
func (n Name) Kind() AttrKind { return AttrName }

// Value implements Attribute.
func (n Name) Value() string { return string(n) }

// ProvidedBy records the source that produced a value.
type ProvidedBy string

// Kind implements Attribute.
func (p ProvidedBy) Kind() AttrKind { return AttrProvidedBy }

// Value implements Attribute.
func (p ProvidedBy) Value() string { return string(p) }

// AttributeSet is a structural set of attributes keyed by kind.
//
// A set holds at most one attribute per kind. Sets are value-compared;
// mutating helpers return copies.
type AttributeSet map[AttrKind]Attribute

// Attrs builds an AttributeSet. Later attributes of the same kind win.
func Attrs(attrs ...Attribute) AttributeSet {
	if len(attrs) == 0 {
		return nil
	}
	s := make(AttributeSet, len(attrs))
	for _, a := range attrs {
		s[a.Kind()] = a
	}
	return s
}

// Get returns the attribute of the given kind if present.
func (s AttributeSet) Get(kind AttrKind) (Attribute, bool) {
	a, ok := s[kind]
	return a, ok
}

// Len returns the number of attributes in the set.
func (s AttributeSet) Len() int { return len(s) }

// With returns a copy of the set with a added, replacing any attribute of
// the same kind.
func (s AttributeSet) With(a Attribute) AttributeSet {
	cp := make(AttributeSet, len(s)+1)
	for k, v := range s {
		cp[k] = v
	}
	cp[a.Kind()] = a
	return cp
}

// Superset reports whether every attribute in other is present in s with an
// equal value.
func (s AttributeSet) Superset(other AttributeSet) bool {
	for kind, want := range other {
		got, ok := s[kind]
		if !ok || got.Value() != want.Value() {
			return false
		}
	}
	return true
}

// Equal reports structural equality of two sets.
func (s AttributeSet) Equal(other AttributeSet) bool {
	return len(s) == len(other) && s.Superset(other)
}

func (s AttributeSet) canonical() string {
	if len(s) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s))
	for kind, a := range s {
		parts = append(parts, strconv.Itoa(int(kind))+"="+a.Value())
	}
	sort.Strings(parts)
	out := ""
	for _, p := range parts {
		out += ";" + p
	}
	return out
}

// QualKind enumerates the qualifier tag kinds. Qualifiers modify how a key
// is resolved rather than what it matches.
type QualKind uint8

const (
	// QualResolution overrides the resolution mode for the key it is
	// attached to. An explicit override always wins over the caller's
	// chosen mode.
	QualResolution QualKind = iota + 1

	// QualDisallowSubclass restricts registry lookups to entries whose
	// identity equals the lookup identity exactly.
	QualDisallowSubclass
)

// Qualifier is a behavior-modifying metadata tag attached to a Key.
type Qualifier interface {
	Kind() QualKind
	Value() string
}

// ResolutionOf overrides the resolution mode for a single dependency.
type ResolutionOf resolution.Type

// Kind implements Qualifier.
func (r ResolutionOf) Kind() QualKind { return QualResolution }

// Value implements Qualifier.
func (r ResolutionOf) Value() string { return string(r) }

// Mode returns the overriding resolution type.
func (r ResolutionOf) Mode() resolution.Type { return resolution.Type(r) }

// DisallowSubclass excludes subtype entries from registry lookups.
type DisallowSubclass bool

// Kind implements Qualifier.
func (d DisallowSubclass) Kind() QualKind { return QualDisallowSubclass }

// Value implements Qualifier.
func (d DisallowSubclass) Value() string { return strconv.FormatBool(bool(d)) }

// QualifierSet is a structural set of qualifiers keyed by kind.
type QualifierSet map[QualKind]Qualifier

// Quals builds a QualifierSet. Later qualifiers of the same kind win.
func Quals(quals ...Qualifier) QualifierSet {
	if len(quals) == 0 {
		return nil
	}
	s := make(QualifierSet, len(quals))
	for _, q := range quals {
		s[q.Kind()] = q
	}
	return s
}

// Get returns the qualifier of the given kind if present.
func (s QualifierSet) Get(kind QualKind) (Qualifier, bool) {
	q, ok := s[kind]
	return q, ok
}

// Len returns the number of qualifiers in the set.
func (s QualifierSet) Len() int { return len(s) }

// With returns a copy of the set with q added, replacing any qualifier of
// the same kind.
func (s QualifierSet) With(q Qualifier) QualifierSet {
	cp := make(QualifierSet, len(s)+1)
	for k, v := range s {
		cp[k] = v
	}
	cp[q.Kind()] = q
	return cp
}

// Equal reports structural equality of two sets.
func (s QualifierSet) Equal(other QualifierSet) bool {
	if len(s) != len(other) {
		return false
	}
	for kind, want := range other {
		got, ok := s[kind]
		if !ok || got.Value() != want.Value() {
			return false
		}
	}
	return true
}

// Disallowed reports whether the set carries an enabled DisallowSubclass
// qualifier.
func (s QualifierSet) Disallowed() bool {
	q, ok := s[QualDisallowSubclass]
	if !ok {
		return false
	}
	d, ok := q.(DisallowSubclass)
	return ok && bool(d)
}

func (s QualifierSet) canonical() string {
	if len(s) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s))
	for kind, q := range s {
		parts = append(parts, strconv.Itoa(int(kind))+"="+q.Value())
	}
	sort.Strings(parts)
	out := ""
	for _, p := range parts {
		out += ";" + p
	}
	return out
}
