// Package keys models capability keys: the lookup values the registry,
// resolver and builder operate on.
//
// A Key is a base identity plus optional attribute tags (exact-match
// metadata), qualifier tags (behavior-modifying metadata) and generic
// argument structure. Runtime type introspection is deliberately replaced by
// explicit, registration-time descriptors: a key declares its own identity
// and the identities it can stand in for (its ancestors), and the rest of
// the engine is purely descriptor-driven.
//
// Keys are immutable values. Equality is structural: two keys with the same
// identity, generic arguments, attributes and qualifiers compare equal
// regardless of how they were built. The canonical string form is stable
// and usable as a map key.
package keys

// ID is a base identity: the name of a capability, interface or type.
type ID string

// Generic describes the generic structure of a parameterized key.
type Generic struct {
	// Origin is the generic family identity, e.g. "Repository" for
	// "Repository[User]".
	Origin ID

	// Args are the argument keys the family is parameterized with.
	Args []Key
}

// Key is an immutable capability descriptor.
type Key struct {
	id        ID
	ancestors []ID
	generic   *Generic
	attrs     AttributeSet
	quals     QualifierSet

	baseID    ID
	canonical string
}

// Option configures a Key under construction.
type Option func(*builder)

type builder struct {
	ancestors []ID
	args      []Key
	attrs     []Attribute
	quals     []Qualifier
}

// WithAncestors declares ancestor identities the key can be looked up as.
// Declare the transitive closure; ancestors are not expanded further.
func WithAncestors(ids ...ID) Option {
	return func(b *builder) { b.ancestors = append(b.ancestors, ids...) }
}

// WithParents declares ancestors from existing keys, pulling in each
// parent's identity and the parent's own declared ancestors.
func WithParents(parents ...Key) Option {
	return func(b *builder) {
		for _, p := range parents {
			b.ancestors = append(b.ancestors, p.BaseID())
			b.ancestors = append(b.ancestors, p.Ancestors()...)
		}
	}
}

// WithArgs parameterizes the key, making the bare identity its generic
// origin. "Repository" with args "User" becomes "Repository[User]" and is
// additionally reachable under "Repository".
func WithArgs(args ...Key) Option {
	return func(b *builder) { b.args = append(b.args, args...) }
}

// WithAttributes attaches attribute tags.
func WithAttributes(attrs ...Attribute) Option {
	return func(b *builder) { b.attrs = append(b.attrs, attrs...) }
}

// WithQualifiers attaches qualifier tags.
func WithQualifiers(quals ...Qualifier) Option {
	return func(b *builder) { b.quals = append(b.quals, quals...) }
}

// New builds a Key for the given identity.
func New(id ID, opts ...Option) Key {
	var b builder
	for _, opt := range opts {
		opt(&b)
	}
	k := Key{
		id:        id,
		ancestors: dedupIDs(b.ancestors),
		attrs:     Attrs(b.attrs...),
		quals:     Quals(b.quals...),
	}
	if len(b.args) > 0 {
		k.generic = &Generic{Origin: id, Args: b.args}
	}
	k.baseID = k.computeBaseID()
	k.canonical = k.computeCanonical()
	return k
}

func dedupIDs(ids []ID) []ID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[ID]struct{}, len(ids))
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (k Key) computeBaseID() ID {
	if k.generic == nil {
		return k.id
	}
	s := string(k.id) + "["
	for i, arg := range k.generic.Args {
		if i > 0 {
			s += ","
		}
		s += string(arg.BaseID())
	}
	return ID(s + "]")
}

func (k Key) computeCanonical() string {
	return string(k.baseID) + k.attrs.canonical() + "|" + k.quals.canonical()
}

// ID returns the identity the key was built with. For generic keys this is
// the origin family, not the parameterized identity.
func (k Key) ID() ID { return k.id }

// BaseID returns the bucket identity used by the registry: the identity for
// plain keys, the parameterized identity for generic keys.
func (k Key) BaseID() ID { return k.baseID }

// Ancestors returns the declared ancestor identities.
func (k Key) Ancestors() []ID {
	if len(k.ancestors) == 0 {
		return nil
	}
	out := make([]ID, len(k.ancestors))
	copy(out, k.ancestors)
	return out
}

// AncestorCount returns how derived the key is: the number of declared
// ancestors, counting the generic origin.
func (k Key) AncestorCount() int {
	n := len(k.ancestors)
	if k.generic != nil {
		n++
	}
	return n
}

// Reachable returns every identity the key is registered under: its own
// bucket identity, the generic origin if parameterized, and each declared
// ancestor.
func (k Key) Reachable() []ID {
	out := make([]ID, 0, len(k.ancestors)+2)
	out = append(out, k.baseID)
	if k.generic != nil {
		out = append(out, k.generic.Origin)
	}
	out = append(out, k.ancestors...)
	return dedupIDs(out)
}

// GenericInfo returns the generic structure, or nil for plain keys.
func (k Key) GenericInfo() *Generic {
	if k.generic == nil {
		return nil
	}
	args := make([]Key, len(k.generic.Args))
	copy(args, k.generic.Args)
	return &Generic{Origin: k.generic.Origin, Args: args}
}

// Attributes returns the key's attribute tags.
func (k Key) Attributes() AttributeSet { return k.attrs }

// Qualifiers returns the key's qualifier tags.
func (k Key) Qualifiers() QualifierSet { return k.quals }

// WithAttribute returns a derived key carrying the extra attribute.
func (k Key) WithAttribute(a Attribute) Key {
	k.attrs = k.attrs.With(a)
	k.canonical = k.computeCanonical()
	return k
}

// WithQualifier returns a derived key carrying the extra qualifier.
func (k Key) WithQualifier(q Qualifier) Key {
	k.quals = k.quals.With(q)
	k.canonical = k.computeCanonical()
	return k
}

// Bare returns a derived key stripped of attributes and qualifiers.
func (k Key) Bare() Key {
	k.attrs = nil
	k.quals = nil
	k.canonical = k.computeCanonical()
	return k
}

// Canonical returns the stable structural identity of the key. Keys with
// equal canonical forms are equal.
func (k Key) Canonical() string { return k.canonical }

// Equal reports structural equality.
func (k Key) Equal(other Key) bool { return k.canonical == other.canonical }

// IsZero reports whether the key is the zero value.
func (k Key) IsZero() bool { return k.id == "" }

// String implements fmt.Stringer.
func (k Key) String() string { return k.canonical }
