// Package registry implements the typed registry: a generic index from a
// key's base identity to an ordered list of entries, with variance-qualified
// lookup, attribute filtering and duplicate rejection at insert time.
//
// An entry is inserted into the bucket of every identity reachable from its
// key: its own identity, the generic origin, and all declared ancestors.
// That insertion strategy doubles as the memoized subtype index: an
// ancestor's bucket always contains every subtype entry ever registered
// under it, so a covariant lookup is a single bucket scan.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sghaida/graft/keys"
)

// Entry is an element indexed by the registry.
//
// Entries are structurally compared by (name, key, priority); insertion
// rejects structural duplicates by default.
type Entry interface {
	// Key is the capability key the entry is registered under.
	Key() keys.Key

	// Name identifies the entry's source for diagnostics and duplicate
	// detection.
	Name() string

	// Priority adjusts retrieval order; higher sorts first.
	Priority() int
}

// Variance controls which buckets a lookup scans.
type Variance uint8

const (
	// Covariant matches the exact identity and every subtype registered
	// under it. This is the default.
	Covariant Variance = iota

	// Invariant matches only entries whose own identity equals the lookup
	// identity exactly.
	Invariant

	// Contravariant matches the exact identity and every declared ancestor
	// identity of the lookup key.
	Contravariant
)

// Equal reports structural equality of two entries.
func Equal(a, b Entry) bool {
	return a.Name() == b.Name() &&
		a.Priority() == b.Priority() &&
		a.Key().Equal(b.Key())
}

// DuplicatedEntryError is raised at insert time when the collation check
// finds a structurally equal entry already in the primary bucket.
type DuplicatedEntryError struct {
	ToAdd    Entry
	Existing Entry
}

// Error implements the error interface.
func (e DuplicatedEntryError) Error() string {
	return fmt.Sprintf("registry: entry %q conflicts with existing entry %q for key %s",
		e.ToAdd.Name(), e.Existing.Name(), e.Existing.Key())
}

// FilterContext carries the lookup key and its collected metadata to an
// EntriesFilterer.
type FilterContext struct {
	Key        keys.Key
	Attributes keys.AttributeSet
	Qualifiers keys.QualifierSet
}

// EntriesFilterer narrows the entries a lookup returns.
type EntriesFilterer[E Entry] interface {
	Filter(entries []E, ctx FilterContext) []E
}

// DefaultFilterer applies attribute superset matching and the
// disallow-subclass qualifier.
//
// Attribute matching is best-effort: when the lookup key carries attributes
// but no entry's attribute set is a superset of them, the unfiltered
// entries are returned rather than none.
type DefaultFilterer[E Entry] struct{}

// Filter implements EntriesFilterer.
func (DefaultFilterer[E]) Filter(entries []E, ctx FilterContext) []E {
	if ctx.Attributes.Len() > 0 {
		filtered := make([]E, 0, len(entries))
		for _, entry := range entries {
			if entry.Key().Attributes().Superset(ctx.Attributes) {
				filtered = append(filtered, entry)
			}
		}
		if len(filtered) > 0 {
			entries = filtered
		}
	}
	if len(entries) > 0 && ctx.Qualifiers.Disallowed() {
		filtered := make([]E, 0, len(entries))
		for _, entry := range entries {
			if entry.Key().BaseID() == ctx.Key.BaseID() {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}
	return entries
}

// EntriesCollator admits a new entry into a bucket, deciding both whether
// it fits with the existing entries and where it is inserted.
type EntriesCollator[E Entry] interface {
	// Collate returns the bucket with entry inserted, or an error if the
	// entry conflicts with an existing one.
	Collate(entry E, bucket []E) ([]E, error)
}

// DefaultCollator rejects structural duplicates and keeps the bucket
// ordered.
type DefaultCollator[E Entry] struct{}

// Collate implements EntriesCollator.
func (DefaultCollator[E]) Collate(entry E, bucket []E) ([]E, error) {
	for _, other := range bucket {
		if Equal(entry, other) {
			return nil, DuplicatedEntryError{ToAdd: entry, Existing: other}
		}
	}
	return InsertOrdered(bucket, entry), nil
}

// InsertOrdered inserts entry into bucket keeping the bucket sorted by
// (-priority, ancestorCount): higher explicit priority first, and among
// equal priorities the less derived key first. Equal entries keep
// registration order.
func InsertOrdered[E Entry](bucket []E, entry E) []E {
	i := sort.Search(len(bucket), func(i int) bool {
		return entryLess(entry, bucket[i])
	})
	bucket = append(bucket, entry)
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = entry
	return bucket
}

func entryLess(a, b Entry) bool {
	if a.Priority() != b.Priority() {
		return a.Priority() > b.Priority()
	}
	return a.Key().AncestorCount() < b.Key().AncestorCount()
}

// TypedRegistry indexes entries by the identities reachable from their
// keys. The registry is protected by an RWMutex: lookups may run
// concurrently, mutation takes the write lock.
type TypedRegistry[E Entry] struct {
	mu              sync.RWMutex
	buckets         map[keys.ID][]E
	filterer        EntriesFilterer[E]
	collator        EntriesCollator[E]
	defaultVariance Variance
}

// RegistryOption configures a TypedRegistry.
type RegistryOption[E Entry] func(*TypedRegistry[E])

// WithFilterer overrides the lookup filterer.
func WithFilterer[E Entry](f EntriesFilterer[E]) RegistryOption[E] {
	return func(r *TypedRegistry[E]) { r.filterer = f }
}

// WithCollator overrides the insert collator.
func WithCollator[E Entry](c EntriesCollator[E]) RegistryOption[E] {
	return func(r *TypedRegistry[E]) { r.collator = c }
}

// WithDefaultVariance sets the variance used by Get.
func WithDefaultVariance[E Entry](v Variance) RegistryOption[E] {
	return func(r *TypedRegistry[E]) { r.defaultVariance = v }
}

// New creates an empty registry.
func New[E Entry](opts ...RegistryOption[E]) *TypedRegistry[E] {
	r := &TypedRegistry[E]{
		buckets:         make(map[keys.ID][]E),
		filterer:        DefaultFilterer[E]{},
		collator:        DefaultCollator[E]{},
		defaultVariance: Covariant,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add inserts entry into the bucket of every identity reachable from its
// key. The collation check runs against the primary identity's bucket and
// rejects duplicates before anything is inserted.
func (r *TypedRegistry[E]) Add(entry E) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := entry.Key()
	primary := key.BaseID()

	collated, err := r.collator.Collate(entry, r.buckets[primary])
	if err != nil {
		return err
	}
	r.buckets[primary] = collated

	for _, id := range key.Reachable() {
		if id == primary {
			continue
		}
		r.buckets[id] = InsertOrdered(r.buckets[id], entry)
	}
	return nil
}

// AddAll inserts entries in order, stopping at the first error.
func (r *TypedRegistry[E]) AddAll(entries ...E) error {
	for _, entry := range entries {
		if err := r.Add(entry); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes entry from every reachable bucket, dropping buckets that
// become empty. Removing an entry that was never added is a no-op.
func (r *TypedRegistry[E]) Remove(entry E) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range entry.Key().Reachable() {
		bucket, ok := r.buckets[id]
		if !ok {
			continue
		}
		for i, other := range bucket {
			if Equal(entry, other) {
				bucket = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
		if len(bucket) == 0 {
			delete(r.buckets, id)
		} else {
			r.buckets[id] = bucket
		}
	}
}

// Get looks up entries for key using the registry's default variance.
func (r *TypedRegistry[E]) Get(key keys.Key) []E {
	return r.GetVariant(key, r.defaultVariance)
}

// GetVariant looks up entries for key.
//
// Bucket selection depends on variance: Invariant keeps only entries whose
// own identity equals the lookup identity; Covariant scans the identity's
// bucket, which by construction already holds every registered subtype;
// Contravariant concatenates the exact matches with the entries registered
// under each declared ancestor identity. Results from multiple buckets are
// concatenated without cross-bucket deduplication.
//
// After bucket selection the filterer applies attribute and qualifier
// rules.
func (r *TypedRegistry[E]) GetVariant(key keys.Key, variance Variance) []E {
	r.mu.RLock()
	var scanned []E
	switch variance {
	case Covariant:
		scanned = append(scanned, r.buckets[key.BaseID()]...)
	case Invariant:
		scanned = exactOnly(r.buckets[key.BaseID()], key.BaseID())
	case Contravariant:
		scanned = exactOnly(r.buckets[key.BaseID()], key.BaseID())
		for _, id := range key.Ancestors() {
			scanned = append(scanned, exactOnly(r.buckets[id], id)...)
		}
	}
	r.mu.RUnlock()

	if len(scanned) == 0 {
		return nil
	}
	return r.filterer.Filter(scanned, FilterContext{
		Key:        key,
		Attributes: key.Attributes(),
		Qualifiers: key.Qualifiers(),
	})
}

// Len reports the number of distinct identities with at least one entry.
func (r *TypedRegistry[E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buckets)
}

func exactOnly[E Entry](bucket []E, id keys.ID) []E {
	out := make([]E, 0, len(bucket))
	for _, entry := range bucket {
		if entry.Key().BaseID() == id {
			out = append(out, entry)
		}
	}
	return out
}
