// Package store implements the instance container: a typed-registry-backed
// index of existing values, retrievable by key or by name, and usable as a
// constructor provider backend and as a builder save sink.
package store

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/sghaida/graft/keys"
	"github.com/sghaida/graft/registry"
)

// Instance wraps a stored value as a registry entry.
type Instance struct {
	value    any
	key      keys.Key
	name     string
	primary  bool
	priority int
}

// Key implements registry.Entry. The key carries the instance name as a
// Name attribute, so attribute-filtered lookups can address instances by
// name.
func (i *Instance) Key() keys.Key { return i.key }

// Name implements registry.Entry.
func (i *Instance) Name() string { return i.name }

// Priority implements registry.Entry.
func (i *Instance) Priority() int { return i.priority }

// Value returns the wrapped value.
func (i *Instance) Value() any { return i.value }

// IsPrimary reports whether the instance is the primary value for its key.
func (i *Instance) IsPrimary() bool { return i.primary }

func (i *Instance) String() string {
	return fmt.Sprintf("instance(name=%s, key=%s, primary=%t)", i.name, i.key, i.primary)
}

// collator validates name uniqueness and the single-primary invariant per
// bucket before admitting an instance.
type collator struct{}

func (collator) Collate(entry *Instance, bucket []*Instance) ([]*Instance, error) {
	for _, other := range bucket {
		if entry.name == other.name {
			return nil, &ConflictingInstanceNameError{Name: entry.name}
		}
		if entry.primary && other.primary {
			return nil, &MultiplePrimaryInstanceError{Name: entry.name}
		}
	}
	return registry.InsertOrdered(bucket, entry), nil
}

// Container indexes existing values by their capability key.
//
// All operations are safe for concurrent use. Note that mutating a
// container that feeds a resolver requires clearing the resolver's memo
// afterwards; the surface API does that automatically.
type Container struct {
	mu     sync.RWMutex
	name   string
	byType *registry.TypedRegistry[*Instance]
	byName map[string]*Instance
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

// WithName names the container; the name prefixes the sources of the
// constructors its provider emits.
func WithName(name string) ContainerOption {
	return func(c *Container) { c.name = name }
}

// NewContainer creates an empty container. Unnamed containers get a
// generated identity.
func NewContainer(opts ...ContainerOption) *Container {
	c := &Container{
		byType: registry.New(registry.WithCollator[*Instance](collator{})),
		byName: make(map[string]*Instance),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.name == "" {
		c.name = uuid.NewString()[:8]
	}
	return c
}

// String implements fmt.Stringer.
func (c *Container) String() string { return "container::" + c.name }

// AddOption configures a single Add call.
type AddOption func(*Instance)

// Named stores the instance under an explicit name.
func Named(name string) AddOption {
	return func(i *Instance) { i.name = name }
}

// Primary marks the instance as the primary value for its key, breaking
// ties when a lookup matches several instances.
func Primary() AddOption {
	return func(i *Instance) { i.primary = true }
}

// WithPriority adjusts the instance's retrieval order; higher sorts first.
func WithPriority(priority int) AddOption {
	return func(i *Instance) { i.priority = priority }
}

// Add stores value under key. The instance name is taken from the Named
// option, else from a Name attribute on the key, else generated from the
// key identity.
func (c *Container) Add(value any, key keys.Key, opts ...AddOption) error {
	inst := &Instance{value: value, key: key}
	for _, opt := range opts {
		opt(inst)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if inst.name == "" {
		if a, ok := key.Attributes().Get(keys.AttrName); ok {
			inst.name = a.Value()
		}
	}
	if inst.name == "" {
		inst.name = c.generateName(string(key.BaseID()))
	} else if _, taken := c.byName[inst.name]; taken {
		return &ConflictingInstanceNameError{Name: inst.name}
	}

	inst.key = key.WithAttribute(keys.Name(inst.name))
	if err := c.byType.Add(inst); err != nil {
		return err
	}
	c.byName[inst.name] = inst
	return nil
}

// generateName picks the first free "<base>-<n>" name. Must hold mu.
func (c *Container) generateName(base string) string {
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s-%d", base, i)
		if _, taken := c.byName[name]; !taken {
			return name
		}
	}
}

// Save implements the builder's save sink: it stores a freshly built value
// under its tagged output key.
func (c *Container) Save(key keys.Key, value any) error {
	return c.Add(value, key)
}

// Remove deletes the instance holding value for key.
func (c *Container) Remove(key keys.Key, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, inst := range c.byType.Get(key.Bare()) {
		if sameValue(inst.value, value) {
			c.byType.Remove(inst)
			delete(c.byName, inst.name)
			return nil
		}
	}
	return &InstanceOfKeyNotFoundError{Key: key}
}

// RemoveNamed deletes the instance stored under name.
func (c *Container) RemoveNamed(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.byName[name]
	if !ok {
		return &InstanceOfNameNotFoundError{Name: name}
	}
	delete(c.byName, name)
	c.byType.Remove(inst)
	return nil
}

// Get returns the single instance value for key. When several instances
// match, the primary one wins; without a primary the lookup is ambiguous.
func (c *Container) Get(key keys.Key) (any, error) {
	inst, err := c.GetWrapper(key)
	if err != nil {
		return nil, err
	}
	return inst.value, nil
}

// GetWrapper returns the single instance entry for key.
func (c *Container) GetWrapper(key keys.Key) (*Instance, error) {
	c.mu.RLock()
	matched := c.byType.Get(key)
	c.mu.RUnlock()

	switch len(matched) {
	case 0:
		return nil, &InstanceOfKeyNotFoundError{Key: key}
	case 1:
		return matched[0], nil
	}
	var primary *Instance
	for _, inst := range matched {
		if !inst.primary {
			continue
		}
		if primary != nil {
			return nil, &MultiplePrimaryInstanceError{Name: inst.name}
		}
		primary = inst
	}
	if primary != nil {
		return primary, nil
	}
	names := make([]string, len(matched))
	for i, inst := range matched {
		names[i] = inst.name
	}
	return nil, &AmbiguousInstanceError{Key: key, Names: names}
}

// GetAll returns every instance value matching key, in registry order.
func (c *Container) GetAll(key keys.Key) []any {
	wrappers := c.GetAllWrappers(key)
	if len(wrappers) == 0 {
		return nil
	}
	out := make([]any, len(wrappers))
	for i, inst := range wrappers {
		out[i] = inst.value
	}
	return out
}

// GetAllWrappers returns every instance entry matching key.
func (c *Container) GetAllWrappers(key keys.Key) []*Instance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byType.Get(key)
}

// GetNamed returns the instance value stored under name.
func (c *Container) GetNamed(name string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	inst, ok := c.byName[name]
	if !ok {
		return nil, &InstanceOfNameNotFoundError{Name: name}
	}
	return inst.value, nil
}

// sameValue compares stored values, falling back to deep equality for
// values that are not comparable with ==.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta := reflect.TypeOf(a)
	if ta == reflect.TypeOf(b) && ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// GetAs returns the instance for key typed as T.
//
// ok is false if the lookup fails or the stored value is not a T.
func GetAs[T any](c *Container, key keys.Key) (T, bool) {
	var zero T
	raw, err := c.Get(key)
	if err != nil {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// TryGetAs returns the instance for key typed as T, distinguishing
// "missing" from "wrong type" via the returned error.
func TryGetAs[T any](c *Container, key keys.Key) (T, error) {
	var zero T
	raw, err := c.Get(key)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &WrongTypeInstanceError{Key: key, GotType: reflect.TypeOf(raw).String()}
	}
	return v, nil
}

// MustGetAs returns the instance for key typed as T or panics.
func MustGetAs[T any](c *Container, key keys.Key) T {
	v, err := TryGetAs[T](c, key)
	if err != nil {
		panic(err)
	}
	return v
}
