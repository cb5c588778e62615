package rules

import (
	"github.com/sghaida/graft/blueprint"
	"github.com/sghaida/graft/keys"
	"github.com/sghaida/graft/registry"
)

// AsyncRuleNotAllowedError is returned when registering an async rule into
// a registry that only admits synchronous rules.
type AsyncRuleNotAllowedError struct {
	Rule Rule
}

// Error implements the error interface.
func (e *AsyncRuleNotAllowedError) Error() string {
	return "rules: async rule " + e.Rule.Name() + " is not allowed by this registry"
}

// Registry stores and indexes construction rules, wrapping a typed
// registry keyed by each rule's output key.
type Registry struct {
	rules       *registry.TypedRegistry[Rule]
	allowsAsync bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// DisallowAsync makes the registry reject async rules at registration
// time. Use it when only the synchronous builder will ever run.
func DisallowAsync() RegistryOption {
	return func(r *Registry) { r.allowsAsync = false }
}

// WithRegistryOptions passes options through to the underlying typed
// registry.
func WithRegistryOptions(opts ...registry.RegistryOption[Rule]) RegistryOption {
	return func(r *Registry) { r.rules = registry.New(opts...) }
}

// NewRegistry creates a rule registry. Async rules are admitted by
// default.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		rules:       registry.New[Rule](),
		allowsAsync: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AllowsAsync reports whether async rules may be registered.
func (r *Registry) AllowsAsync() bool { return r.allowsAsync }

// Register adds a rule. Structural duplicates are rejected with
// registry.DuplicatedEntryError.
func (r *Registry) Register(rule Rule) error {
	if rule.IsAsync() && !r.allowsAsync {
		return &AsyncRuleNotAllowedError{Rule: rule}
	}
	return r.rules.Add(rule)
}

// RegisterAll adds rules in order, stopping at the first error.
func (r *Registry) RegisterAll(rs ...Rule) error {
	for _, rule := range rs {
		if err := r.Register(rule); err != nil {
			return err
		}
	}
	return nil
}

// Get returns every rule whose output key matches key.
func (r *Registry) Get(key keys.Key) []Rule {
	return r.rules.Get(key)
}

// Provider adapts a rule registry into a constructor provider for the
// blueprint resolver.
type Provider struct {
	rules *Registry
}

// NewProvider creates a Provider backed by reg.
func NewProvider(reg *Registry) *Provider {
	return &Provider{rules: reg}
}

// ProvideFor yields one constructor per matching rule, carrying the rule's
// declared dependency keys, async flag and optionality.
func (p *Provider) ProvideFor(key keys.Key) []blueprint.Constructor {
	matched := p.rules.Get(key)
	if len(matched) == 0 {
		return nil
	}
	out := make([]blueprint.Constructor, 0, len(matched))
	for _, rule := range matched {
		out = append(out, blueprint.Constructor{
			Source:       "rule::" + rule.Name(),
			Call:         rule.fn,
			IsAsync:      rule.IsAsync(),
			IsOptional:   rule.IsOptional(),
			Output:       key,
			Dependencies: rule.Params(),
		})
	}
	return out
}
