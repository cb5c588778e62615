// Package rules stores and indexes rule-backed constructors.
//
// A Rule is the explicit, registration-time descriptor of a construction
// function: its output key, its named parameter keys, whether it is
// asynchronous and whether it may produce no value. Rules replace
// reflection-based signature discovery; the engine is descriptor-driven.
package rules

import (
	"github.com/sghaida/graft/blueprint"
	"github.com/sghaida/graft/keys"
)

// Rule is a registered construction rule. Rules are immutable values; build
// them with New.
type Rule struct {
	name     string
	output   keys.Key
	params   []blueprint.Dependency
	fn       blueprint.ConstructFunc
	isAsync  bool
	optional bool
	priority int
}

// RuleOption configures a Rule under construction.
type RuleOption func(*Rule)

// WithParam declares a named dependency of the rule.
func WithParam(name string, key keys.Key) RuleOption {
	return func(r *Rule) {
		r.params = append(r.params, blueprint.Dependency{Name: name, Key: key})
	}
}

// WithPriority adjusts the rule's retrieval order; higher sorts first.
func WithPriority(priority int) RuleOption {
	return func(r *Rule) { r.priority = priority }
}

// Async marks the rule's function as asynchronous: it suspends on its
// context and requires the async builder.
func Async() RuleOption {
	return func(r *Rule) { r.isAsync = true }
}

// Optional marks the rule as allowed to produce no value.
func Optional() RuleOption {
	return func(r *Rule) { r.optional = true }
}

// WithDependencyQualifiers attaches qualifiers to every declared parameter
// key, e.g. to opt all dependencies of this rule out of the caller's
// resolution mode.
func WithDependencyQualifiers(quals ...keys.Qualifier) RuleOption {
	return func(r *Rule) {
		for i, p := range r.params {
			k := p.Key
			for _, q := range quals {
				k = k.WithQualifier(q)
			}
			r.params[i].Key = k
		}
	}
}

// New builds a Rule producing output via fn. The name identifies the rule
// in diagnostics and duplicate detection; use a package-qualified function
// name.
//
// Note that WithDependencyQualifiers applies to parameters declared before
// it; declare parameters first.
func New(name string, output keys.Key, fn blueprint.ConstructFunc, opts ...RuleOption) Rule {
	r := Rule{name: name, output: output, fn: fn}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Key implements registry.Entry: rules are indexed under their output key.
func (r Rule) Key() keys.Key { return r.output }

// Name implements registry.Entry.
func (r Rule) Name() string { return r.name }

// Priority implements registry.Entry.
func (r Rule) Priority() int { return r.priority }

// Output returns the key the rule satisfies.
func (r Rule) Output() keys.Key { return r.output }

// Params returns the declared dependencies.
func (r Rule) Params() []blueprint.Dependency {
	if len(r.params) == 0 {
		return nil
	}
	out := make([]blueprint.Dependency, len(r.params))
	copy(out, r.params)
	return out
}

// IsAsync reports whether the rule requires the async builder.
func (r Rule) IsAsync() bool { return r.isAsync }

// IsOptional reports whether the rule may produce no value.
func (r Rule) IsOptional() bool { return r.optional }
