package blueprint

import (
	"errors"
	"strings"

	"github.com/sghaida/graft/keys"
	"github.com/sghaida/graft/resolution"
)

// ResolverError marks every error produced by the resolver. Use errors.As
// with a *ResolverError target to test whether an error belongs to the
// resolution taxonomy regardless of its concrete type.
type ResolverError interface {
	error
	resolverError()
}

// ErrProviderRegistered is returned when registering a provider that is
// already registered.
var ErrProviderRegistered = errors.New("blueprint: provider already registered")

// InvalidResolutionModeError is raised for an unrecognized resolution mode.
// This is a programmer error and always surfaces.
type InvalidResolutionModeError struct {
	Mode resolution.Mode
}

func (e *InvalidResolutionModeError) resolverError() {}

// Error implements the error interface.
func (e *InvalidResolutionModeError) Error() string {
	return "blueprint: invalid resolution mode " + e.Mode.String()
}

// NoConstructorError is raised when no provider produced a candidate for a
// key. It is a local failure: one dead branch among many, aggregated by the
// resolver rather than surfaced directly.
type NoConstructorError struct {
	Key    keys.Key
	Traces Traces
}

func (e *NoConstructorError) resolverError() {}

// Error implements the error interface.
func (e *NoConstructorError) Error() string {
	return "blueprint: no constructor for " + e.Key.String()
}

// CyclicDependencyError is raised when a constructor's dependency chain
// revisits its own (source, param, key) triple. Like NoConstructorError it
// is a local failure.
type CyclicDependencyError struct {
	Key    keys.Key
	Traces Traces
}

func (e *CyclicDependencyError) resolverError() {}

// Error implements the error interface.
func (e *CyclicDependencyError) Error() string {
	return "blueprint: cyclic dependency for " + e.Key.String()
}

// ResolutionFailureError aggregates every branch-local error for a key once
// all branches have failed. It is the only error that normally surfaces to
// the top-level caller from Resolve.
type ResolutionFailureError struct {
	Key    keys.Key
	Traces Traces
	Errs   []error
}

func (e *ResolutionFailureError) resolverError() {}

// Error implements the error interface.
func (e *ResolutionFailureError) Error() string {
	var b strings.Builder
	b.WriteString("blueprint: failed to resolve ")
	b.WriteString(e.Key.String())
	for _, err := range e.Errs {
		b.WriteString("\n- ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the collected branch errors to errors.Is and errors.As.
func (e *ResolutionFailureError) Unwrap() []error { return e.Errs }

// Contains reports whether any collected error matches target per
// errors.As semantics.
func (e *ResolutionFailureError) Contains(target any) bool {
	for _, err := range e.Errs {
		if errors.As(err, target) {
			return true
		}
	}
	return false
}

// MultipleDependencyResolutionError is raised when the Unique policy finds
// more than one non-optional blueprint for a key. It surfaces to the
// caller: recovery requires a different mode or a narrower key.
type MultipleDependencyResolutionError struct {
	Key     keys.Key
	Sources []string
	Traces  Traces
}

func (e *MultipleDependencyResolutionError) resolverError() {}

// Error implements the error interface.
func (e *MultipleDependencyResolutionError) Error() string {
	return "blueprint: multiple dependency resolutions for " + e.Key.String() +
		": " + strings.Join(e.Sources, ", ")
}

// MultipleResolutionError is raised by get-one surfaces when a key resolves
// to more than one non-optional blueprint.
type MultipleResolutionError struct {
	Key     keys.Key
	Sources []string
}

func (e *MultipleResolutionError) resolverError() {}

// Error implements the error interface.
func (e *MultipleResolutionError) Error() string {
	return "blueprint: multiple resolutions for " + e.Key.String() +
		": " + strings.Join(e.Sources, ", ")
}

// NoResolutionError is raised by get-one surfaces when a key resolves to
// nothing at all.
type NoResolutionError struct {
	Key keys.Key
}

func (e *NoResolutionError) resolverError() {}

// Error implements the error interface.
func (e *NoResolutionError) Error() string {
	return "blueprint: no resolution for " + e.Key.String()
}
