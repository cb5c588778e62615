package builder

import (
	"github.com/sghaida/graft/blueprint"
	"github.com/sghaida/graft/keys"
)

// AsyncBlueprintError is returned when the synchronous Builder is asked to
// build an async blueprint. Programmer error; use AsyncBuilder instead.
type AsyncBlueprintError struct {
	Blueprint *blueprint.Blueprint
}

// Error implements the error interface.
func (e *AsyncBlueprintError) Error() string {
	return "builder: cannot build async blueprint " + e.Blueprint.Source() + " synchronously"
}

// NonOptionalBuilderMismatchError is returned when a non-optional
// blueprint's constructor produced no value.
type NonOptionalBuilderMismatchError struct {
	Blueprint *blueprint.Blueprint
}

// Error implements the error interface.
func (e *NonOptionalBuilderMismatchError) Error() string {
	return "builder: constructor " + e.Blueprint.Source() + " produced no value for non-optional blueprint"
}

// NoValueError is returned when a dependency build produced no value, so
// the dependent constructor cannot be invoked.
type NoValueError struct {
	Key keys.Key
}

// Error implements the error interface.
func (e *NoValueError) Error() string {
	return "builder: no value produced for " + e.Key.String()
}
