package store

import (
	"strconv"

	"github.com/sghaida/graft/keys"
)

// InstanceOfKeyNotFoundError is returned when no instance exists for a key.
type InstanceOfKeyNotFoundError struct {
	Key keys.Key
}

// Error implements the error interface.
func (e *InstanceOfKeyNotFoundError) Error() string {
	return "store: instance of " + e.Key.String() + " not found"
}

// InstanceOfNameNotFoundError is returned when no instance exists with a
// name.
type InstanceOfNameNotFoundError struct {
	Name string
}

// Error implements the error interface.
func (e *InstanceOfNameNotFoundError) Error() string {
	return "store: instance named " + strconv.Quote(e.Name) + " not found"
}

// AmbiguousInstanceError is returned when several instances match a key and
// none of them is primary.
type AmbiguousInstanceError struct {
	Key   keys.Key
	Names []string
}

// Error implements the error interface.
func (e *AmbiguousInstanceError) Error() string {
	s := "store: ambiguous instances for " + e.Key.String() + ":"
	for _, name := range e.Names {
		s += " " + strconv.Quote(name)
	}
	return s
}

// ConflictingInstanceNameError is returned when adding an instance under a
// name that is already taken.
type ConflictingInstanceNameError struct {
	Name string
}

// Error implements the error interface.
func (e *ConflictingInstanceNameError) Error() string {
	return "store: instance name " + strconv.Quote(e.Name) + " already taken"
}

// MultiplePrimaryInstanceError is returned when a second primary instance
// is added for the same key, or when a lookup finds several primaries.
type MultiplePrimaryInstanceError struct {
	Name string
}

// Error implements the error interface.
func (e *MultiplePrimaryInstanceError) Error() string {
	return "store: multiple primary instances, offending instance " + strconv.Quote(e.Name)
}

// WrongTypeInstanceError is returned by TryGetAs when an instance exists
// but is not of the requested Go type.
type WrongTypeInstanceError struct {
	Key     keys.Key
	GotType string
}

// Error implements the error interface.
func (e *WrongTypeInstanceError) Error() string {
	return "store: instance of " + e.Key.String() + " has wrong type (" + e.GotType + ")"
}
