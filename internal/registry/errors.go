package registry

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when neither the registry nor the loader knows a name.
var ErrNotFound = errors.New("module not found")

// LoadError is returned when the loader failed while locating or parsing a
// blueprint. The entry stays unresolved and a later call retries the load.
// A LoadError matches ErrNotFound: the caller still got no module.
type LoadError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("loading module %q: %v", e.Name, e.Err)
}

// Unwrap returns the loader error.
func (e *LoadError) Unwrap() error { return e.Err }

// Is reports ErrNotFound as a match.
func (e *LoadError) Is(target error) bool { return target == ErrNotFound }

// InstantiationError is returned when a resolved blueprint could not be
// turned into a live module. It never matches ErrNotFound.
type InstantiationError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *InstantiationError) Error() string {
	return fmt.Sprintf("instantiating module %q: %v", e.Name, e.Err)
}

// Unwrap returns the factory error.
func (e *InstantiationError) Unwrap() error { return e.Err }
