// Package sentinel defines the error values shared between storage
// implementations and the services that consume them. Stores translate
// backend-specific failures into these so callers never match on driver
// errors.
package sentinel

import "errors"

var (
	// ErrNotFound signals that the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness violation on insert.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable signals that a backing service could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
