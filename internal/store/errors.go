package store

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Open, Decode, Save and SaveTo is an
// *Error whose Kind is one of these.
var (
	// ErrNotFound is returned when a source exists but cannot be opened.
	ErrNotFound = errors.New("archive not found")

	// ErrIO is returned when reading, decoding, encoding or writing fails.
	ErrIO = errors.New("archive i/o failure")

	// ErrWriteAccess is returned when a destination cannot be created or is
	// not writable.
	ErrWriteAccess = errors.New("destination not writable")
)

var errNotWritable = errors.New("permission check failed")

// Error records the failing operation, the path involved and the cause.
type Error struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	path := e.Path
	if path == "" {
		path = "<stream>"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, path, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
