package vfsoverlay

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNoEntry is returned when a path has no matching entry, or when the
	// entry it resolves to is absent from the backing provider.
	// Re-exported from io/fs so errors.Is(err, fs.ErrNotExist) also holds.
	ErrNoEntry = fs.ErrNotExist

	// ErrUnsupported is returned by mutating calls against a read-only provider
	ErrUnsupported = errors.ErrUnsupported
)

// Operation names used in [PathError]
const (
	OpRead      = "read"
	OpReadDir   = "readdir"
	OpWrite     = "write"
	OpChmod     = "chmod"
	OpRemove    = "remove"
	OpMkdir     = "mkdir"
	OpSymlink   = "symlink"
	OpCopy      = "copy"
	OpMove      = "move"
	OpChdir     = "chdir"
	OpReadlink  = "readlink"
	OpConfigure = "configure"
)

// PathError records the operation and path that failed along with the
// underlying error.
type PathError struct {
	Op   string // Operation that failed (e.g. "read", "write")
	Path string // Affected path
	Err  error  // Underlying error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *PathError) Unwrap() error {
	return e.Err
}

// NoEntry returns a [PathError] wrapping [ErrNoEntry]
func NoEntry(op, path string) error {
	return &PathError{Op: op, Path: path, Err: ErrNoEntry}
}

// Unsupported returns a [PathError] wrapping [ErrUnsupported]
func Unsupported(op, path string) error {
	return &PathError{Op: op, Path: path, Err: ErrUnsupported}
}

// IsNoEntry reports whether err is, or wraps, [ErrNoEntry]
func IsNoEntry(err error) bool {
	return errors.Is(err, ErrNoEntry)
}

// IsUnsupported reports whether err is, or wraps, [ErrUnsupported]
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
