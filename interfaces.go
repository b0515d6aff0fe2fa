// Package vfsoverlay contains core domain types and interfaces for composing
// virtual, redirected and real filesystem providers into one logical view.
package vfsoverlay

import "io/fs"

// FileSystem is the capability set every provider implements: real and
// in-memory backends as well as the redirecting and composite filesystems,
// which consume and satisfy this same interface so they can be nested.
//
// Paths are slash-separated absolute virtual paths. Every call is synchronous.
type FileSystem interface {
	// Exists reports whether path exists. With followSymlink false a dangling
	// symlink still counts as present.
	Exists(path string, followSymlink bool) bool

	IsDirectory(path string) bool
	IsFile(path string) bool
	IsExecutableFile(path string) bool
	IsSymlink(path string) bool

	// ReadDir returns the names of the entries in the directory at path
	ReadDir(path string) ([]string, error)

	// ReadFile returns the full contents of the file at path
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the contents of the file at path, creating it if needed
	WriteFile(path string, data []byte) error

	// Chmod changes permission bits, descending into directories when recursive
	Chmod(mode fs.FileMode, path string, recursive bool) error

	// RemoveAll removes path and everything below it
	RemoveAll(path string) error

	// Mkdir creates a directory, along with missing parents when recursive
	Mkdir(path string, recursive bool) error

	// Symlink creates a symbolic link at path pointing at target. When relative
	// is set the link stores target relative to the link's directory.
	Symlink(path, target string, relative bool) error

	Copy(src, dst string) error
	Move(src, dst string) error

	// Getwd returns the current working directory, if one is known
	Getwd() (string, bool)
	Chdir(path string) error

	HomeDir() string
	// CachesDir returns the provider's caches directory, if it has one
	CachesDir() (string, bool)
}
