// Package ports defines interfaces (contracts) for external dependencies.
// These enable dependency injection and testability via mock implementations.
package ports

import (
	"io"
	"io/fs"
	"os"
)

// File is an opened source archive.
type File interface {
	io.Reader
	io.ReaderAt
	io.Closer
	Stat() (fs.FileInfo, error)
}

// FileSystem abstracts filesystem operations for testability.
// Production code uses OSFileSystem adapter; tests use MockFileSystem.
type FileSystem interface {
	// Exists reports whether the named file exists.
	Exists(name string) bool

	// CanWrite reports whether the named file is writable by this process.
	CanWrite(name string) bool

	// Touch creates the named file if it does not exist.
	Touch(name string) error

	// CreateTemp creates a new uniquely named file and returns its path.
	CreateTemp(dir, pattern string) (string, error)

	// Open opens the named file for reading.
	Open(name string) (File, error)

	// OpenWrite opens the named file for writing, truncating it.
	OpenWrite(name string) (io.WriteCloser, error)

	// Stat returns file info for the named file.
	Stat(name string) (os.FileInfo, error)

	// MkdirAll creates a directory along with any necessary parents.
	MkdirAll(path string, perm os.FileMode) error

	// ReadFile reads the named file and returns the contents.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm os.FileMode) error

	// Walk walks the file tree rooted at root, calling fn for each file or directory.
	Walk(root string, fn WalkFunc) error
}

// WalkFunc is the type of function called by Walk.
type WalkFunc func(path string, info os.FileInfo, err error) error
