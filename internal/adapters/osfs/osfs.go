// Package osfs provides a filesystem adapter using the standard library os package.
package osfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mcdonaldj/zipstore/internal/ports"
)

// OSFileSystem implements ports.FileSystem using the standard library.
type OSFileSystem struct{}

// New creates a new OSFileSystem adapter.
func New() *OSFileSystem {
	return &OSFileSystem{}
}

// Exists reports whether the named file exists.
func (f *OSFileSystem) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// CanWrite reports whether the named file is writable by this process.
func (f *OSFileSystem) CanWrite(name string) bool {
	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		return false
	}
	return canWrite(name)
}

// Touch creates the named file if it does not exist.
func (f *OSFileSystem) Touch(name string) error {
	file, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return err
	}
	return file.Close()
}

// CreateTemp creates a new uniquely named file and returns its path.
func (f *OSFileSystem) CreateTemp(dir, pattern string) (string, error) {
	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	name := file.Name()
	if err := file.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// Open opens the named file for reading.
func (f *OSFileSystem) Open(name string) (ports.File, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// OpenWrite opens the named file for writing, truncating it.
func (f *OSFileSystem) OpenWrite(name string) (io.WriteCloser, error) {
	file, err := os.OpenFile(name, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Stat returns file info for the named file.
func (f *OSFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// MkdirAll creates a directory along with any necessary parents.
func (f *OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// ReadFile reads the named file and returns the contents.
func (f *OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFile writes data to the named file, creating it if necessary.
func (f *OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// Walk walks the file tree rooted at root, calling fn for each file or directory.
func (f *OSFileSystem) Walk(root string, fn ports.WalkFunc) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		return fn(path, info, err)
	})
}

// Compile-time check that OSFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*OSFileSystem)(nil)
