// Package mocks provides mock implementations for testing.
package mocks

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mcdonaldj/zipstore/internal/ports"
)

// MockFileSystem implements ports.FileSystem in memory for testing.
type MockFileSystem struct {
	mu sync.Mutex

	// Files maps paths to file contents
	Files map[string][]byte
	// Stats maps paths to FileInfo for Stat
	Stats map[string]os.FileInfo
	// ReadOnly marks paths that CanWrite reports as not writable
	ReadOnly map[string]bool
	// Errors maps paths to errors (for simulating failures)
	Errors map[string]error
	// OpErrors maps method names ("Touch", "CreateTemp", "OpenWrite", "Write", "Close") to errors
	OpErrors map[string]error
	// WalkEntries contains entries to return during Walk
	WalkEntries []WalkEntry
	// TempCount counts CreateTemp calls
	TempCount int
}

// WalkEntry represents a file or directory entry for Walk testing.
type WalkEntry struct {
	Path string
	Info os.FileInfo
	Err  error
}

// NewMockFileSystem creates a new mock filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files:    make(map[string][]byte),
		Stats:    make(map[string]os.FileInfo),
		ReadOnly: make(map[string]bool),
		Errors:   make(map[string]error),
		OpErrors: make(map[string]error),
	}
}

// Exists reports whether the named file exists.
func (m *MockFileSystem) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Files[name]
	if !ok {
		_, ok = m.Stats[name]
	}
	return ok
}

// CanWrite reports whether the named file is writable.
func (m *MockFileSystem) CanWrite(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Files[name]; !ok {
		return false
	}
	return !m.ReadOnly[name]
}

// Touch creates the named file if it does not exist.
func (m *MockFileSystem) Touch(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.OpErrors["Touch"]; ok {
		return err
	}
	if err, ok := m.Errors[name]; ok {
		return err
	}
	if _, ok := m.Files[name]; !ok {
		m.Files[name] = []byte{}
	}
	return nil
}

// CreateTemp creates a new uniquely named file and returns its path.
func (m *MockFileSystem) CreateTemp(dir, pattern string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.OpErrors["CreateTemp"]; ok {
		return "", err
	}
	if dir == "" {
		dir = "/tmp"
	}
	m.TempCount++
	name := strings.Replace(pattern, "*", fmt.Sprintf("%06d", m.TempCount), 1)
	path := filepath.Join(dir, name)
	m.Files[path] = []byte{}
	return path, nil
}

// Open opens the named file for reading.
func (m *MockFileSystem) Open(name string) (ports.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	content, ok := m.Files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return &mockFile{
		Reader: bytes.NewReader(content),
		info:   &mockFileInfo{name: filepath.Base(name), size: int64(len(content))},
	}, nil
}

// OpenWrite opens the named file for writing, truncating it.
func (m *MockFileSystem) OpenWrite(name string) (io.WriteCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.OpErrors["OpenWrite"]; ok {
		return nil, err
	}
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if _, ok := m.Files[name]; !ok {
		return nil, os.ErrNotExist
	}
	m.Files[name] = []byte{}
	return &mockWriter{fs: m, name: name}, nil
}

// Stat returns file info for the named file.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if info, ok := m.Stats[name]; ok {
		return info, nil
	}
	if content, ok := m.Files[name]; ok {
		return &mockFileInfo{name: filepath.Base(name), size: int64(len(content)), mode: 0644}, nil
	}
	return nil, os.ErrNotExist
}

// MkdirAll creates a directory along with any necessary parents.
func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[path]; ok {
		return err
	}
	m.Stats[path] = &mockFileInfo{name: filepath.Base(path), isDir: true, mode: fs.ModeDir | perm}
	return nil
}

// ReadFile reads the named file and returns the contents.
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if content, ok := m.Files[name]; ok {
		return bytes.Clone(content), nil
	}
	return nil, os.ErrNotExist
}

// WriteFile writes data to the named file, creating it if necessary.
func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[name]; ok {
		return err
	}
	m.Files[name] = bytes.Clone(data)
	return nil
}

// Walk walks the file tree rooted at root, calling fn for each file or directory.
// Entries are visited in registration order; SkipDir on a directory skips the
// entries registered beneath it.
func (m *MockFileSystem) Walk(root string, fn ports.WalkFunc) error {
	var skipped []string
	for _, entry := range m.WalkEntries {
		if !strings.HasPrefix(entry.Path, root) {
			continue
		}
		if slices.ContainsFunc(skipped, func(dir string) bool {
			return strings.HasPrefix(entry.Path, dir+"/")
		}) {
			continue
		}
		err := fn(entry.Path, entry.Info, entry.Err)
		switch {
		case err == nil:
		case err == filepath.SkipDir && entry.Info != nil && entry.Info.IsDir():
			skipped = append(skipped, entry.Path)
		case err == filepath.SkipDir || err == filepath.SkipAll:
			return nil
		default:
			return err
		}
	}
	return nil
}

// AddWalkFile registers a regular file for Walk and ReadFile.
func (m *MockFileSystem) AddWalkFile(path string, content []byte, modTime time.Time) {
	m.Files[path] = content
	m.WalkEntries = append(m.WalkEntries, WalkEntry{
		Path: path,
		Info: &mockFileInfo{name: filepath.Base(path), size: int64(len(content)), mode: 0644, modTime: modTime},
	})
}

// AddWalkDir registers a directory for Walk.
func (m *MockFileSystem) AddWalkDir(path string) {
	m.WalkEntries = append(m.WalkEntries, WalkEntry{
		Path: path,
		Info: &mockFileInfo{name: filepath.Base(path), isDir: true, mode: fs.ModeDir | 0755},
	})
}

// AddWalkSymlink registers a symbolic link for Walk.
func (m *MockFileSystem) AddWalkSymlink(path string) {
	m.WalkEntries = append(m.WalkEntries, WalkEntry{
		Path: path,
		Info: &mockFileInfo{name: filepath.Base(path), mode: fs.ModeSymlink | 0777},
	})
}

// Content returns a copy of the named file's content.
func (m *MockFileSystem) Content(name string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.Files[name])
}

// mockFileInfo implements os.FileInfo for testing.
type mockFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	isDir   bool
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi *mockFileInfo) Sys() interface{}   { return nil }

// mockFile implements ports.File over an in-memory snapshot.
type mockFile struct {
	*bytes.Reader
	info *mockFileInfo
}

func (f *mockFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *mockFile) Close() error               { return nil }

// mockWriter appends to the file on every Write.
type mockWriter struct {
	fs   *MockFileSystem
	name string
}

func (w *mockWriter) Write(p []byte) (int, error) {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()
	if err, ok := w.fs.OpErrors["Write"]; ok {
		return 0, err
	}
	w.fs.Files[w.name] = append(w.fs.Files[w.name], p...)
	return len(p), nil
}

func (w *mockWriter) Close() error {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()
	if err, ok := w.fs.OpErrors["Close"]; ok {
		return err
	}
	return nil
}

// Compile-time check that MockFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*MockFileSystem)(nil)
