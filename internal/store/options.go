package store

import (
	"github.com/mcdonaldj/zipstore/internal/observability"
	"github.com/mcdonaldj/zipstore/internal/ports"
)

const (
	// DefaultBufferSize is the chunk size used to drain entry payloads.
	DefaultBufferSize = 2048

	// DefaultTempPattern names temporary destinations created by Save("").
	DefaultTempPattern = "zipstore_*.zip"
)

// Option configures a Store.
type Option func(*Store)

// WithCodec sets the archive codec. Defaults to the zip codec.
func WithCodec(c ports.Codec) Option {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithFileSystem sets the filesystem collaborator. Defaults to the OS.
func WithFileSystem(fsys ports.FileSystem) Option {
	return func(s *Store) {
		if fsys != nil {
			s.fs = fsys
		}
	}
}

// WithObserver sets the diagnostics sink. Defaults to a no-op observer.
func WithObserver(obs observability.Observer) Option {
	return func(s *Store) {
		if obs != nil {
			s.obs = obs
		}
	}
}

// WithBufferSize sets the decode chunk size. Non-positive values are ignored.
func WithBufferSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.bufSize = n
		}
	}
}

// WithTempDir sets the directory for temporary destinations. Empty means
// the system default.
func WithTempDir(dir string) Option {
	return func(s *Store) {
		s.tempDir = dir
	}
}

// WithTempPattern sets the os.CreateTemp pattern for temporary destinations.
func WithTempPattern(pattern string) Option {
	return func(s *Store) {
		if pattern != "" {
			s.tempPattern = pattern
		}
	}
}
