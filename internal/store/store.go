// Package store keeps a whole archive in memory as an ordered set of
// descriptor/payload pairs. Archives are decoded completely on load and
// encoded completely on save; everything in between is a map operation.
//
// A Store is safe for concurrent use. Every method takes the same mutex
// for its full duration, so a Save never observes a half-applied Put.
//
// Without options a Store uses the zip codec and the OS filesystem. Both
// are replaceable through WithCodec and WithFileSystem.
package store

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/mcdonaldj/zipstore/internal/adapters/osfs"
	"github.com/mcdonaldj/zipstore/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/zipstore/internal/observability"
	"github.com/mcdonaldj/zipstore/internal/ports"
)

type record struct {
	desc    ports.Descriptor
	payload []byte
}

// Store is an in-memory archive.
type Store struct {
	mu      sync.Mutex
	entries map[ports.Key]*record
	order   []ports.Key

	id          string
	codec       ports.Codec
	fs          ports.FileSystem
	obs         observability.Observer
	bufSize     int
	tempDir     string
	tempPattern string
}

func newStore(opts ...Option) *Store {
	s := &Store{
		entries:     make(map[ports.Key]*record),
		id:          uuid.NewString(),
		codec:       ziparchiver.New(),
		fs:          osfs.New(),
		obs:         observability.NoOpObserver{},
		bufSize:     DefaultBufferSize,
		tempPattern: DefaultTempPattern,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New returns an empty store.
func New(opts ...Option) *Store {
	return newStore(opts...)
}

// Open decodes the archive at source into a new store. An empty source or
// a source that does not exist yields an empty store and no error.
func Open(source string, opts ...Option) (*Store, error) {
	s := newStore(opts...)
	s.emit(EventOpenStart, observability.LevelVerbose, map[string]any{"path": source})

	if source == "" || !s.fs.Exists(source) {
		s.emit(EventOpenComplete, observability.LevelInfo, map[string]any{
			"path":    source,
			"entries": 0,
			"decoded": false,
		})
		return s, nil
	}

	f, err := s.fs.Open(source)
	if err != nil {
		return nil, s.fail(EventOpenError, "open", source, ErrNotFound, err)
	}
	defer func() { _ = f.Close() }() // read-only; nothing to flush

	info, err := f.Stat()
	if err != nil {
		return nil, s.fail(EventOpenError, "open", source, ErrIO, err)
	}
	if err := s.decode(f, info.Size()); err != nil {
		return nil, s.fail(EventOpenError, "open", source, ErrIO, err)
	}

	s.emit(EventOpenComplete, observability.LevelInfo, map[string]any{
		"path":    source,
		"entries": len(s.order),
		"decoded": true,
	})
	return s, nil
}

// Decode reads a complete archive from src into a new store.
func Decode(src io.ReaderAt, size int64, opts ...Option) (*Store, error) {
	s := newStore(opts...)
	s.emit(EventOpenStart, observability.LevelVerbose, map[string]any{"size": size})

	if err := s.decode(src, size); err != nil {
		return nil, s.fail(EventOpenError, "decode", "", ErrIO, err)
	}

	s.emit(EventOpenComplete, observability.LevelInfo, map[string]any{
		"entries": len(s.order),
		"decoded": true,
	})
	return s, nil
}

func (s *Store) decode(src io.ReaderAt, size int64) error {
	r, err := s.codec.NewReader(src, size)
	if err != nil {
		return err
	}

	buf := make([]byte, s.bufSize)
	for {
		d, body, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		payload, err := drain(body, buf)
		if err != nil {
			return fmt.Errorf("reading entry %s: %w", d.Name, err)
		}
		s.upsert(d, payload)
	}
}

// drain reads body to EOF in buf-sized chunks. The payload length is what
// the decompressor produced, not what the header claimed.
func drain(body io.Reader, buf []byte) ([]byte, error) {
	payload := make([]byte, 0, len(buf))
	for {
		n, err := body.Read(buf)
		payload = append(payload, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return payload, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// upsert inserts or replaces an entry. A replaced entry keeps its position.
// Callers hold s.mu, or own s exclusively during construction.
func (s *Store) upsert(d ports.Descriptor, payload []byte) {
	k := d.Key()
	if rec, ok := s.entries[k]; ok {
		rec.desc = d
		rec.payload = payload
		return
	}
	s.entries[k] = &record{desc: d, payload: payload}
	s.order = append(s.order, k)
}

// ID returns the store's diagnostic identifier.
func (s *Store) ID() string {
	return s.id
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// List returns a snapshot of the descriptors in insertion order.
func (s *Store) List() []ports.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ports.Descriptor, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, cloneDescriptor(s.entries[k].desc))
	}

	s.emit(EventListComplete, observability.LevelVerbose, map[string]any{"entries": len(out)})
	return out
}

// Get returns a copy of the payload stored under d's key.
func (s *Store) Get(d ports.Descriptor) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[d.Key()]
	s.emit(EventGetComplete, observability.LevelVerbose, map[string]any{"name": d.Name, "found": ok})
	if !ok {
		return nil, false
	}
	return slices.Clone(rec.payload), true
}

// Put inserts an entry or replaces the descriptor and payload of the entry
// with the same key. The payload is copied; a nil payload is stored empty.
// Descriptors are not validated here; the codec rejects bad ones on Save.
func (s *Store) Put(d ports.Descriptor, payload []byte) {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsert(cloneDescriptor(d), stored)
	s.emit(EventPutComplete, observability.LevelVerbose, map[string]any{"name": d.Name, "bytes": len(stored)})
}

// Remove deletes the entry with d's key. Removing an absent entry is a no-op.
func (s *Store) Remove(d ports.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := d.Key()
	_, ok := s.entries[k]
	if ok {
		delete(s.entries, k)
		if i := slices.Index(s.order, k); i >= 0 {
			s.order = slices.Delete(s.order, i, i+1)
		}
	}
	s.emit(EventRemoveDone, observability.LevelVerbose, map[string]any{"name": d.Name, "removed": ok})
}

// Save encodes the store to dest and returns the path written. An empty
// dest writes to a new temporary file. A missing dest is created first.
//
// On failure the destination may hold a truncated archive and must not be
// used. The in-memory entries are never modified by Save.
func (s *Store) Save(dest string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emit(EventSaveStart, observability.LevelVerbose, map[string]any{"path": dest, "entries": len(s.order)})

	if dest == "" {
		tmp, err := s.fs.CreateTemp(s.tempDir, s.tempPattern)
		if err != nil {
			return "", s.fail(EventSaveError, "save", s.tempDir, ErrWriteAccess, err)
		}
		dest = tmp
		s.emit(EventTempCreated, observability.LevelInfo, map[string]any{"path": dest})
	}

	if !s.fs.Exists(dest) {
		if err := s.fs.Touch(dest); err != nil {
			return "", s.fail(EventSaveError, "save", dest, ErrWriteAccess, err)
		}
		s.emit(EventTargetCreated, observability.LevelInfo, map[string]any{"path": dest})
	}
	if !s.fs.CanWrite(dest) {
		return "", s.fail(EventSaveError, "save", dest, ErrWriteAccess, errNotWritable)
	}

	w, err := s.fs.OpenWrite(dest)
	if err != nil {
		return "", s.fail(EventSaveError, "save", dest, ErrIO, err)
	}
	written, err := s.encode(w)
	if err != nil {
		_ = w.Close() // destination is already unusable
		return "", s.fail(EventSaveError, "save", dest, ErrIO, err)
	}
	if err := w.Close(); err != nil {
		return "", s.fail(EventSaveError, "save", dest, ErrIO, err)
	}

	s.emit(EventSaveComplete, observability.LevelInfo, map[string]any{
		"path":    dest,
		"entries": len(s.order),
		"bytes":   written,
	})
	return dest, nil
}

// SaveTo encodes the store to w. w is not closed.
func (s *Store) SaveTo(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emit(EventSaveStart, observability.LevelVerbose, map[string]any{"entries": len(s.order)})

	written, err := s.encode(w)
	if err != nil {
		return s.fail(EventSaveError, "save", "", ErrIO, err)
	}

	s.emit(EventSaveComplete, observability.LevelInfo, map[string]any{
		"entries": len(s.order),
		"bytes":   written,
	})
	return nil
}

// encode writes every entry in order. Callers hold s.mu.
func (s *Store) encode(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	ew := s.codec.NewWriter(cw)
	for _, k := range s.order {
		rec := s.entries[k]
		if err := ew.WriteEntry(rec.desc, rec.payload); err != nil {
			return cw.n, err
		}
	}
	if err := ew.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func cloneDescriptor(d ports.Descriptor) ports.Descriptor {
	d.Extra = slices.Clone(d.Extra)
	return d
}
