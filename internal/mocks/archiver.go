package mocks

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/mcdonaldj/zipstore/internal/ports"
)

// MockEntry is one entry yielded or recorded by MockCodec.
type MockEntry struct {
	Desc    ports.Descriptor
	Payload []byte
	// ReadErr, when set, is returned by the payload reader after Payload.
	ReadErr error
}

// MockCodec implements ports.Codec for testing.
type MockCodec struct {
	mu sync.Mutex

	// Entries are yielded by readers, in order
	Entries []MockEntry
	// Errors maps method calls ("NewReader", "Next", "WriteEntry", "Close") to errors
	Errors map[string]error
	// FailEntry makes WriteEntry fail for the named entry
	FailEntry string
	// Written records entries passed to WriteEntry across all writers
	Written []MockEntry
	// Closed counts writer Close calls
	Closed int
}

// NewMockCodec creates a new mock codec.
func NewMockCodec() *MockCodec {
	return &MockCodec{Errors: make(map[string]error)}
}

// NewReader returns a reader over Entries.
func (m *MockCodec) NewReader(src io.ReaderAt, size int64) (ports.EntryReader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors["NewReader"]; ok {
		return nil, err
	}
	return &mockEntryReader{codec: m, entries: append([]MockEntry(nil), m.Entries...)}, nil
}

// NewWriter returns a writer that records into Written.
func (m *MockCodec) NewWriter(dst io.Writer) ports.EntryWriter {
	return &mockEntryWriter{codec: m, dst: dst}
}

// WrittenNames returns the names recorded by WriteEntry, in order.
func (m *MockCodec) WrittenNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.Written))
	for _, e := range m.Written {
		names = append(names, e.Desc.Name)
	}
	return names
}

type mockEntryReader struct {
	codec   *MockCodec
	entries []MockEntry
	next    int
}

func (r *mockEntryReader) Next() (ports.Descriptor, io.Reader, error) {
	r.codec.mu.Lock()
	err, ok := r.codec.Errors["Next"]
	r.codec.mu.Unlock()
	if ok {
		return ports.Descriptor{}, nil, err
	}
	if r.next >= len(r.entries) {
		return ports.Descriptor{}, nil, io.EOF
	}
	e := r.entries[r.next]
	r.next++

	var body io.Reader = bytes.NewReader(e.Payload)
	if e.ReadErr != nil {
		body = io.MultiReader(body, &errReader{err: e.ReadErr})
	}
	return e.Desc, body, nil
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }

type mockEntryWriter struct {
	codec *MockCodec
	dst   io.Writer
}

var errMockFailEntry = errors.New("mock: entry rejected")

func (w *mockEntryWriter) WriteEntry(d ports.Descriptor, payload []byte) error {
	w.codec.mu.Lock()
	defer w.codec.mu.Unlock()
	if err, ok := w.codec.Errors["WriteEntry"]; ok {
		return err
	}
	if w.codec.FailEntry != "" && d.Name == w.codec.FailEntry {
		return errMockFailEntry
	}
	w.codec.Written = append(w.codec.Written, MockEntry{Desc: d, Payload: bytes.Clone(payload)})
	_, err := w.dst.Write(payload)
	return err
}

func (w *mockEntryWriter) Close() error {
	w.codec.mu.Lock()
	defer w.codec.mu.Unlock()
	w.codec.Closed++
	if err, ok := w.codec.Errors["Close"]; ok {
		return err
	}
	return nil
}

// Compile-time check that MockCodec implements ports.Codec.
var _ ports.Codec = (*MockCodec)(nil)
