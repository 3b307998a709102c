// Package ziparchiver provides the zip codec adapter using klauspost/compress.
package ziparchiver

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/mcdonaldj/zipstore/internal/ports"
)

// ErrEmptyName is returned when an entry without a name is written.
var ErrEmptyName = errors.New("zip: entry name is empty")

// Extra-field tags the writer regenerates on every encode. They are dropped
// on decode so that repeated load/save cycles do not accumulate copies.
const (
	zip64ExtraID   = 0x0001
	extTimeExtraID = 0x5455
)

// ZipArchiver implements ports.Codec using klauspost/compress/zip.
type ZipArchiver struct {
	level int
}

// Option configures a ZipArchiver.
type Option func(*ZipArchiver)

// WithLevel sets the deflate level used for new entries (-1 for default).
func WithLevel(level int) Option {
	return func(a *ZipArchiver) {
		a.level = level
	}
}

// New creates a new ZipArchiver adapter.
func New(opts ...Option) *ZipArchiver {
	a := &ZipArchiver{level: flate.DefaultCompression}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Level returns the configured deflate level.
func (a *ZipArchiver) Level() int {
	return a.level
}

// NewReader parses the central directory of src.
func (a *ZipArchiver) NewReader(src io.ReaderAt, size int64) (ports.EntryReader, error) {
	zr, err := zip.NewReader(src, size)
	if err != nil {
		return nil, fmt.Errorf("reading zip directory: %w", err)
	}
	return &entryReader{files: zr.File}, nil
}

// NewWriter starts a new archive on dst.
func (a *ZipArchiver) NewWriter(dst io.Writer) ports.EntryWriter {
	w := zip.NewWriter(dst)
	level := a.level
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return &entryWriter{w: w}
}

type entryReader struct {
	files   []*zip.File
	next    int
	current io.ReadCloser
}

func (r *entryReader) Next() (ports.Descriptor, io.Reader, error) {
	if r.current != nil {
		_ = r.current.Close() // payload already drained or abandoned
		r.current = nil
	}
	if r.next >= len(r.files) {
		return ports.Descriptor{}, nil, io.EOF
	}

	f := r.files[r.next]
	r.next++

	rc, err := f.Open()
	if err != nil {
		return ports.Descriptor{}, nil, fmt.Errorf("opening entry %s: %w", f.Name, err)
	}
	r.current = rc

	return toDescriptor(&f.FileHeader), rc, nil
}

type entryWriter struct {
	w *zip.Writer
}

func (w *entryWriter) WriteEntry(d ports.Descriptor, payload []byte) error {
	if d.Name == "" {
		return ErrEmptyName
	}

	out, err := w.w.CreateHeader(toHeader(d))
	if err != nil {
		return fmt.Errorf("creating entry %s: %w", d.Name, err)
	}
	if _, err := out.Write(payload); err != nil {
		return fmt.Errorf("writing entry %s: %w", d.Name, err)
	}
	return nil
}

func (w *entryWriter) Close() error {
	if err := w.w.Close(); err != nil {
		return fmt.Errorf("closing zip writer: %w", err)
	}
	return nil
}

func toDescriptor(h *zip.FileHeader) ports.Descriptor {
	return ports.Descriptor{
		Name:           h.Name,
		Comment:        h.Comment,
		Method:         h.Method,
		Modified:       h.Modified,
		CRC32:          h.CRC32,
		Size:           h.UncompressedSize64,
		Extra:          stripExtra(h.Extra),
		ExternalAttrs:  h.ExternalAttrs,
		CreatorVersion: h.CreatorVersion,
	}
}

// toHeader builds a fresh header; CRC and sizes are computed by the writer.
func toHeader(d ports.Descriptor) *zip.FileHeader {
	h := &zip.FileHeader{
		Name:           d.Name,
		Comment:        d.Comment,
		Method:         d.Method,
		Modified:       d.Modified,
		ExternalAttrs:  d.ExternalAttrs,
		CreatorVersion: d.CreatorVersion,
	}
	if len(d.Extra) > 0 {
		h.Extra = append([]byte(nil), d.Extra...)
	}
	return h
}

// stripExtra removes the extra-field blocks the writer regenerates.
// Malformed trailing bytes are dropped.
func stripExtra(extra []byte) []byte {
	var out []byte
	for len(extra) >= 4 {
		tag := binary.LittleEndian.Uint16(extra[0:2])
		size := int(binary.LittleEndian.Uint16(extra[2:4]))
		if len(extra) < 4+size {
			break
		}
		block := extra[:4+size]
		extra = extra[4+size:]
		switch tag {
		case zip64ExtraID, extTimeExtraID:
			continue
		}
		out = append(out, block...)
	}
	return out
}

// Compile-time check that ZipArchiver implements ports.Codec.
var _ ports.Codec = (*ZipArchiver)(nil)
