package ports

import (
	"io"
	"strings"
	"time"
)

// Compression methods understood by the zip codec.
const (
	MethodStore   uint16 = 0
	MethodDeflate uint16 = 8
)

// Key identifies an entry within one archive. Two descriptors address the
// same entry iff their keys are equal; metadata never takes part.
type Key string

// Descriptor names one archive member and carries the codec metadata needed
// to re-encode it.
type Descriptor struct {
	Name           string
	Comment        string
	Method         uint16
	Modified       time.Time
	CRC32          uint32 // as decoded; the encoder recomputes it
	Size           uint64 // uncompressed size as decoded; informational
	Extra          []byte
	ExternalAttrs  uint32
	CreatorVersion uint16
}

// NewDescriptor returns a deflated descriptor stamped with the current time.
func NewDescriptor(name string) Descriptor {
	return Descriptor{
		Name:     name,
		Method:   MethodDeflate,
		Modified: time.Now(),
	}
}

// Key returns the identity of the descriptor. Zip treats the entry name as
// identity, so the name is used verbatim.
func (d Descriptor) Key() Key {
	return Key(d.Name)
}

// IsDir reports whether the descriptor names a directory entry.
func (d Descriptor) IsDir() bool {
	return strings.HasSuffix(d.Name, "/")
}

// EntryReader yields the members of an archive in stored order.
type EntryReader interface {
	// Next returns the next descriptor and a reader producing its
	// decompressed payload. It returns io.EOF after the last entry.
	Next() (Descriptor, io.Reader, error)
}

// EntryWriter encodes entries into an archive stream.
type EntryWriter interface {
	// WriteEntry writes one compressed entry using d's metadata.
	WriteEntry(d Descriptor, payload []byte) error

	// Close writes the central directory and flushes buffered data.
	// It does not close the underlying writer.
	Close() error
}

// Codec abstracts the archive format for testability.
// Production code uses the ziparchiver adapter; tests use MockCodec.
type Codec interface {
	NewReader(src io.ReaderAt, size int64) (EntryReader, error)
	NewWriter(dst io.Writer) EntryWriter
}
