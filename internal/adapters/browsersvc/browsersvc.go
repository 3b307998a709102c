// Package browsersvc provides the real implementation of ports.BrowserService.
package browsersvc

import (
	"fmt"

	"github.com/mcdonaldj/zipstore/internal/diff"
	"github.com/mcdonaldj/zipstore/internal/manifest"
	"github.com/mcdonaldj/zipstore/internal/ports"
	"github.com/mcdonaldj/zipstore/internal/store"
)

// Options controls how the service opens and saves the archive.
type Options struct {
	// Store options applied to both the working and the baseline store.
	Store []store.Option
	// Manifest records a snapshot after every save when true.
	Manifest bool
	// KeepLast bounds the manifest history.
	KeepLast int
}

// Service implements ports.BrowserService over an in-memory store. The
// baseline holds the archive as last read from or written to disk.
type Service struct {
	path     string
	opts     Options
	working  *store.Store
	baseline *store.Store
}

// New opens the archive at path. A missing archive starts empty.
func New(path string, opts Options) (*Service, error) {
	working, err := store.Open(path, opts.Store...)
	if err != nil {
		return nil, err
	}
	return &Service{path: path, opts: opts, working: working, baseline: clone(working, opts.Store)}, nil
}

// clone copies src into a new store without touching disk.
func clone(src *store.Store, opts []store.Option) *store.Store {
	dst := store.New(opts...)
	for _, d := range src.List() {
		payload, _ := src.Get(d)
		dst.Put(d, payload)
	}
	return dst
}

// Archive returns the path of the archive being browsed.
func (s *Service) Archive() string {
	return s.path
}

// Entries returns the entries currently held in memory.
func (s *Service) Entries() []ports.BrowserEntry {
	descs := s.working.List()
	out := make([]ports.BrowserEntry, 0, len(descs))
	for _, d := range descs {
		payload, ok := s.working.Get(d)
		if !ok {
			continue
		}
		out = append(out, ports.BrowserEntry{
			Name:     d.Name,
			Size:     int64(len(payload)),
			Method:   d.Method,
			Modified: d.Modified,
			IsDir:    d.IsDir(),
		})
	}
	return out
}

// Read returns the payload of the named entry.
func (s *Service) Read(name string) ([]byte, error) {
	payload, ok := s.working.Get(ports.Descriptor{Name: name})
	if !ok {
		return nil, fmt.Errorf("entry not found: %s", name)
	}
	return payload, nil
}

// Remove deletes the named entry from memory.
func (s *Service) Remove(name string) {
	s.working.Remove(ports.Descriptor{Name: name})
}

// Save writes the working store back to the archive, records a manifest
// snapshot when enabled and makes the saved archive the new baseline.
func (s *Service) Save() (string, error) {
	written, err := s.working.Save(s.path)
	if err != nil {
		return "", err
	}

	if s.opts.Manifest {
		if _, err := manifest.Record(s.working, written, s.opts.KeepLast); err != nil {
			return written, fmt.Errorf("recording manifest: %w", err)
		}
	}

	baseline, err := store.Open(written, s.opts.Store...)
	if err != nil {
		return written, fmt.Errorf("reloading %s: %w", written, err)
	}
	s.baseline = baseline
	return written, nil
}

// Changes lists the differences between the baseline and the working store.
func (s *Service) Changes() []ports.BrowserChange {
	result := diff.Compare(s.baseline, s.working)
	out := make([]ports.BrowserChange, 0, len(result.Changes))
	for _, c := range result.Changes {
		out = append(out, ports.BrowserChange{
			Path:       c.Path,
			Status:     c.Status,
			SizeBefore: c.SizeBefore,
			SizeAfter:  c.SizeAfter,
		})
	}
	return out
}

// Versions returns the baseline and working payloads of an entry.
func (s *Service) Versions(name string) ([]byte, []byte) {
	d := ports.Descriptor{Name: name}
	before, _ := s.baseline.Get(d)
	after, _ := s.working.Get(d)
	return before, after
}

// Compile-time check that Service implements ports.BrowserService.
var _ ports.BrowserService = (*Service)(nil)
