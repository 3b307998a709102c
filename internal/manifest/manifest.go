// Package manifest keeps a JSON history of the saves made to an archive.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mcdonaldj/zipstore/internal/ports"
)

// Suffix is appended to the archive path to name its manifest.
const Suffix = ".manifest.json"

type EntryRecord struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	CRC32    uint32    `json:"crc32"`
	Method   uint16    `json:"method"`
	Modified time.Time `json:"modified"`
}

type Snapshot struct {
	File       string        `json:"file"`
	SHA256     string        `json:"sha256"`
	SizeBytes  int64         `json:"size_bytes"`
	CreatedAt  time.Time     `json:"created_at"`
	EntryCount int           `json:"entry_count"`
	Entries    []EntryRecord `json:"entries"`
}

type Manifest struct {
	Archive   string     `json:"archive"`
	Snapshots []Snapshot `json:"snapshots"`
}

// Source is the read side of an archive store.
type Source interface {
	List() []ports.Descriptor
	Get(d ports.Descriptor) ([]byte, bool)
}

func ManifestPath(archive string) string {
	return archive + Suffix
}

func Load(archive string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(archive))
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{
				Archive:   archive,
				Snapshots: []Snapshot{},
			}, nil
		}
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Snapshots == nil {
		m.Snapshots = []Snapshot{}
	}
	return &m, nil
}

func (m *Manifest) Save() error {
	path := ManifestPath(m.Archive)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (m *Manifest) AddSnapshot(s Snapshot) {
	m.Snapshots = append(m.Snapshots, s)
}

func (m *Manifest) Latest() *Snapshot {
	if len(m.Snapshots) == 0 {
		return nil
	}
	return &m.Snapshots[len(m.Snapshots)-1]
}

// Prune drops the oldest snapshots beyond keepLast and returns how many were
// dropped. keepLast <= 0 keeps everything.
func (m *Manifest) Prune(keepLast int) int {
	if keepLast <= 0 || len(m.Snapshots) <= keepLast {
		return 0
	}

	// Snapshots are ordered oldest to newest
	toRemove := len(m.Snapshots) - keepLast
	m.Snapshots = append([]Snapshot(nil), m.Snapshots[toRemove:]...)
	return toRemove
}

// Build records the archive written at path together with the entries of src.
func Build(src Source, path string) (Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Snapshot{}, err
	}
	sum, err := ComputeSHA256(path)
	if err != nil {
		return Snapshot{}, err
	}

	descs := src.List()
	entries := make([]EntryRecord, 0, len(descs))
	for _, d := range descs {
		payload, ok := src.Get(d)
		if !ok {
			continue // removed since List
		}
		entries = append(entries, EntryRecord{
			Name:     d.Name,
			Size:     int64(len(payload)),
			CRC32:    crc32.ChecksumIEEE(payload),
			Method:   d.Method,
			Modified: d.Modified.UTC(),
		})
	}

	return Snapshot{
		File:       filepath.Base(path),
		SHA256:     sum,
		SizeBytes:  info.Size(),
		CreatedAt:  time.Now().UTC(),
		EntryCount: len(entries),
		Entries:    entries,
	}, nil
}

// Verify checks that the file at path still matches the recorded checksum.
func (s Snapshot) Verify(path string) error {
	sum, err := ComputeSHA256(path)
	if err != nil {
		return err
	}
	if sum != s.SHA256 {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", s.SHA256, sum)
	}
	return nil
}

// ComputeSHA256 calculates SHA256 hash of a file
func ComputeSHA256(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Record appends a snapshot of the archive at path to its manifest, prunes
// the history to keepLast and saves the manifest.
func Record(src Source, path string, keepLast int) (Snapshot, error) {
	m, err := Load(path)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err := Build(src, path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("building snapshot: %w", err)
	}
	m.AddSnapshot(snap)
	m.Prune(keepLast)
	if err := m.Save(); err != nil {
		return Snapshot{}, fmt.Errorf("saving manifest: %w", err)
	}
	return snap, nil
}
