package browsersvc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdonaldj/zipstore/internal/manifest"
	"github.com/mcdonaldj/zipstore/internal/mocks"
	"github.com/mcdonaldj/zipstore/internal/ports"
	"github.com/mcdonaldj/zipstore/internal/store"
)

func seedArchive(t *testing.T, entries map[string]string, order ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.zip")
	s := store.New()
	for _, name := range order {
		s.Put(ports.NewDescriptor(name), []byte(entries[name]))
	}
	_, err := s.Save(path)
	require.NoError(t, err)
	return path
}

func TestServiceEntriesAndRead(t *testing.T) {
	path := seedArchive(t, map[string]string{"a.txt": "alpha", "dir/": "", "dir/b.txt": "be"}, "a.txt", "dir/", "dir/b.txt")

	svc, err := New(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, path, svc.Archive())

	entries := svc.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, int64(5), entries[0].Size)
	assert.Equal(t, uint16(ports.MethodDeflate), entries[0].Method)
	assert.True(t, entries[1].IsDir)

	data, err := svc.Read("dir/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "be", string(data))

	_, err = svc.Read("missing")
	assert.Error(t, err)
}

func TestServiceMissingArchiveStartsEmpty(t *testing.T) {
	svc, err := New(filepath.Join(t.TempDir(), "new.zip"), Options{})
	require.NoError(t, err)
	assert.Empty(t, svc.Entries())
	assert.Empty(t, svc.Changes())
}

func TestServiceDecodesOnce(t *testing.T) {
	path := seedArchive(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"}, "a.txt", "b.txt")
	obs := mocks.NewRecordingObserver()

	svc, err := New(path, Options{Store: []store.Option{store.WithObserver(obs)}})
	require.NoError(t, err)

	decodes := 0
	for _, e := range obs.Events {
		if e.Type == store.EventOpenComplete && e.Data["decoded"] == true {
			decodes++
		}
	}
	assert.Equal(t, 1, decodes)

	// The baseline is a copy; editing memory must not leak into it.
	svc.Remove("a.txt")
	before, after := svc.Versions("a.txt")
	assert.Equal(t, "alpha", string(before))
	assert.Nil(t, after)

	before, after = svc.Versions("b.txt")
	assert.Equal(t, "beta", string(before))
	assert.Equal(t, "beta", string(after))
	assert.Len(t, svc.Changes(), 1)
}

func TestServiceChangesAndSave(t *testing.T) {
	path := seedArchive(t, map[string]string{"keep.txt": "k", "drop.txt": "d"}, "keep.txt", "drop.txt")

	svc, err := New(path, Options{Manifest: true, KeepLast: 5})
	require.NoError(t, err)

	svc.Remove("drop.txt")
	changes := svc.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, ports.BrowserChange{Path: "drop.txt", Status: 'D', SizeBefore: 1}, changes[0])

	before, after := svc.Versions("drop.txt")
	assert.Equal(t, "d", string(before))
	assert.Nil(t, after)

	written, err := svc.Save()
	require.NoError(t, err)
	assert.Equal(t, path, written)
	assert.Empty(t, svc.Changes(), "save should reset the baseline")

	reopened, err := store.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())

	m, err := manifest.Load(path)
	require.NoError(t, err)
	require.Len(t, m.Snapshots, 1)
	assert.Equal(t, 1, m.Snapshots[0].EntryCount)
	assert.NoError(t, m.Snapshots[0].Verify(path))
}

func TestServiceSaveWithoutManifest(t *testing.T) {
	path := seedArchive(t, map[string]string{"a": "1"}, "a")

	svc, err := New(path, Options{})
	require.NoError(t, err)
	_, err = svc.Save()
	require.NoError(t, err)

	m, err := manifest.Load(path)
	require.NoError(t, err)
	assert.Empty(t, m.Snapshots)
}

func TestServiceOpenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, writeFile(path, "not a zip"))

	_, err := New(path, Options{})
	assert.ErrorIs(t, err, store.ErrIO)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
