package ports

import "time"

// BrowserEntry contains entry metadata for display.
type BrowserEntry struct {
	Name     string
	Size     int64
	Method   uint16
	Modified time.Time
	IsDir    bool
}

// BrowserChange describes an entry that differs between the archive on disk
// and the entries held in memory.
type BrowserChange struct {
	Path       string
	Status     rune // 'M' modified, 'A' added, 'D' deleted
	SizeBefore int64
	SizeAfter  int64
}

// BrowserService provides operations needed by the TUI.
// This abstraction allows the TUI to be tested without a real archive.
type BrowserService interface {
	// Archive returns the path of the archive being browsed.
	Archive() string

	// Entries returns the entries currently held in memory.
	Entries() []BrowserEntry

	// Read returns the payload of the named entry.
	Read(name string) ([]byte, error)

	// Remove deletes the named entry from memory.
	Remove(name string)

	// Save writes the in-memory entries back to the archive and returns the
	// path written.
	Save() (string, error)

	// Changes lists the differences between the archive on disk and memory.
	Changes() []BrowserChange

	// Versions returns the on-disk and in-memory payloads of an entry.
	// A nil slice means the entry is absent on that side.
	Versions(name string) (before, after []byte)
}
