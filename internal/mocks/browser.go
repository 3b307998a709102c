package mocks

import (
	"fmt"
	"slices"

	"github.com/mcdonaldj/zipstore/internal/ports"
)

// MockBrowserService implements ports.BrowserService for testing.
type MockBrowserService struct {
	// ArchivePath is returned from Archive
	ArchivePath string

	// EntryList is the list of entries to return
	EntryList []ports.BrowserEntry
	// Payloads maps entry names to their content
	Payloads map[string][]byte
	// ReadErrors maps entry names to errors returned from Read
	ReadErrors map[string]error

	// SaveError is the error to return from Save
	SaveError error

	// ChangeList is the list of changes to return
	ChangeList []ports.BrowserChange
	// Before maps entry names to their on-disk content
	Before map[string][]byte

	// Call tracking
	ReadCalls    []string
	RemoveCalls  []string
	SaveCalls    int
	ChangesCalls int
}

// NewMockBrowserService creates a new mock browser service.
func NewMockBrowserService() *MockBrowserService {
	return &MockBrowserService{
		ArchivePath: "/test/archive.zip",
		Payloads:    make(map[string][]byte),
		ReadErrors:  make(map[string]error),
		Before:      make(map[string][]byte),
	}
}

// Archive returns the path of the archive being browsed.
func (m *MockBrowserService) Archive() string {
	return m.ArchivePath
}

// Entries returns the configured entries.
func (m *MockBrowserService) Entries() []ports.BrowserEntry {
	return slices.Clone(m.EntryList)
}

// Read returns the configured payload or error.
func (m *MockBrowserService) Read(name string) ([]byte, error) {
	m.ReadCalls = append(m.ReadCalls, name)
	if err, ok := m.ReadErrors[name]; ok {
		return nil, err
	}
	payload, ok := m.Payloads[name]
	if !ok {
		return nil, fmt.Errorf("entry not found: %s", name)
	}
	return payload, nil
}

// Remove drops the entry from EntryList.
func (m *MockBrowserService) Remove(name string) {
	m.RemoveCalls = append(m.RemoveCalls, name)
	m.EntryList = slices.DeleteFunc(m.EntryList, func(e ports.BrowserEntry) bool {
		return e.Name == name
	})
	delete(m.Payloads, name)
}

// Save records the call and returns SaveError.
func (m *MockBrowserService) Save() (string, error) {
	m.SaveCalls++
	if m.SaveError != nil {
		return "", m.SaveError
	}
	return m.ArchivePath, nil
}

// Changes returns the configured changes.
func (m *MockBrowserService) Changes() []ports.BrowserChange {
	m.ChangesCalls++
	return slices.Clone(m.ChangeList)
}

// Versions returns the configured before and after payloads.
func (m *MockBrowserService) Versions(name string) ([]byte, []byte) {
	return m.Before[name], m.Payloads[name]
}

// Compile-time check that MockBrowserService implements ports.BrowserService.
var _ ports.BrowserService = (*MockBrowserService)(nil)
