package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcdonaldj/zipstore/internal/diff"
	"github.com/mcdonaldj/zipstore/internal/ports"
	"github.com/mcdonaldj/zipstore/internal/transfer"
)

// View represents the current view state
type View int

const (
	EntriesView   View = iota
	PreviewView        // Showing one entry's content
	ChangesView        // Showing entries changed since load (file list)
	EntryDiffView      // Showing the line diff of one changed entry
)

// Model is the main TUI model
type Model struct {
	svc      ports.BrowserService
	view     View
	width    int
	height   int
	quitting bool

	// Entries view
	entries     []ports.BrowserEntry
	entryCursor int

	// Preview view
	previewName   string
	previewLines  []string
	previewBinary bool
	previewScroll int

	// Changes view
	changes      []ports.BrowserChange
	changeCursor int

	// Entry diff view
	entryDiff       *diff.EntryDiff
	entryDiffScroll int

	// Status message
	statusMsg string
	statusErr bool
}

// Key bindings
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Remove  key.Binding
	Save    key.Binding
	Changes key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Remove: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "remove"),
	),
	Save: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "save"),
	),
	Changes: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "changes"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// NewModel creates a new TUI model over svc
func NewModel(svc ports.BrowserService) *Model {
	m := &Model{
		svc:  svc,
		view: EntriesView,
	}
	m.loadEntries()
	return m
}

// loadEntries refreshes the entry list and keeps the cursor in range
func (m *Model) loadEntries() {
	m.entries = m.svc.Entries()
	if m.entryCursor >= len(m.entries) {
		m.entryCursor = len(m.entries) - 1
	}
	if m.entryCursor < 0 {
		m.entryCursor = 0
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

type statusMsg struct {
	msg string
	err bool
}

type changesMsg struct {
	changes []ports.BrowserChange
}

type entryDiffMsg struct {
	result *diff.EntryDiff
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusMsg:
		m.statusMsg = msg.msg
		m.statusErr = msg.err
		m.loadEntries()
		return m, nil

	case changesMsg:
		m.changes = msg.changes
		m.changeCursor = 0
		m.view = ChangesView
		return m, nil

	case entryDiffMsg:
		m.entryDiff = msg.result
		m.entryDiffScroll = 0
		m.view = EntryDiffView
		return m, nil

	case tea.KeyMsg:
		// Clear status on any key
		m.statusMsg = ""
		m.statusErr = false

		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			m.moveCursor(-1)

		case key.Matches(msg, keys.Down):
			m.moveCursor(1)

		case key.Matches(msg, keys.Enter):
			if m.view == EntriesView && len(m.entries) > 0 {
				m.openPreview(m.entries[m.entryCursor])
			} else if m.view == ChangesView && len(m.changes) > 0 {
				return m, m.computeEntryDiff(m.changes[m.changeCursor])
			}

		case key.Matches(msg, keys.Back):
			switch m.view {
			case PreviewView:
				m.view = EntriesView
				m.previewLines = nil
				m.previewScroll = 0
			case ChangesView:
				m.view = EntriesView
				m.changes = nil
				m.changeCursor = 0
			case EntryDiffView:
				m.view = ChangesView
				m.entryDiff = nil
				m.entryDiffScroll = 0
			}

		case key.Matches(msg, keys.Remove):
			if m.view == EntriesView && len(m.entries) > 0 {
				name := m.entries[m.entryCursor].Name
				m.svc.Remove(name)
				m.loadEntries()
				m.statusMsg = fmt.Sprintf("Removed %s (unsaved)", name)
			}

		case key.Matches(msg, keys.Save):
			if m.view == EntriesView || m.view == ChangesView {
				return m, m.runSave()
			}

		case key.Matches(msg, keys.Changes):
			if m.view == EntriesView {
				return m, m.loadChanges()
			}
		}
	}

	return m, nil
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

func (m *Model) visibleHeight(reserved int) int {
	h := m.height - reserved
	if h < 5 {
		h = 5
	}
	return h
}

func (m *Model) moveCursor(delta int) {
	switch m.view {
	case EntriesView:
		m.entryCursor = clamp(m.entryCursor+delta, 0, len(m.entries)-1)
	case PreviewView:
		maxScroll := len(m.previewLines) - m.visibleHeight(10)
		m.previewScroll = clamp(m.previewScroll+delta, 0, max(maxScroll, 0))
	case ChangesView:
		m.changeCursor = clamp(m.changeCursor+delta, 0, len(m.changes)-1)
	case EntryDiffView:
		if m.entryDiff != nil {
			maxScroll := len(m.entryDiff.Lines) - m.visibleHeight(10)
			m.entryDiffScroll = clamp(m.entryDiffScroll+delta, 0, max(maxScroll, 0))
		}
	}
}

func (m *Model) openPreview(e ports.BrowserEntry) {
	if e.IsDir {
		m.statusMsg = fmt.Sprintf("%s is a directory", e.Name)
		return
	}
	payload, err := m.svc.Read(e.Name)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Error: %v", err)
		m.statusErr = true
		return
	}

	m.previewName = e.Name
	m.previewScroll = 0
	m.previewBinary = diff.IsBinary(payload)
	m.previewLines = nil
	if !m.previewBinary {
		m.previewLines = strings.Split(strings.TrimSuffix(string(payload), "\n"), "\n")
	}
	m.view = PreviewView
}

func (m *Model) runSave() tea.Cmd {
	return func() tea.Msg {
		path, err := m.svc.Save()
		if err != nil {
			return statusMsg{err: true, msg: fmt.Sprintf("Save failed: %v", err)}
		}
		return statusMsg{msg: fmt.Sprintf("✓ Saved %s", filepath.Base(path))}
	}
}

func (m *Model) loadChanges() tea.Cmd {
	return func() tea.Msg {
		return changesMsg{changes: m.svc.Changes()}
	}
}

func (m *Model) computeEntryDiff(change ports.BrowserChange) tea.Cmd {
	return func() tea.Msg {
		before, after := m.svc.Versions(change.Path)
		return entryDiffMsg{result: diff.CompareEntry(change.Path, before, after)}
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.view {
	case EntriesView:
		content = m.renderEntriesView()
	case PreviewView:
		content = m.renderPreviewView()
	case ChangesView:
		content = m.renderChangesView()
	case EntryDiffView:
		content = m.renderEntryDiffView()
	}

	return appStyle.Render(content)
}

func (m *Model) writeStatus(b *strings.Builder) {
	b.WriteString("\n")
	if m.statusMsg != "" {
		if m.statusErr {
			b.WriteString(errorBadge.Render(m.statusMsg))
		} else {
			b.WriteString(successBadge.Render(m.statusMsg))
		}
	}
	b.WriteString("\n")
}

func methodName(method uint16) string {
	switch method {
	case ports.MethodStore:
		return "store"
	case ports.MethodDeflate:
		return "deflate"
	default:
		return fmt.Sprintf("m%d", method)
	}
}

func (m *Model) renderEntriesView() string {
	var b strings.Builder

	title := titleStyle.Render(fmt.Sprintf(" 🗜 %s ", filepath.Base(m.svc.Archive())))
	b.WriteString(title)
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(dimStyle.Render("  Archive is empty"))
		b.WriteString("\n")
	} else {
		header := fmt.Sprintf("  %-40s %10s %8s %s",
			"ENTRY", "SIZE", "METHOD", "MODIFIED")
		b.WriteString(dimStyle.Render(header))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(strings.Repeat("─", 76)))
		b.WriteString("\n")

		visibleHeight := m.visibleHeight(10)
		start := 0
		if m.entryCursor >= visibleHeight {
			start = m.entryCursor - visibleHeight + 1
		}

		for i := start; i < len(m.entries) && i < start+visibleHeight; i++ {
			e := m.entries[i]
			cursor := "  "
			style := normalStyle
			if i == m.entryCursor {
				cursor = "▸ "
				style = selectedStyle
			}

			size := transfer.FormatSize(e.Size)
			if e.IsDir {
				size = "-"
			}
			modified := "-"
			if !e.Modified.IsZero() {
				modified = relativeTime(e.Modified)
			}

			line := fmt.Sprintf("%s%-40s %10s %8s %s",
				cursor, truncate(e.Name, 40), size, methodName(e.Method), modified)
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
	}

	// Pad to fixed height
	for i := len(m.entries); i < m.height-10; i++ {
		b.WriteString("\n")
	}

	m.writeStatus(&b)

	help := "[↑/↓] navigate  [enter] view  [x] remove  [c] changes  [s] save  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) renderPreviewView() string {
	var b strings.Builder

	title := titleStyle.Render(fmt.Sprintf(" 📄 %s ", m.previewName))
	b.WriteString(title)
	b.WriteString("\n\n")

	if m.previewBinary {
		b.WriteString(dimStyle.Render("  Binary entry - preview not available"))
		b.WriteString("\n")
	} else {
		visibleHeight := m.visibleHeight(10)
		endIdx := min(m.previewScroll+visibleHeight, len(m.previewLines))

		for i := m.previewScroll; i < endIdx; i++ {
			line := fmt.Sprintf("%4d  %s", i+1, truncate(m.previewLines[i], 100))
			b.WriteString(normalStyle.Render(line))
			b.WriteString("\n")
		}

		// Scroll indicator
		if len(m.previewLines) > visibleHeight {
			scrollInfo := fmt.Sprintf("  Lines %d-%d of %d",
				m.previewScroll+1, endIdx, len(m.previewLines))
			b.WriteString(dimStyle.Render(scrollInfo))
			b.WriteString("\n")
		}
	}

	m.writeStatus(&b)

	help := "[↑/↓] scroll  [esc] back  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) renderChangesView() string {
	var b strings.Builder

	title := titleStyle.Render(fmt.Sprintf(" 📊 Changes: %s ", filepath.Base(m.svc.Archive())))
	b.WriteString(title)
	b.WriteString("\n\n")

	var added, modified, deleted int
	for _, c := range m.changes {
		switch c.Status {
		case 'A':
			added++
		case 'M':
			modified++
		case 'D':
			deleted++
		}
	}
	summary := fmt.Sprintf("  Modified: %d   Added: %d   Deleted: %d", modified, added, deleted)
	b.WriteString(dimStyle.Render(summary))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", 70)))
	b.WriteString("\n")

	if len(m.changes) == 0 {
		b.WriteString(dimStyle.Render("  No unsaved changes"))
		b.WriteString("\n")
	} else {
		visibleHeight := m.visibleHeight(10)
		start := 0
		if m.changeCursor >= visibleHeight {
			start = m.changeCursor - visibleHeight + 1
		}

		for i := start; i < len(m.changes) && i < start+visibleHeight; i++ {
			c := m.changes[i]
			cursor := "  "
			style := normalStyle
			if i == m.changeCursor {
				cursor = "▸ "
				style = selectedStyle
			}

			line := fmt.Sprintf("%s%c %-50s %10s → %s", cursor, c.Status, truncate(c.Path, 50),
				transfer.FormatSize(c.SizeBefore), transfer.FormatSize(c.SizeAfter))
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
	}

	// Pad to fixed height
	for i := len(m.changes); i < m.height-10; i++ {
		b.WriteString("\n")
	}

	m.writeStatus(&b)

	help := "[↑/↓] navigate  [enter] view diff  [s] save  [esc] back  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) renderEntryDiffView() string {
	var b strings.Builder

	if m.entryDiff == nil {
		return "Loading..."
	}

	title := titleStyle.Render(fmt.Sprintf(" 📄 %s ", m.entryDiff.Path))
	b.WriteString(title)
	b.WriteString("\n")

	header := fmt.Sprintf("  %-35s │ %-35s", "on disk", "in memory")
	b.WriteString(dimStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", 75)))
	b.WriteString("\n")

	if m.entryDiff.IsBinary {
		b.WriteString(dimStyle.Render("  Binary entry - content diff not available"))
		b.WriteString("\n")
	} else if len(m.entryDiff.Lines) == 0 {
		b.WriteString(dimStyle.Render("  No differences"))
		b.WriteString("\n")
	} else {
		visibleHeight := m.visibleHeight(12)
		endIdx := min(m.entryDiffScroll+visibleHeight, len(m.entryDiff.Lines))

		for i := m.entryDiffScroll; i < endIdx; i++ {
			line := m.entryDiff.Lines[i]

			// Format line numbers
			ln1 := "   "
			ln2 := "   "
			if line.Before > 0 {
				ln1 = fmt.Sprintf("%3d", line.Before)
			}
			if line.After > 0 {
				ln2 = fmt.Sprintf("%3d", line.After)
			}

			content := truncate(line.Content, 60)

			switch line.Type {
			case '+':
				b.WriteString(addedStyle.Render(fmt.Sprintf("%s  + │ %s  + %s", ln1, ln2, content)))
			case '-':
				b.WriteString(deletedStyle.Render(fmt.Sprintf("%s  - │ %s  - %s", ln1, ln2, content)))
			default:
				b.WriteString(dimStyle.Render(fmt.Sprintf("%s    │ %s    %s", ln1, ln2, content)))
			}
			b.WriteString("\n")
		}

		// Scroll indicator
		if len(m.entryDiff.Lines) > visibleHeight {
			scrollInfo := fmt.Sprintf("  Lines %d-%d of %d",
				m.entryDiffScroll+1, endIdx, len(m.entryDiff.Lines))
			b.WriteString(dimStyle.Render(scrollInfo))
			b.WriteString("\n")
		}
	}

	m.writeStatus(&b)

	help := "[↑/↓] scroll  [esc] back  [q] quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// Run starts the TUI
func Run(svc ports.BrowserService) error {
	p := tea.NewProgram(NewModel(svc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Helper functions
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-1] + "…"
}

func relativeTime(t time.Time) string {
	elapsed := time.Since(t)
	switch {
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	case elapsed < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
