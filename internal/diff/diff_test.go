package diff

import (
	"strings"
	"testing"

	"github.com/mcdonaldj/zipstore/internal/ports"
	"github.com/mcdonaldj/zipstore/internal/store"
)

func storeWith(entries map[string]string) *store.Store {
	s := store.New()
	for name, content := range entries {
		s.Put(ports.NewDescriptor(name), []byte(content))
	}
	return s
}

func TestCompare(t *testing.T) {
	before := storeWith(map[string]string{
		"same.txt":    "unchanged",
		"edit.txt":    "old",
		"resize.txt":  "abc",
		"gone.txt":    "bye",
		"b/gone2.txt": "bye",
		"dir/":        "",
	})
	after := storeWith(map[string]string{
		"same.txt":   "unchanged",
		"edit.txt":   "new",
		"resize.txt": "abcdef",
		"fresh.txt":  "hi",
	})

	result := Compare(before, after)

	if result.Added != 1 || result.Modified != 2 || result.Deleted != 2 {
		t.Errorf("counts = +%d ~%d -%d, expected +1 ~2 -2", result.Added, result.Modified, result.Deleted)
	}

	var got []string
	for _, c := range result.Changes {
		got = append(got, string(c.Status)+" "+c.Path)
	}
	want := []string{"M edit.txt", "M resize.txt", "A fresh.txt", "D b/gone2.txt", "D gone.txt"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("changes = %v, expected %v", got, want)
	}

	for _, c := range result.Changes {
		switch c.Path {
		case "resize.txt":
			if c.SizeBefore != 3 || c.SizeAfter != 6 {
				t.Errorf("resize sizes = %d -> %d, expected 3 -> 6", c.SizeBefore, c.SizeAfter)
			}
		case "fresh.txt":
			if c.SizeBefore != 0 || c.SizeAfter != 2 {
				t.Errorf("fresh sizes = %d -> %d, expected 0 -> 2", c.SizeBefore, c.SizeAfter)
			}
		case "gone.txt":
			if c.SizeBefore != 3 || c.SizeAfter != 0 {
				t.Errorf("gone sizes = %d -> %d, expected 3 -> 0", c.SizeBefore, c.SizeAfter)
			}
		}
	}
}

func TestCompareIgnoresStaleDescriptorCRC(t *testing.T) {
	before := store.New()
	d := ports.NewDescriptor("a.txt")
	d.CRC32 = 1
	before.Put(d, []byte("same"))

	after := store.New()
	d.CRC32 = 2
	after.Put(d, []byte("same"))

	if result := Compare(before, after); !result.Empty() {
		t.Errorf("payloads are equal, expected no changes, got %+v", result.Changes)
	}
}

func TestCompareEmpty(t *testing.T) {
	result := Compare(store.New(), store.New())
	if !result.Empty() {
		t.Errorf("expected no changes, got %+v", result.Changes)
	}
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		expected bool
	}{
		{"empty content", nil, false},
		{"plain text", []byte("Hello, world!\nThis is a test file.\n"), false},
		{"text with unicode", []byte("Hello 世界! Émojis: 🎉"), false},
		{"binary with null bytes", []byte("some\x00binary\x00content"), true},
		{"invalid UTF-8", []byte{0xff, 0xfe, 0x00, 0x01}, true},
		{"rune cut at sample boundary", []byte(strings.Repeat("a", 7999) + "é"), false},
		{"null byte past sample", []byte(strings.Repeat("a", 9000) + "\x00"), false},
		{"invalid inside sample", []byte(strings.Repeat("a", 100) + "\xff" + strings.Repeat("a", 9000)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBinary(tt.content); got != tt.expected {
				t.Errorf("IsBinary() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func lineTypes(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteRune(l.Type)
	}
	return b.String()
}

func TestCompareEntryModified(t *testing.T) {
	result := CompareEntry("f.txt", []byte("a\nb\nc\n"), []byte("a\nx\nc\n"))

	if result.IsBinary {
		t.Fatal("text payloads should not be binary")
	}
	if got := lineTypes(result.Lines); got != " -+ " {
		t.Errorf("line types = %q, expected %q", got, " -+ ")
	}
	if result.Added != 1 || result.Deleted != 1 {
		t.Errorf("Added/Deleted = %d/%d, expected 1/1", result.Added, result.Deleted)
	}

	expected := []Line{
		{Before: 1, After: 1, Type: ' ', Content: "a"},
		{Before: 2, After: 0, Type: '-', Content: "b"},
		{Before: 0, After: 2, Type: '+', Content: "x"},
		{Before: 3, After: 3, Type: ' ', Content: "c"},
	}
	for i, want := range expected {
		if i >= len(result.Lines) {
			break
		}
		if result.Lines[i] != want {
			t.Errorf("line %d = %+v, expected %+v", i, result.Lines[i], want)
		}
	}
}

func TestCompareEntryAddedAndDeleted(t *testing.T) {
	added := CompareEntry("new.txt", nil, []byte("one\ntwo\n"))
	if got := lineTypes(added.Lines); got != "++" {
		t.Errorf("added line types = %q, expected %q", got, "++")
	}
	if added.Lines[1].After != 2 || added.Lines[1].Content != "two" {
		t.Errorf("second added line = %+v", added.Lines[1])
	}

	deleted := CompareEntry("old.txt", []byte("one\ntwo"), nil)
	if got := lineTypes(deleted.Lines); got != "--" {
		t.Errorf("deleted line types = %q, expected %q", got, "--")
	}
	if deleted.Deleted != 2 {
		t.Errorf("Deleted = %d, expected 2", deleted.Deleted)
	}
}

func TestCompareEntryUnchanged(t *testing.T) {
	result := CompareEntry("same.txt", []byte("x\ny\n"), []byte("x\ny\n"))
	if got := lineTypes(result.Lines); got != "  " {
		t.Errorf("line types = %q, expected two context lines", got)
	}
	if result.Added != 0 || result.Deleted != 0 {
		t.Errorf("unchanged payloads reported %d/%d changes", result.Added, result.Deleted)
	}
}

func TestCompareEntryBinary(t *testing.T) {
	result := CompareEntry("img.png", []byte("\x89PNG\x00\x00"), []byte("text"))
	if !result.IsBinary {
		t.Error("expected binary detection")
	}
	if len(result.Lines) != 0 {
		t.Errorf("binary diff should carry no lines, got %d", len(result.Lines))
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		text     string
		expected []string
	}{
		{"", nil},
		{"a\n", []string{"a"}},
		{"a\nb\n", []string{"a", "b"}},
		{"a\nb", []string{"a", "b"}},
		{"\n", []string{""}},
	}

	for _, tt := range tests {
		got := splitLines(tt.text)
		if strings.Join(got, "|") != strings.Join(tt.expected, "|") || len(got) != len(tt.expected) {
			t.Errorf("splitLines(%q) = %q, expected %q", tt.text, got, tt.expected)
		}
	}
}
