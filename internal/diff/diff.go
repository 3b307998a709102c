// Package diff compares the entries of two archives and the payloads of a
// single entry.
package diff

import (
	"bytes"
	"hash/crc32"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/mcdonaldj/zipstore/internal/ports"
)

// Source is the read side of an archive store.
type Source interface {
	List() []ports.Descriptor
	Get(d ports.Descriptor) ([]byte, bool)
}

// Change represents an entry that differs between two archives
type Change struct {
	Path       string
	Status     rune // 'M' modified, 'A' added, 'D' deleted
	SizeBefore int64
	SizeAfter  int64
}

// Result contains the comparison between two archives
type Result struct {
	Changes  []Change
	Added    int
	Modified int
	Deleted  int
}

// Empty reports whether the archives hold the same entries.
func (r *Result) Empty() bool {
	return len(r.Changes) == 0
}

type fileInfo struct {
	size  int64
	crc32 uint32
}

// snapshot checksums every payload. Descriptor CRCs are not trusted because
// Put does not refresh them.
func snapshot(src Source) map[string]fileInfo {
	files := make(map[string]fileInfo)
	for _, d := range src.List() {
		if d.IsDir() {
			continue
		}
		payload, ok := src.Get(d)
		if !ok {
			continue
		}
		files[d.Name] = fileInfo{
			size:  int64(len(payload)),
			crc32: crc32.ChecksumIEEE(payload),
		}
	}
	return files
}

// Compare lists the entries added, modified and deleted going from before to after.
func Compare(before, after Source) *Result {
	files1 := snapshot(before)
	files2 := snapshot(after)

	result := &Result{}

	// Find all unique paths
	allPaths := make(map[string]bool)
	for path := range files1 {
		allPaths[path] = true
	}
	for path := range files2 {
		allPaths[path] = true
	}

	for path := range allPaths {
		info1, in1 := files1[path]
		info2, in2 := files2[path]

		change := Change{Path: path}

		switch {
		case in1 && !in2:
			change.Status = 'D'
			change.SizeBefore = info1.size
			result.Deleted++
		case !in1 && in2:
			change.Status = 'A'
			change.SizeAfter = info2.size
			result.Added++
		case info1.crc32 != info2.crc32 || info1.size != info2.size:
			change.Status = 'M'
			change.SizeBefore = info1.size
			change.SizeAfter = info2.size
			result.Modified++
		default:
			// Unchanged, skip
			continue
		}

		result.Changes = append(result.Changes, change)
	}

	// Sort changes: M, A, D then by path
	order := map[rune]int{'M': 0, 'A': 1, 'D': 2}
	sort.Slice(result.Changes, func(i, j int) bool {
		if result.Changes[i].Status != result.Changes[j].Status {
			return order[result.Changes[i].Status] < order[result.Changes[j].Status]
		}
		return result.Changes[i].Path < result.Changes[j].Path
	})

	return result
}

// Line represents a single line in the diff output
type Line struct {
	Before  int    // Line number before (0 if added)
	After   int    // Line number after (0 if deleted)
	Type    rune   // '+' added, '-' deleted, ' ' unchanged
	Content string // Line content without the trailing newline
}

// EntryDiff contains the line-by-line diff of a single entry
type EntryDiff struct {
	Path     string
	Lines    []Line
	Added    int
	Deleted  int
	IsBinary bool
}

// IsBinary checks if content appears to be binary
func IsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	// Check first 8000 bytes for null bytes or invalid UTF-8
	sample := content[:min(len(content), 8000)]

	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	// A multi-byte rune cut at the sample boundary is not binary.
	if len(sample) < len(content) {
		sample = trimPartialRune(sample)
	}
	return !utf8.Valid(sample)
}

func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}

// CompareEntry computes the line diff between two payloads of the same entry.
// Nil payloads stand for an entry that is absent on that side.
func CompareEntry(path string, before, after []byte) *EntryDiff {
	result := &EntryDiff{Path: path}

	if IsBinary(before) || IsBinary(after) {
		result.IsBinary = true
		return result
	}

	dmp := diffmatchpatch.New()
	chars1, chars2, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	n1, n2 := 0, 0
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				n1++
				n2++
				result.Lines = append(result.Lines, Line{Before: n1, After: n2, Type: ' ', Content: text})
			case diffmatchpatch.DiffDelete:
				n1++
				result.Deleted++
				result.Lines = append(result.Lines, Line{Before: n1, Type: '-', Content: text})
			case diffmatchpatch.DiffInsert:
				n2++
				result.Added++
				result.Lines = append(result.Lines, Line{After: n2, Type: '+', Content: text})
			}
		}
	}

	return result
}

// splitLines splits newline-terminated text into lines. A missing final
// newline still yields the last line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
