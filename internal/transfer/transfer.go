// Package transfer moves files between a directory tree and an archive store.
package transfer

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/mcdonaldj/zipstore/internal/ports"
)

// Sink receives imported entries.
type Sink interface {
	Put(d ports.Descriptor, payload []byte)
}

// Source provides entries to export.
type Source interface {
	List() []ports.Descriptor
	Get(d ports.Descriptor) ([]byte, bool)
}

// ImportOptions controls how Import names and filters files.
type ImportOptions struct {
	// Prefix is prepended to every entry name.
	Prefix string
	// Exclude holds basenames or glob patterns to skip.
	Exclude []string
	// Skip holds file paths left out silently, such as the destination
	// archive and its manifest when they live inside the imported tree.
	Skip []string
	// Method is the compression method for new entries.
	Method uint16
}

// ImportResult summarises an Import.
type ImportResult struct {
	Count   int
	Bytes   int64
	Skipped []string
}

// ExportResult summarises an Export.
type ExportResult struct {
	Count int
	Bytes int64
}

func shouldExclude(p string, excludePatterns []string) bool {
	base := filepath.Base(p)
	for _, pattern := range excludePatterns {
		// Check exact match
		if base == pattern {
			return true
		}
		// Check glob pattern
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// Import puts every regular file under dir into dst. Files that cannot be
// read are reported in the result instead of failing the import; an
// unreadable dir fails it.
func Import(dst Sink, fsys ports.FileSystem, dir string, opts ImportOptions) (ImportResult, error) {
	var res ImportResult
	skip := absPaths(opts.Skip)

	walkErr := fsys.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			res.Skipped = append(res.Skipped, p)
			return nil
		}
		if p == dir && !info.IsDir() {
			return fmt.Errorf("not a directory")
		}
		if skip[absPath(p)] {
			return nil
		}

		if p != dir && shouldExclude(p, opts.Exclude) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil // Directories are created implicitly
		}
		if !info.Mode().IsRegular() {
			res.Skipped = append(res.Skipped, p)
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			res.Skipped = append(res.Skipped, p)
			return nil
		}

		payload, err := fsys.ReadFile(p)
		if err != nil {
			res.Skipped = append(res.Skipped, p)
			return nil
		}

		d, err := descriptorFor(path.Join(opts.Prefix, filepath.ToSlash(rel)), info, opts.Method)
		if err != nil {
			res.Skipped = append(res.Skipped, p)
			return nil
		}
		dst.Put(d, payload)

		res.Count++
		res.Bytes += int64(len(payload))
		return nil
	})
	if walkErr != nil {
		return res, fmt.Errorf("walking %s: %w", dir, walkErr)
	}
	return res, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func absPaths(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[absPath(p)] = true
	}
	return set
}

func descriptorFor(name string, info os.FileInfo, method uint16) (ports.Descriptor, error) {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return ports.Descriptor{}, err
	}
	return ports.Descriptor{
		Name:           name,
		Method:         method,
		Modified:       info.ModTime(),
		ExternalAttrs:  hdr.ExternalAttrs,
		CreatorVersion: hdr.CreatorVersion,
	}, nil
}

// Export writes every file entry of src beneath destDir. Entries that would
// land outside destDir or that are symbolic links abort the export.
func Export(src Source, fsys ports.FileSystem, destDir string) (ExportResult, error) {
	var res ExportResult

	// Get cleaned absolute path for destination
	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return res, fmt.Errorf("resolving destination path: %w", err)
	}
	absDestDir = filepath.Clean(absDestDir)

	if err := fsys.MkdirAll(absDestDir, 0755); err != nil {
		return res, fmt.Errorf("creating %s: %w", absDestDir, err)
	}

	for _, d := range src.List() {
		mode := entryMode(d)
		if mode&os.ModeSymlink != 0 {
			return res, fmt.Errorf("symlinks not supported: %s", d.Name)
		}

		fpath := filepath.Join(absDestDir, filepath.FromSlash(d.Name))
		if !isWithinDir(absDestDir, fpath) {
			return res, fmt.Errorf("invalid file path (path traversal detected): %s", d.Name)
		}

		if d.IsDir() {
			if err := fsys.MkdirAll(fpath, 0755); err != nil {
				return res, fmt.Errorf("creating directory %s: %w", fpath, err)
			}
			continue
		}

		payload, ok := src.Get(d)
		if !ok {
			continue // removed since List
		}

		if err := fsys.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return res, fmt.Errorf("creating parent directory for %s: %w", fpath, err)
		}

		perm := mode.Perm()
		if perm == 0 {
			perm = 0644
		}
		if err := fsys.WriteFile(fpath, payload, perm); err != nil {
			return res, fmt.Errorf("extracting %s: %w", d.Name, err)
		}

		res.Count++
		res.Bytes += int64(len(payload))
	}

	return res, nil
}

// entryMode decodes the file mode carried in the descriptor's attributes.
func entryMode(d ports.Descriptor) os.FileMode {
	hdr := zip.FileHeader{
		Name:           d.Name,
		ExternalAttrs:  d.ExternalAttrs,
		CreatorVersion: d.CreatorVersion,
	}
	return hdr.Mode()
}

// isWithinDir checks if the target path is within the base directory.
func isWithinDir(absBaseDir, targetPath string) bool {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	absTarget = filepath.Clean(absTarget)

	return strings.HasPrefix(absTarget, absBaseDir+string(filepath.Separator)) ||
		absTarget == absBaseDir
}

// FormatSize renders a byte count with a binary unit, e.g. "1.5 KB".
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
