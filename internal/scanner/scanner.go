package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"delisys/internal/naming"
)

// ErrEmptyPath reports a blank source directory argument.
var ErrEmptyPath = errors.New("input directory cannot be empty")

// ScanErrorType classifies directory scanning failures.
type ScanErrorType string

const (
	// DirectoryNotFound indicates the path is missing or not a directory.
	DirectoryNotFound ScanErrorType = "DIRECTORY_NOT_FOUND"
	// PermissionDenied indicates the directory cannot be read.
	PermissionDenied ScanErrorType = "PERMISSION_DENIED"
)

// ScanError describes a failure to list the source directory.
type ScanError struct {
	Type ScanErrorType
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Path)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Options tunes which directory entries are catalogued.
type Options struct {
	// IncludeHidden keeps entries whose name starts with a dot.
	IncludeHidden bool
	// Extensions restricts the catalog to these extensions (case-insensitive,
	// with or without a leading dot). Empty means every extension.
	Extensions []string
}

// File is one catalogued source file.
type File struct {
	Name      string
	Path      string
	Extension string
}

// Catalog groups the files of one directory by extension.
type Catalog struct {
	Root string
	// Extensions lists group keys in first-seen order.
	Extensions []string
	groups     map[string][]File
}

// Files returns the files catalogued under ext.
func (c *Catalog) Files(ext string) []File {
	if c == nil {
		return nil
	}
	return c.groups[ext]
}

// Paths returns the absolute source paths catalogued under ext.
func (c *Catalog) Paths(ext string) []string {
	files := c.Files(ext)
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

// All returns every file in group order.
func (c *Catalog) All() []File {
	if c == nil {
		return nil
	}
	var out []File
	for _, ext := range c.Extensions {
		out = append(out, c.groups[ext]...)
	}
	return out
}

// Len reports the number of catalogued files.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, files := range c.groups {
		n += len(files)
	}
	return n
}

func (c *Catalog) add(f File) {
	if c.groups == nil {
		c.groups = make(map[string][]File)
	}
	if _, ok := c.groups[f.Extension]; !ok {
		c.Extensions = append(c.Extensions, f.Extension)
	}
	c.groups[f.Extension] = append(c.groups[f.Extension], f)
}

// Scan lists the direct children of dir and groups files by extension using
// default options.
func Scan(dir string) (*Catalog, error) {
	return ScanWithOptions(dir, Options{})
}

// ScanWithOptions lists the direct children of dir. Subdirectories are never
// descended into nor catalogued; symlinks are resolved to decide whether they
// point at a file.
func ScanWithOptions(dir string, opts Options) (*Catalog, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrEmptyPath
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", dir, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, classify(root, err)
	}
	if !info.IsDir() {
		return nil, &ScanError{Type: DirectoryNotFound, Path: root, Err: errors.New("path is not a directory")}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, classify(root, err)
	}

	allowed := extensionSet(opts.Extensions)
	catalog := &Catalog{Root: root, groups: make(map[string][]File)}
	for _, entry := range entries {
		name := entry.Name()
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(root, name)
		if !isRegular(entry, full) {
			continue
		}
		_, ext := naming.SplitExt(name)
		if allowed != nil {
			if _, ok := allowed[strings.ToLower(ext)]; !ok {
				continue
			}
		}
		catalog.add(File{Name: name, Path: full, Extension: ext})
	}
	return catalog, nil
}

func isRegular(entry fs.DirEntry, full string) bool {
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(full)
		if err != nil {
			return false
		}
		return info.Mode().IsRegular()
	}
	return entry.Type().IsRegular()
}

func extensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		set[ext] = struct{}{}
	}
	return set
}

func classify(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &ScanError{Type: DirectoryNotFound, Path: path, Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &ScanError{Type: PermissionDenied, Path: path, Err: err}
	default:
		return fmt.Errorf("scan %s: %w", path, err)
	}
}
