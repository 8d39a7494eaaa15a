package scanner_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"delisys/internal/scanner"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestScanGroupsByExtension(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.jpg")
	touch(t, dir, "b.png")
	c := touch(t, dir, "c.jpg")

	catalog, err := scanner.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(catalog.Extensions) != 2 {
		t.Fatalf("expected 2 buckets, got %v", catalog.Extensions)
	}
	if got := len(catalog.Files("jpg")); got != 2 {
		t.Fatalf("jpg bucket size = %d, want 2", got)
	}
	if got := len(catalog.Files("png")); got != 1 {
		t.Fatalf("png bucket size = %d, want 1", got)
	}
	if !reflect.DeepEqual(catalog.Paths("jpg"), []string{a, c}) {
		t.Fatalf("unexpected jpg paths: %v", catalog.Paths("jpg"))
	}
	if catalog.Len() != 3 {
		t.Fatalf("Len = %d, want 3", catalog.Len())
	}
}

func TestScanPathsAreAbsolute(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.exr")
	t.Chdir(dir)

	catalog, err := scanner.Scan(".")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for _, f := range catalog.All() {
		if !filepath.IsAbs(f.Path) {
			t.Fatalf("expected absolute path, got %q", f.Path)
		}
	}
}

func TestScanSkipsSubdirectoriesAndHidden(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "keep.exr")
	touch(t, dir, ".DS_Store")
	if err := os.Mkdir(filepath.Join(dir, "nested.d"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "nested.d"), "deep.exr")

	catalog, err := scanner.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !reflect.DeepEqual(catalog.Extensions, []string{"exr"}) {
		t.Fatalf("unexpected extensions %v", catalog.Extensions)
	}
	if catalog.Len() != 1 {
		t.Fatalf("expected only the top-level file, got %d", catalog.Len())
	}
}

func TestScanWithOptions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.EXR")
	touch(t, dir, "b.jpg")
	touch(t, dir, ".c.exr")
	touch(t, dir, "README")

	catalog, err := scanner.ScanWithOptions(dir, scanner.Options{IncludeHidden: true, Extensions: []string{".exr"}})
	if err != nil {
		t.Fatalf("ScanWithOptions: %v", err)
	}
	if !reflect.DeepEqual(catalog.Extensions, []string{"exr", "EXR"}) {
		t.Fatalf("unexpected extensions %v", catalog.Extensions)
	}

	all, err := scanner.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := len(all.Files("")); got != 1 {
		t.Fatalf("expected README in the empty-extension bucket, got %d", got)
	}
}

func TestScanFollowsFileSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := touch(t, t.TempDir(), "real.png")
	if err := os.Symlink(target, filepath.Join(dir, "link.png")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(t.TempDir(), filepath.Join(dir, "dirlink")); err != nil {
		t.Fatal(err)
	}

	catalog, err := scanner.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if catalog.Len() != 1 || len(catalog.Files("png")) != 1 {
		t.Fatalf("expected only the file symlink, got %v", catalog.All())
	}
}

func TestScanErrors(t *testing.T) {
	if _, err := scanner.Scan("  "); !errors.Is(err, scanner.ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing")
	_, err := scanner.Scan(missing)
	var scanErr *scanner.ScanError
	if !errors.As(err, &scanErr) || scanErr.Type != scanner.DirectoryNotFound {
		t.Fatalf("expected DirectoryNotFound, got %v", err)
	}

	file := touch(t, t.TempDir(), "plain.txt")
	_, err = scanner.Scan(file)
	if !errors.As(err, &scanErr) || scanErr.Type != scanner.DirectoryNotFound {
		t.Fatalf("expected DirectoryNotFound for a file, got %v", err)
	}
}

func TestScanEmptyDirectory(t *testing.T) {
	catalog, err := scanner.Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if catalog.Len() != 0 || len(catalog.Extensions) != 0 {
		t.Fatalf("expected empty catalog, got %+v", catalog)
	}
}
