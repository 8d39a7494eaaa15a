package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckSourceDir_OK(t *testing.T) {
	result := CheckSourceDir("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckSourceDir_NotExist(t *testing.T) {
	result := CheckSourceDir("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckSourceDir_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CheckSourceDir("test", f).Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWritableDir_MissingLeaf(t *testing.T) {
	base := t.TempDir()
	result := CheckWritableDir("out", filepath.Join(base, "a", "b"))
	if !result.Passed {
		t.Fatalf("expected pass for creatable dir, got: %s", result.Detail)
	}
}

func TestCheckWritableDir_UnderFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CheckWritableDir("out", filepath.Join(f, "sub")).Passed {
		t.Fatal("expected failure when ancestor is a file")
	}
}

func TestCheckWritableDir_ReadOnly(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission bits")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
	if CheckWritableDir("out", dir).Passed {
		t.Fatal("expected failure for read-only dir")
	}
}

func TestRunAllAndErr(t *testing.T) {
	base := t.TempDir()
	results := RunAll(Paths{
		SourceDir: base,
		OutputDir: filepath.Join(base, "out"),
		StateDir:  filepath.Join(base, "state"),
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if err := Err(results); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}

	results = RunAll(Paths{SourceDir: filepath.Join(base, "missing"), OutputDir: base})
	if err := Err(results); !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed, got %v", err)
	}
}
