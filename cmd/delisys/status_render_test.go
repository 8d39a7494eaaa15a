package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLinePlain(t *testing.T) {
	line := renderStatusLine("Copied", statusOK, "2 files", false)
	if !strings.Contains(line, "Copied:") || !strings.Contains(line, "[OK] 2 files") {
		t.Fatalf("unexpected line %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("plain line contains escape codes: %q", line)
	}
}

func TestRenderStatusLineColor(t *testing.T) {
	line := renderStatusLine("Failed", statusError, "", true)
	if !strings.HasPrefix(line, ansiRed) || !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected red line, got %q", line)
	}
}

func TestShouldColorizeBuffer(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}

func TestExtensionLabel(t *testing.T) {
	cases := map[string]string{
		"exr": "EXR",
		"Jpg": "JPG",
		"":    "(no extension)",
	}
	for in, want := range cases {
		if got := extensionLabel(in); got != want {
			t.Fatalf("extensionLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
