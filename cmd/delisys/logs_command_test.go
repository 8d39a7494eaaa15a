package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"delisys/internal/logging"
)

func TestLogsCommandTailsAndFilters(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.cfg.Paths.StateDir, logging.LogFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	content := strings.Join([]string{
		"2024-01-02T15:30:00Z INFO scanned source run_id=aaaa1111 files=2",
		"2024-01-02T15:30:01Z INFO copier: copied run_id=bbbb2222 source=x",
		"2024-01-02T15:30:02Z INFO delivery finished run_id=aaaa1111 copied=2",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line, got %q", out)
	}
	requireContains(t, out, "delivery finished")

	out, _, err = runCLI(t, []string{"logs", "--run", "aaaa"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --run: %v", err)
	}
	if strings.Contains(out, "bbbb2222") || strings.Count(out, "\n") != 2 {
		t.Fatalf("unexpected filtered output %q", out)
	}
}
