package preflight

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFailed is returned by Err when at least one check did not pass.
var ErrFailed = errors.New("preflight failed")

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Paths names the directories a delivery touches.
type Paths struct {
	SourceDir string
	OutputDir string
	StateDir  string
}

// RunAll executes the checks that apply to the given paths. The state
// directory is only checked when set.
func RunAll(paths Paths) []Result {
	results := []Result{
		CheckSourceDir("Source directory", paths.SourceDir),
		CheckWritableDir("Output directory", paths.OutputDir),
	}
	if strings.TrimSpace(paths.StateDir) != "" {
		results = append(results, CheckWritableDir("State directory", paths.StateDir))
	}
	return results
}

// Err folds failed results into a single error, or returns nil.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrFailed, strings.Join(failed, "; "))
}
