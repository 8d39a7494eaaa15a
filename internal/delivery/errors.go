package delivery

import (
	"errors"
	"fmt"
	"strings"

	"delisys/internal/fileutil"
	"delisys/internal/naming"
	"delisys/internal/pathtemplate"
	"delisys/internal/scanner"
)

var (
	// ErrConfiguration marks run-aborting mismatches between the pattern and
	// the values the planner can provide.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks per-file input problems; the file is skipped.
	ErrValidation = errors.New("validation error")
	// ErrEmptyOutputDir reports a blank output directory.
	ErrEmptyOutputDir = errors.New("output directory cannot be empty")
	// ErrDestinationConflict reports a file whose destination was already
	// claimed by an earlier file of the same run, or equals its own source.
	ErrDestinationConflict = errors.New("destination conflict")
	// ErrOutsideOutputDir reports a rendered destination that does not lie
	// below the output directory.
	ErrOutsideOutputDir = errors.New("destination outside output directory")
)

// Wrap builds an error message that includes step context while tagging it
// with marker for later classification.
func Wrap(marker error, step, message string, err error) error {
	detail := buildDetail(step, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(step, message string) string {
	parts := make([]string, 0, 2)
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "delivery failure"
	}
	return strings.Join(parts, ": ")
}

// Reason returns a short machine-friendly label for err, used in reports and
// history rows.
func Reason(err error) string {
	var copyErr *fileutil.CopyError
	var scanErr *scanner.ScanError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, naming.ErrMalformedFilename):
		return "malformed_filename"
	case errors.Is(err, ErrDestinationConflict):
		return "destination_conflict"
	case errors.Is(err, ErrOutsideOutputDir):
		return "outside_output_dir"
	case errors.Is(err, pathtemplate.ErrMissingKey):
		return "missing_template_key"
	case errors.Is(err, scanner.ErrEmptyPath), errors.Is(err, ErrEmptyOutputDir):
		return "empty_path"
	case errors.As(err, &scanErr):
		return strings.ToLower(string(scanErr.Type))
	case errors.Is(err, fileutil.ErrVerifyMismatch):
		return "verify_mismatch"
	case errors.As(err, &copyErr):
		return "copy_failed"
	default:
		return "error"
	}
}
