package pathtemplate

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{"
	endTag   = "}"
)

// Recognized placeholder keys.
const (
	KeyOutputDir   = "OUTPUT_DIR"
	KeyDate        = "DATE"
	KeyProjectName = "PROJECTNAME"
	KeyShotName    = "SHOTNAME"
	KeyTaskName    = "TASKNAME"
	KeyFrameNumber = "FRAMENUMBER"
	KeyExt         = "EXT"
)

// DefaultPattern is the standard delivery layout:
// <output>/<project>/<date>/<project>_<shot>/<task>/<ext>/<project>_<shot>_<task>.<frame>.<ext>
const DefaultPattern = "{OUTPUT_DIR}/{PROJECTNAME}/{DATE}/{PROJECTNAME}_{SHOTNAME}/{TASKNAME}/{EXT}/" +
	"{PROJECTNAME}_{SHOTNAME}_{TASKNAME}.{FRAMENUMBER}.{EXT}"

var (
	// ErrMissingKey reports a placeholder with no value in the render context.
	ErrMissingKey = errors.New("missing template key")
	// ErrUnknownKey reports a placeholder outside the recognized key set.
	ErrUnknownKey = errors.New("unknown template key")
	// ErrInvalidPattern reports an empty or syntactically broken pattern.
	ErrInvalidPattern = errors.New("invalid template pattern")
)

var knownKeys = []string{
	KeyOutputDir,
	KeyDate,
	KeyProjectName,
	KeyShotName,
	KeyTaskName,
	KeyFrameNumber,
	KeyExt,
}

// KnownKeys returns the recognized placeholder names in canonical order.
func KnownKeys() []string {
	out := make([]string, len(knownKeys))
	copy(out, knownKeys)
	return out
}

// IsKnownKey reports whether key is one of the recognized placeholders.
func IsKnownKey(key string) bool {
	for _, k := range knownKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Render substitutes every {KEY} placeholder in pattern with values[KEY].
// A placeholder without a value fails with ErrMissingKey rather than being
// left in the output.
func Render(pattern string, values map[string]string) (string, error) {
	tpl, err := compile(pattern)
	if err != nil {
		return "", err
	}
	return tpl.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		value, ok := values[tag]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingKey, tag)
		}
		return io.WriteString(w, value)
	})
}

// RenderPath renders pattern and converts the result into a cleaned,
// OS-specific filesystem path.
func RenderPath(pattern string, values map[string]string) (string, error) {
	rendered, err := Render(pattern, values)
	if err != nil {
		return "", err
	}
	return filepath.Clean(filepath.FromSlash(rendered)), nil
}

// Keys lists the placeholders referenced by pattern in order of first use.
func Keys(pattern string) ([]string, error) {
	tpl, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var keys []string
	_, err = tpl.ExecuteFuncStringWithErr(func(_ io.Writer, tag string) (int, error) {
		if _, ok := seen[tag]; !ok {
			seen[tag] = struct{}{}
			keys = append(keys, tag)
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Validate checks that pattern parses and only references recognized keys.
func Validate(pattern string) error {
	keys, err := Keys(pattern)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if !IsKnownKey(key) {
			return fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownKey, key, strings.Join(knownKeys, ", "))
		}
	}
	return nil
}

func compile(pattern string) (*fasttemplate.Template, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%w: pattern is empty", ErrInvalidPattern)
	}
	if err := checkBraces(pattern); err != nil {
		return nil, err
	}
	tpl, err := fasttemplate.NewTemplate(pattern, startTag, endTag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return tpl, nil
}

// checkBraces rejects braces that do not form a {KEY} pair: a stray closing
// brace, an opening brace inside a tag, or an unclosed tag.
func checkBraces(pattern string) error {
	open := -1
	for i, r := range pattern {
		switch string(r) {
		case startTag:
			if open >= 0 {
				return fmt.Errorf("%w: nested %q at offset %d", ErrInvalidPattern, startTag, i)
			}
			open = i
		case endTag:
			if open < 0 {
				return fmt.Errorf("%w: unmatched %q at offset %d", ErrInvalidPattern, endTag, i)
			}
			open = -1
		}
	}
	if open >= 0 {
		return fmt.Errorf("%w: unclosed %q at offset %d", ErrInvalidPattern, startTag, open)
	}
	return nil
}
