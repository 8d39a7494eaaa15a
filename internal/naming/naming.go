package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"delisys/internal/pathtemplate"
)

const (
	fieldSeparator = "_"
	segmentSep     = "."

	minFields   = 3 // PROJECT, SHOT, TASK.FRAME.EXT
	minSegments = 3 // TASK, FRAME, EXT
)

// ErrMalformedFilename reports a name that does not follow
// PROJECT_SHOT_..._TASK.FRAME.EXT.
var ErrMalformedFilename = errors.New("malformed filename")

// Metadata holds the delivery fields encoded in a filename.
type Metadata struct {
	Project string
	Shot    string
	Task    string
	Frame   string
	Ext     string
}

// Parse extracts delivery metadata from a filename of the form
// PROJECT_SHOT_..._TASK.FRAME.EXT. Tokens between the shot and the final
// token are ignored. Directory components of filename are discarded.
func Parse(filename string) (Metadata, error) {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return Metadata{}, malformed(filename, "empty name")
	}

	fields := strings.Split(base, fieldSeparator)
	if len(fields) < minFields {
		return Metadata{}, malformed(base, fmt.Sprintf("expected at least %d %q-separated fields, got %d", minFields, fieldSeparator, len(fields)))
	}

	last := fields[len(fields)-1]
	segments := strings.Split(last, segmentSep)
	if len(segments) < minSegments {
		return Metadata{}, malformed(base, fmt.Sprintf("expected TASK.FRAME.EXT in %q", last))
	}

	_, ext := SplitExt(base)
	meta := Metadata{
		Project: fields[0],
		Shot:    fields[1],
		Task:    segments[0],
		Frame:   segments[1],
		Ext:     ext,
	}
	if missing := meta.firstEmpty(); missing != "" {
		return Metadata{}, malformed(base, missing+" is empty")
	}
	if field, value := meta.firstUnsafe(); field != "" {
		return Metadata{}, malformed(base, fmt.Sprintf("%s %q is not a plain path component", field, value))
	}
	return meta, nil
}

// Context builds the template values for this file.
func (m Metadata) Context(outputDir, date string) map[string]string {
	return map[string]string{
		pathtemplate.KeyOutputDir:   outputDir,
		pathtemplate.KeyDate:        date,
		pathtemplate.KeyProjectName: m.Project,
		pathtemplate.KeyShotName:    m.Shot,
		pathtemplate.KeyTaskName:    m.Task,
		pathtemplate.KeyFrameNumber: m.Frame,
		pathtemplate.KeyExt:         m.Ext,
	}
}

func (m Metadata) firstEmpty() string {
	switch {
	case m.Project == "":
		return "project"
	case m.Shot == "":
		return "shot"
	case m.Task == "":
		return "task"
	case m.Frame == "":
		return "frame number"
	case m.Ext == "":
		return "extension"
	}
	return ""
}

// firstUnsafe names the first field that would change directory when used as
// a path component.
func (m Metadata) firstUnsafe() (string, string) {
	fields := []struct{ name, value string }{
		{"project", m.Project},
		{"shot", m.Shot},
		{"task", m.Task},
		{"frame number", m.Frame},
		{"extension", m.Ext},
	}
	for _, f := range fields {
		if f.value == "." || f.value == ".." || strings.ContainsAny(f.value, `/\`) {
			return f.name, f.value
		}
	}
	return "", ""
}

func malformed(name, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedFilename, name, reason)
}

// SplitExt splits name into stem and extension (without the dot). Leading
// dots never start an extension, so ".profile" has no extension and
// "..tar" has none either.
func SplitExt(name string) (string, string) {
	idx := strings.LastIndex(name, segmentSep)
	if idx <= 0 {
		return name, ""
	}
	if strings.Trim(name[:idx], segmentSep) == "" {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}
