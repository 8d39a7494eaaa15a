package delivery

import (
	"path/filepath"
	"strings"

	"delisys/internal/naming"
	"delisys/internal/pathtemplate"
	"delisys/internal/scanner"
)

// RenderContext carries the run-wide template values.
type RenderContext struct {
	OutputDir string
	Pattern   string
	Date      string
}

// Pair is one copy instruction.
type Pair struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Entry is a catalog file with its rendered destination. Err is set when the
// file cannot be delivered; such entries are skipped.
type Entry struct {
	SourcePath      string
	Extension       string
	DestinationPath string
	Err             error
}

// Skipped reports whether the entry was rejected during planning.
func (e Entry) Skipped() bool { return e.Err != nil }

// Plan is the ordered result of rendering a catalog.
type Plan struct {
	Context RenderContext
	Entries []Entry
}

// Pairs returns copy instructions for every plannable entry, in order.
func (p *Plan) Pairs() []Pair {
	if p == nil {
		return nil
	}
	out := make([]Pair, 0, len(p.Entries))
	for _, e := range p.Entries {
		if e.Skipped() {
			continue
		}
		out = append(out, Pair{Source: e.SourcePath, Destination: e.DestinationPath})
	}
	return out
}

// Skipped returns the entries rejected during planning.
func (p *Plan) Skipped() []Entry {
	if p == nil {
		return nil
	}
	var out []Entry
	for _, e := range p.Entries {
		if e.Skipped() {
			out = append(out, e)
		}
	}
	return out
}

// RenderPaths computes a destination for every file in catalog.
//
// Malformed filenames and destination conflicts are recorded on their entry
// and the file is skipped. A pattern referencing a key the planner cannot
// supply aborts the whole call with an error wrapping
// pathtemplate.ErrMissingKey.
func RenderPaths(catalog *scanner.Catalog, rc RenderContext) (*Plan, error) {
	if strings.TrimSpace(rc.OutputDir) == "" {
		return nil, ErrEmptyOutputDir
	}
	if strings.TrimSpace(rc.Pattern) == "" {
		rc.Pattern = pathtemplate.DefaultPattern
	}

	// Probe with empty metadata so a bad pattern fails even for an empty
	// catalog or one where every file is malformed.
	if _, err := pathtemplate.Render(rc.Pattern, naming.Metadata{}.Context(rc.OutputDir, rc.Date)); err != nil {
		return nil, Wrap(ErrConfiguration, "render", "template does not match available values", err)
	}

	plan := &Plan{Context: rc}
	claimed := make(map[string]string)
	for _, file := range catalog.All() {
		entry := Entry{SourcePath: file.Path, Extension: file.Extension}

		meta, err := naming.Parse(file.Name)
		if err != nil {
			entry.Err = Wrap(ErrValidation, "parse", "", err)
			plan.Entries = append(plan.Entries, entry)
			continue
		}
		meta.Ext = file.Extension

		dest, err := pathtemplate.RenderPath(rc.Pattern, meta.Context(rc.OutputDir, rc.Date))
		if err != nil {
			return nil, Wrap(ErrConfiguration, "render", file.Name, err)
		}
		entry.DestinationPath = dest

		key := filepath.Clean(dest)
		switch {
		case !within(rc.OutputDir, key):
			entry.Err = Wrap(ErrValidation, "render", dest, ErrOutsideOutputDir)
		case key == filepath.Clean(file.Path):
			entry.Err = Wrap(ErrValidation, "render", "destination is the source file", ErrDestinationConflict)
		case claimed[key] != "":
			entry.Err = Wrap(ErrValidation, "render", "destination already used by "+filepath.Base(claimed[key]), ErrDestinationConflict)
		default:
			claimed[key] = file.Path
		}
		plan.Entries = append(plan.Entries, entry)
	}
	return plan, nil
}

// within reports whether path lies strictly below dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
