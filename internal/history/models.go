package history

import "time"

// ItemStatus is the recorded outcome of one file in a run.
type ItemStatus string

const (
	StatusCopied  ItemStatus = "copied"
	StatusFailed  ItemStatus = "failed"
	StatusSkipped ItemStatus = "skipped"
	StatusPlanned ItemStatus = "planned"
)

// Run is one recorded delivery.
type Run struct {
	ID         string    `json:"id"`
	SourceDir  string    `json:"source_dir"`
	OutputDir  string    `json:"output_dir"`
	Pattern    string    `json:"pattern"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Copied     int       `json:"copied"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Bytes      int64     `json:"bytes"`
}

// Item is one file outcome within a run.
type Item struct {
	Position        int        `json:"position"`
	Extension       string     `json:"extension"`
	SourcePath      string     `json:"source"`
	DestinationPath string     `json:"destination,omitempty"`
	Status          ItemStatus `json:"status"`
	Reason          string     `json:"reason,omitempty"`
	ErrorMessage    string     `json:"error,omitempty"`
	Bytes           int64      `json:"bytes"`
}
