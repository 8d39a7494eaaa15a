package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"delisys/internal/logging"
	"delisys/internal/scanner"
)

// ErrPartialDelivery is returned by Summary.Err when at least one copy failed.
var ErrPartialDelivery = errors.New("delivery incomplete")

// Request describes one delivery run.
type Request struct {
	SourceDir  string
	OutputDir  string
	Pattern    string
	DateFormat string
	Scan       scanner.Options
	Verify     bool
	DryRun     bool
	Observer   func(Result)
	// OnPlanned, when set, is called once with the plan before copying.
	OnPlanned func(*Plan)
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	SourceDir  string
	OutputDir  string
	Pattern    string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
	Catalog    *scanner.Catalog
	Plan       *Plan
	Report     *Report
}

// SkippedCount is the number of files rejected during planning.
func (s *Summary) SkippedCount() int {
	if s == nil {
		return 0
	}
	return len(s.Plan.Skipped())
}

// Err reports ErrPartialDelivery when any copy failed.
func (s *Summary) Err() error {
	if s == nil || s.Report == nil || s.Report.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d files failed to copy", ErrPartialDelivery, s.Report.Failed, len(s.Report.Results))
}

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, summary *Summary) error
}

// Deliverer runs scan, render, and copy in sequence.
type Deliverer struct {
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

// Option customizes a Deliverer.
type Option func(*Deliverer)

// WithRecorder stores every finished run.
func WithRecorder(r Recorder) Option {
	return func(d *Deliverer) { d.recorder = r }
}

// WithClock overrides the run timestamp source.
func WithClock(now func() time.Time) Option {
	return func(d *Deliverer) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDeliverer constructs a Deliverer; logger may be nil.
func NewDeliverer(logger *slog.Logger, opts ...Option) *Deliverer {
	d := &Deliverer{
		logger: logging.NewComponentLogger(logger, "delivery"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Plan scans req.SourceDir and renders destinations without copying.
func (d *Deliverer) Plan(ctx context.Context, req Request) (*scanner.Catalog, *Plan, error) {
	return d.plan(ctx, req, d.now())
}

func (d *Deliverer) plan(ctx context.Context, req Request, at time.Time) (*scanner.Catalog, *Plan, error) {
	logger := logging.WithContext(ctx, d.logger)
	if strings.TrimSpace(req.SourceDir) == "" {
		return nil, nil, scanner.ErrEmptyPath
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return nil, nil, ErrEmptyOutputDir
	}

	catalog, err := scanner.ScanWithOptions(req.SourceDir, req.Scan)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("scanned source",
		logging.String("source_dir", catalog.Root),
		logging.Int("files", catalog.Len()),
		logging.String("extensions", strings.Join(catalog.Extensions, ",")),
	)

	plan, err := RenderPaths(catalog, RenderContext{
		OutputDir: req.OutputDir,
		Pattern:   req.Pattern,
		Date:      formatDate(at, req.DateFormat),
	})
	if err != nil {
		return catalog, nil, err
	}
	for _, e := range plan.Skipped() {
		logger.Warn("skipping file",
			logging.String(logging.FieldSource, e.SourcePath),
			logging.String("reason", Reason(e.Err)),
			logging.Error(e.Err),
		)
	}
	return catalog, plan, nil
}

// Deliver runs a full delivery. Abort conditions (empty paths, unreadable
// source, template mismatch) return an error and copy nothing. Per-file
// problems are reported in the Summary; use Summary.Err to detect copy
// failures.
func (d *Deliverer) Deliver(ctx context.Context, req Request) (*Summary, error) {
	started := d.now()
	summary := &Summary{
		RunID:     d.newID(),
		SourceDir: req.SourceDir,
		OutputDir: req.OutputDir,
		Pattern:   req.Pattern,
		DryRun:    req.DryRun,
		StartedAt: started,
	}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, d.logger)

	catalog, plan, err := d.plan(ctx, req, started)
	if err != nil {
		logger.Error("delivery aborted", logging.String("reason", Reason(err)), logging.Error(err))
		return nil, err
	}
	summary.Catalog = catalog
	summary.Plan = plan
	summary.Pattern = plan.Context.Pattern
	if req.OnPlanned != nil {
		req.OnPlanned(plan)
	}

	summary.Report = CopyAll(plan.Pairs(), CopyOptions{
		Verify:   req.Verify,
		DryRun:   req.DryRun,
		Observer: req.Observer,
		Logger:   logger,
	})
	summary.FinishedAt = d.now()

	logger.Info("delivery finished",
		logging.Int("copied", summary.Report.Copied),
		logging.Int("failed", summary.Report.Failed),
		logging.Int("skipped", summary.SkippedCount()),
		logging.Int64("bytes", summary.Report.Bytes),
		logging.Bool("dry_run", req.DryRun),
	)

	if d.recorder != nil {
		if err := d.recorder.Record(ctx, summary); err != nil {
			logger.Warn("failed to record delivery history", logging.Error(err))
		}
	}
	return summary, nil
}

func formatDate(t time.Time, layout string) string {
	if strings.TrimSpace(layout) == "" {
		layout = DefaultDateFormat
	}
	return t.Format(layout)
}

// DefaultDateFormat renders {DATE} as YYYYMMDDhhmm.
const DefaultDateFormat = "200601021504"
