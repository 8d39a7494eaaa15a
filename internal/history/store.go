package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"delisys/internal/config"
	"delisys/internal/delivery"
)

// ErrRunNotFound is returned when no run matches the requested identifier.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousRun is returned when a run id prefix matches several runs.
var ErrAmbiguousRun = errors.New("run id prefix is ambiguous")

// Store manages delivery history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// Fixed-width so timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the history database under the configured
// state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens the history database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection; one connection keeps foreign keys on.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a finished run and its per-file outcomes in one transaction.
func (s *Store) Record(ctx context.Context, summary *delivery.Summary) error {
	if summary == nil || summary.Plan == nil {
		return errors.New("record history: summary has no plan")
	}
	run, items := fromSummary(summary)
	return retryOnBusy(ctx, func() error {
		return s.insertRun(ctx, run, items)
	})
}

func (s *Store) insertRun(ctx context.Context, run Run, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, source_dir, output_dir, pattern, dry_run, started_at, finished_at,
            copied, failed, skipped, bytes
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceDir, run.OutputDir, run.Pattern, boolToInt(run.DryRun),
		formatTime(run.StartedAt), nullableTime(run.FinishedAt),
		run.Copied, run.Failed, run.Skipped, run.Bytes,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_items (
            run_id, position, extension, source_path, destination_path, status, reason, error_message, bytes
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx,
			run.ID, item.Position, item.Extension, item.SourcePath,
			nullableString(item.DestinationPath), string(item.Status),
			nullableString(item.Reason), nullableString(item.ErrorMessage), item.Bytes,
		); err != nil {
			return fmt.Errorf("insert run item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

const runColumns = "id, source_dir, output_dir, pattern, dry_run, started_at, finished_at, copied, failed, skipped, bytes"

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose id equals or starts with idOrPrefix.
func (s *Store) GetRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\\' ORDER BY id LIMIT 2",
		idOrPrefix, escapeLike(idOrPrefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run.ID == idOrPrefix {
			return &run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, idOrPrefix)
	}
}

// Items returns the per-file outcomes of a run in catalog order.
func (s *Store) Items(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, extension, source_path, destination_path, status, reason, error_message, bytes
         FROM run_items WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item   Item
			dest   sql.NullString
			status string
			reason sql.NullString
			errMsg sql.NullString
		)
		if err := rows.Scan(&item.Position, &item.Extension, &item.SourcePath, &dest, &status, &reason, &errMsg, &item.Bytes); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		item.DestinationPath = dest.String
		item.Status = ItemStatus(status)
		item.Reason = reason.String
		item.ErrorMessage = errMsg.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// Clear removes every recorded run and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM runs")
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return removed, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		dryRun      int
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.SourceDir, &run.OutputDir, &run.Pattern, &dryRun,
		&startedRaw, &finishedRaw, &run.Copied, &run.Failed, &run.Skipped, &run.Bytes); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.DryRun = dryRun != 0
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return run, nil
}

func fromSummary(summary *delivery.Summary) (Run, []Item) {
	run := Run{
		ID:         summary.RunID,
		SourceDir:  summary.SourceDir,
		OutputDir:  summary.OutputDir,
		Pattern:    summary.Pattern,
		DryRun:     summary.DryRun,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Skipped:    summary.SkippedCount(),
	}
	if summary.Catalog != nil {
		run.SourceDir = summary.Catalog.Root
	}

	results := make(map[string]delivery.Result)
	if summary.Report != nil {
		run.Copied = summary.Report.Copied
		run.Failed = summary.Report.Failed
		run.Bytes = summary.Report.Bytes
		for _, res := range summary.Report.Results {
			results[res.Source] = res
		}
	}

	items := make([]Item, 0, len(summary.Plan.Entries))
	for i, entry := range summary.Plan.Entries {
		item := Item{
			Position:        i + 1,
			Extension:       entry.Extension,
			SourcePath:      entry.SourcePath,
			DestinationPath: entry.DestinationPath,
		}
		switch res, ok := results[entry.SourcePath]; {
		case entry.Skipped():
			item.Status = StatusSkipped
			item.Reason = delivery.Reason(entry.Err)
			item.ErrorMessage = entry.Err.Error()
		case !ok:
			item.Status = StatusPlanned
		case res.Err != nil:
			item.Status = StatusFailed
			item.Reason = delivery.Reason(res.Err)
			item.ErrorMessage = res.Err.Error()
		case res.DryRun:
			item.Status = StatusPlanned
			item.Bytes = res.Bytes
		default:
			item.Status = StatusCopied
			item.Bytes = res.Bytes
		}
		items = append(items, item)
	}
	return run, items
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}
