package delivery

import (
	"log/slog"
	"os"
	"time"

	"delisys/internal/fileutil"
	"delisys/internal/logging"
)

// CopyOptions tunes CopyAll.
type CopyOptions struct {
	// Verify hashes source and destination while copying.
	Verify bool
	// DryRun reports what would be copied without touching the filesystem.
	DryRun bool
	// Observer, when set, is called after each pair is processed.
	Observer func(Result)
	Logger   *slog.Logger
}

// Result is the outcome of one pair.
type Result struct {
	Pair
	Bytes    int64
	Duration time.Duration
	DryRun   bool
	Err      error
}

// OK reports whether the pair was delivered (or would be, for a dry run).
func (r Result) OK() bool { return r.Err == nil }

// Report aggregates per-pair outcomes in input order.
type Report struct {
	Results []Result
	Copied  int
	Failed  int
	Bytes   int64
}

// Failures returns the failed results.
func (r *Report) Failures() []Result {
	if r == nil {
		return nil
	}
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// CopyAll copies every pair in order, creating destination parents as
// needed and overwriting existing destinations. A failing pair is recorded
// and the batch continues; pairs already copied stay in place.
func CopyAll(pairs []Pair, opts CopyOptions) *Report {
	logger := logging.NewComponentLogger(opts.Logger, "copier")
	report := &Report{Results: make([]Result, 0, len(pairs))}

	for i, pair := range pairs {
		res := copyOne(pair, opts)
		report.Results = append(report.Results, res)

		attrs := []logging.Attr{
			logging.Int("index", i+1),
			logging.Int("total", len(pairs)),
			logging.String(logging.FieldSource, pair.Source),
			logging.String(logging.FieldDestination, pair.Destination),
		}
		if res.Err != nil {
			report.Failed++
			attrs = append(attrs, logging.String("reason", Reason(res.Err)), logging.Error(res.Err))
			logger.Warn("copy failed", logging.Args(attrs...)...)
		} else {
			report.Copied++
			report.Bytes += res.Bytes
			attrs = append(attrs, logging.Int64("bytes", res.Bytes), logging.Duration("elapsed", res.Duration))
			if res.DryRun {
				logger.Info("would copy", logging.Args(attrs...)...)
			} else {
				logger.Debug("copied", logging.Args(attrs...)...)
			}
		}

		if opts.Observer != nil {
			opts.Observer(res)
		}
	}
	return report
}

func copyOne(pair Pair, opts CopyOptions) Result {
	start := time.Now()
	res := Result{Pair: pair, DryRun: opts.DryRun}
	if opts.DryRun {
		info, err := os.Stat(pair.Source)
		if err != nil {
			res.Err = &fileutil.CopyError{Op: fileutil.OpStat, Src: pair.Source, Dst: pair.Destination, Err: err}
		} else {
			res.Bytes = info.Size()
		}
		return res
	}
	res.Bytes, res.Err = fileutil.CopyFile(pair.Source, pair.Destination, fileutil.Options{Verify: opts.Verify})
	res.Duration = time.Since(start)
	return res
}
