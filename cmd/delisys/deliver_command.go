package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"delisys/internal/delivery"
	"delisys/internal/history"
	"delisys/internal/preflight"
	"delisys/internal/runlock"
)

type deliverJSON struct {
	RunID   string            `json:"run_id"`
	DryRun  bool              `json:"dry_run"`
	Source  string            `json:"source_dir"`
	Output  string            `json:"output_dir"`
	Copied  int               `json:"copied"`
	Failed  int               `json:"failed"`
	Skipped int               `json:"skipped"`
	Bytes   int64             `json:"bytes"`
	Items   []deliverItemJSON `json:"items"`
}

type deliverItemJSON struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
	Bytes       int64  `json:"bytes,omitempty"`
}

func newDeliverCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string
	var verify bool
	var dryRun bool
	var noHistory bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "deliver [SOURCE]",
		Short: "Copy source files into the templated output tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			req, err := buildRequest(cfg, args, outputFlag)
			if err != nil {
				return err
			}
			req.Verify = req.Verify || verify
			req.DryRun = dryRun

			if err := preflight.Err(preflight.RunAll(preflight.Paths{
				SourceDir: req.SourceDir,
				OutputDir: req.OutputDir,
				StateDir:  cfg.Paths.StateDir,
			})); err != nil {
				return err
			}

			lock, err := runlock.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer lock.Release()

			var opts []delivery.Option
			if cfg.Delivery.History && !noHistory {
				store, err := history.Open(cfg)
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer store.Close()
				opts = append(opts, delivery.WithRecorder(store))
			}

			errOut := cmd.ErrOrStderr()
			var bar *progressbar.ProgressBar
			if !jsonOut && shouldColorize(errOut) {
				req.OnPlanned = func(plan *delivery.Plan) {
					bar = newProgressBar(errOut, len(plan.Pairs()), dryRun)
				}
				req.Observer = func(delivery.Result) {
					if bar != nil {
						_ = bar.Add(1)
					}
				}
			}

			summary, err := delivery.NewDeliverer(logger, opts...).Deliver(cmd.Context(), req)
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return err
			}

			if jsonOut {
				if err := writeJSON(cmd, deliverPayload(summary)); err != nil {
					return err
				}
				return summary.Err()
			}
			printDeliverSummary(cmd.OutOrStdout(), summary)
			return summary.Err()
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory (defaults to paths.output_dir)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Hash source and destination to confirm each copy")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be copied without writing anything")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history database")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newProgressBar(w io.Writer, total int, dryRun bool) *progressbar.ProgressBar {
	desc := "copying"
	if dryRun {
		desc = "checking"
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func deliverPayload(summary *delivery.Summary) deliverJSON {
	payload := deliverJSON{
		RunID:   summary.RunID,
		DryRun:  summary.DryRun,
		Source:  summary.SourceDir,
		Output:  summary.OutputDir,
		Copied:  summary.Report.Copied,
		Failed:  summary.Report.Failed,
		Skipped: summary.SkippedCount(),
		Bytes:   summary.Report.Bytes,
	}
	results := make(map[string]delivery.Result, len(summary.Report.Results))
	for _, res := range summary.Report.Results {
		results[res.Source] = res
	}
	for _, e := range summary.Plan.Entries {
		item := deliverItemJSON{Source: e.SourcePath, Destination: e.DestinationPath}
		if e.Skipped() {
			item.Status = "skipped"
			item.Reason = delivery.Reason(e.Err)
			item.Error = e.Err.Error()
			payload.Items = append(payload.Items, item)
			continue
		}
		res := results[e.SourcePath]
		item.Bytes = res.Bytes
		switch {
		case res.Err != nil:
			item.Status = "failed"
			item.Reason = delivery.Reason(res.Err)
			item.Error = res.Err.Error()
		case res.DryRun:
			item.Status = "planned"
		default:
			item.Status = "copied"
		}
		payload.Items = append(payload.Items, item)
	}
	return payload
}

func printDeliverSummary(out io.Writer, summary *delivery.Summary) {
	colorize := shouldColorize(out)
	title := "Delivery " + shortID(summary.RunID)
	if summary.DryRun {
		title += " (dry run)"
	}
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}

	report := summary.Report
	copiedLabel := "Copied"
	if summary.DryRun {
		copiedLabel = "Would copy"
	}
	copiedKind := statusOK
	if report.Copied == 0 {
		copiedKind = statusInfo
	}
	fmt.Fprintln(out, renderStatusLine(copiedLabel, copiedKind,
		fmt.Sprintf("%d files (%s)", report.Copied, humanize.Bytes(uint64(report.Bytes))), colorize))

	skipped := summary.Plan.Skipped()
	skippedKind := statusInfo
	if len(skipped) > 0 {
		skippedKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Skipped", skippedKind, fmt.Sprintf("%d files", len(skipped)), colorize))

	failedKind := statusInfo
	if report.Failed > 0 {
		failedKind = statusError
	}
	fmt.Fprintln(out, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d files", report.Failed), colorize))
	fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond).String(), colorize))

	if len(skipped) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderSkippedTable(summary.SourceDir, skipped))
	}
	if failures := report.Failures(); len(failures) > 0 {
		rows := make([][]string, 0, len(failures))
		for _, res := range failures {
			rows = append(rows, []string{displayPath(summary.SourceDir, res.Source), delivery.Reason(res.Err), res.Err.Error()})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Failed", "Reason", "Error"}, rows, nil))
	}
}
