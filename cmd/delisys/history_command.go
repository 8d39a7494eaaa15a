package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"delisys/internal/history"
)

const historyTimeLayout = "2006-01-02 15:04:05"

type historyRunJSON struct {
	history.Run
	Items []history.Item `json:"items"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "Show recorded deliveries",
		Long:  "Without arguments, list recent runs. With a run id (or unique prefix), show that run's files.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				items, err := store.Items(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, historyRunJSON{Run: *run, Items: items})
				}
				printRunDetail(cmd.OutOrStdout(), run, items)
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No deliveries recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format(historyTimeLayout),
					run.SourceDir,
					strconv.Itoa(run.Copied),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Failed),
					humanize.Bytes(uint64(run.Bytes)),
					yesNo(run.DryRun),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Started", "Source", "Copied", "Skipped", "Failed", "Size", "Dry run"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded deliveries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs\n", removed)
			return nil
		},
	}
}

func printRunDetail(out io.Writer, run *history.Run, items []history.Item) {
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Delivery "+run.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(historyTimeLayout))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Finished: %s\n", run.FinishedAt.Local().Format(historyTimeLayout))
	}
	fmt.Fprintf(out, "Source:   %s\n", run.SourceDir)
	fmt.Fprintf(out, "Output:   %s\n", run.OutputDir)
	fmt.Fprintf(out, "Pattern:  %s\n", run.Pattern)
	fmt.Fprintf(out, "Dry run:  %s\n", yesNo(run.DryRun))
	fmt.Fprintf(out, "Result:   %d copied, %d skipped, %d failed (%s)\n\n",
		run.Copied, run.Skipped, run.Failed, humanize.Bytes(uint64(run.Bytes)))

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		detail := displayPath(run.OutputDir, item.DestinationPath)
		if item.Reason != "" {
			detail = item.Reason
		}
		rows = append(rows, []string{
			strconv.Itoa(item.Position),
			displayPath(run.SourceDir, item.SourcePath),
			string(item.Status),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Source", "Status", "Destination / Reason"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
}
