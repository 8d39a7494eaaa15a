package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"delisys/internal/delivery"
)

type planJSON struct {
	SourceDir string          `json:"source_dir"`
	OutputDir string          `json:"output_dir"`
	Pattern   string          `json:"pattern"`
	Date      string          `json:"date"`
	Pairs     []delivery.Pair `json:"pairs"`
	Skipped   []skippedJSON   `json:"skipped"`
}

type skippedJSON struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "plan [SOURCE]",
		Short: "Preview where each source file would be delivered",
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

			catalog, plan, err := delivery.NewDeliverer(logger).Plan(cmd.Context(), req)
			if err != nil {
				return err
			}

			skipped := plan.Skipped()
			if jsonOut {
				payload := planJSON{
					SourceDir: catalog.Root,
					OutputDir: req.OutputDir,
					Pattern:   plan.Context.Pattern,
					Date:      plan.Context.Date,
					Pairs:     plan.Pairs(),
					Skipped:   make([]skippedJSON, 0, len(skipped)),
				}
				for _, e := range skipped {
					payload.Skipped = append(payload.Skipped, skippedJSON{
						Source: e.SourcePath,
						Reason: delivery.Reason(e.Err),
						Error:  e.Err.Error(),
					})
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			pairs := plan.Pairs()
			fmt.Fprintf(out, "Source: %s\nOutput: %s\nDate:   %s\n\n", catalog.Root, req.OutputDir, plan.Context.Date)
			if len(pairs) > 0 {
				rows := make([][]string, 0, len(pairs))
				for i, p := range pairs {
					rows = append(rows, []string{strconv.Itoa(i + 1), displayPath(catalog.Root, p.Source), displayPath(req.OutputDir, p.Destination)})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Source", "Destination"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
			} else {
				fmt.Fprintln(out, "No deliverable files")
			}
			if len(skipped) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderSkippedTable(catalog.Root, skipped))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory (defaults to paths.output_dir)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderSkippedTable(root string, skipped []delivery.Entry) string {
	rows := make([][]string, 0, len(skipped))
	for _, e := range skipped {
		rows = append(rows, []string{displayPath(root, e.SourcePath), delivery.Reason(e.Err)})
	}
	return renderTable([]string{"Skipped", "Reason"}, rows, nil)
}
