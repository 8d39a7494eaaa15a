package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"delisys/internal/scanner"
)

type scanGroupJSON struct {
	Extension string         `json:"extension"`
	Files     []scanFileJSON `json:"files"`
}

type scanFileJSON struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "scan [SOURCE]",
		Short: "List source files grouped by extension",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source, err := resolveSource(cfg, args)
			if err != nil {
				return err
			}
			catalog, err := scanner.ScanWithOptions(source, scanOptions(cfg))
			if err != nil {
				return err
			}

			if jsonOut {
				groups := make([]scanGroupJSON, 0, len(catalog.Extensions))
				for _, ext := range catalog.Extensions {
					group := scanGroupJSON{Extension: ext}
					for _, f := range catalog.Files(ext) {
						group.Files = append(group.Files, scanFileJSON{Name: f.Name, Path: f.Path, Size: fileSize(f.Path)})
					}
					groups = append(groups, group)
				}
				return writeJSON(cmd, groups)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if catalog.Len() == 0 {
				fmt.Fprintf(out, "No files found in %s\n", catalog.Root)
				return nil
			}
			fmt.Fprintf(out, "%s: %d files in %d groups\n\n", catalog.Root, catalog.Len(), len(catalog.Extensions))
			for _, ext := range catalog.Extensions {
				files := catalog.Files(ext)
				for _, line := range renderSectionHeader(fmt.Sprintf("%s (%d)", extensionLabel(ext), len(files)), colorize) {
					fmt.Fprintln(out, line)
				}
				rows := make([][]string, 0, len(files))
				for i, f := range files {
					rows = append(rows, []string{strconv.Itoa(i + 1), f.Name, humanize.Bytes(uint64(fileSize(f.Path)))})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "File", "Size"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
