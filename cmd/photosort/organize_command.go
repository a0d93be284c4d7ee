package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/photo-sorter/pkg"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir           string
		move                bool
		dryRun              bool
		workers             int
		noDirectoryFallback bool
		preserveTimestamps  bool
	)

	cmd := &cobra.Command{
		Use:   "organize <input>",
		Short: "Sort media files into year/month folders by capture date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			local := *cfg
			if noDirectoryFallback {
				local.Dates.DirectoryFallback = false
			}
			opts, err := local.OrganizerOptions(args[0], outputDir, logger)
			if err != nil {
				return err
			}
			if move {
				opts.Mode = pkg.ModeMove
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			if preserveTimestamps {
				opts.PreserveTimestamps = true
			}
			opts.DryRun = dryRun

			progress, finish := newProgressSink(cmd.ErrOrStderr(), logger)
			opts.Progress = progress
			result, err := pkg.NewOrganizer(opts).Run(cmd.Context())
			finish()
			if result != nil {
				printRunResult(cmd, result, outputDir)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output root for organized files")
	cmd.Flags().BoolVar(&move, "move", false, "Move files instead of copying them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without touching any file")
	cmd.Flags().IntVar(&workers, "workers", 0, "Directories resolved in parallel (default from config)")
	cmd.Flags().BoolVar(&noDirectoryFallback, "no-directory-fallback", false, "Do not infer dates from directory names")
	cmd.Flags().BoolVar(&preserveTimestamps, "preserve-timestamps", false, "Keep source modification times")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

var planColumns = []column{left("Source"), left("Destination"), left("Date"), left("Evidence")}

func printRunResult(cmd *cobra.Command, result *pkg.RunResult, outputDir string) {
	out := cmd.OutOrStdout()
	s := result.Summary

	if s.DryRun {
		rows := make([][]string, 0, len(result.Outcomes))
		for _, o := range result.Outcomes {
			dest := o.Placement.Path
			if o.Status == pkg.StatusFailed {
				dest = fmt.Sprintf("error: %v", o.Err)
			}
			rows = append(rows, []string{o.Source.RelPath, dest, formatResolved(o.Date), o.Date.Source.String()})
		}
		if len(rows) > 0 {
			fmt.Fprintln(out, renderTable(planColumns, rows))
		}
	}

	fmt.Fprintln(out, renderTable(
		[]column{left("Result"), right("Files")},
		[][]string{
			{"Placed by date", strconv.Itoa(s.Placed)},
			{"Unsorted", strconv.Itoa(s.Unsorted)},
			{"Failed", strconv.Itoa(s.Failed)},
			{"Input images", fmt.Sprintf("%d (%s)", s.Input.Images.Count, pkg.FormatSize(s.Input.Images.Bytes))},
			{"Input videos", fmt.Sprintf("%d (%s)", s.Input.Videos.Count, pkg.FormatSize(s.Input.Videos.Bytes))},
			{"Dry run", yesNo(s.DryRun)},
		},
	))

	for _, f := range s.Failures {
		fmt.Fprintf(out, "Failed: %s: %v\n", f.Source.Path, f.Err)
	}
	if result.ReportPath != "" {
		fmt.Fprintf(out, "Report written to %s\n", result.ReportPath)
	} else if s.DryRun {
		fmt.Fprintf(out, "Dry run: nothing was written to %s\n", outputDir)
	}
}

func formatResolved(d pkg.ResolvedDate) string {
	if !d.Resolved() {
		return "-"
	}
	return d.Time.Format(time.DateTime)
}
