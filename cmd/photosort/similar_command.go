package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/photo-sorter/pkg"
)

func newSimilarCommand(ctx *commandContext) *cobra.Command {
	var (
		threshold int
		mode      string
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "similar <dir>",
		Short: "List groups of visually similar images",
		Long: "Fingerprints every image under dir with an average hash and lists groups\n" +
			"of look-alikes. Nothing is modified; remove files with 'photosort delete'.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			opts, err := cfg.SimilarityOptions(logger)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("mode") {
				if opts.Mode, err = pkg.ParseGroupingMode(mode); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("threshold") {
				opts.Threshold = threshold
				// A threshold only means something when comparing distances.
				if !cmd.Flags().Changed("mode") {
					opts.Mode = pkg.GroupDistance
				}
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}

			progress, finish := newProgressSink(cmd.ErrOrStderr(), logger)
			opts.Progress = progress
			indexer, err := pkg.NewSimilarityIndexer(opts)
			if err != nil {
				finish()
				return err
			}
			result, err := indexer.Index(cmd.Context(), args[0])
			finish()
			if err != nil {
				return err
			}
			printSimilarity(cmd, result)
			return nil
		},
	}

	cmd.Flags().IntVar(&threshold, "threshold", pkg.DefaultSimilarityThreshold, "Maximum Hamming distance (1-10); implies --mode distance")
	cmd.Flags().StringVar(&mode, "mode", "exact", "Grouping mode (exact, distance)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Images fingerprinted in parallel (default from config)")
	return cmd
}

func printSimilarity(cmd *cobra.Command, result *pkg.SimilarityResult) {
	out := cmd.OutOrStdout()
	if len(result.Groups) == 0 {
		fmt.Fprintf(out, "No similar images found among %d scanned.\n", result.Scanned)
	}
	for i, g := range result.Groups {
		title := fmt.Sprintf("Group %d (fingerprint %s)", i+1, g.Fingerprint)
		if g.Identical() {
			title += ", byte-identical"
		}
		fmt.Fprintln(out, title)
		rows := make([][]string, 0, len(g.Members))
		for _, m := range g.Members {
			modified := "-"
			if !m.ModTime.IsZero() {
				modified = m.ModTime.Format(time.DateTime)
			}
			resolution := "-"
			if m.Width > 0 && m.Height > 0 {
				resolution = strconv.Itoa(m.Width) + "x" + strconv.Itoa(m.Height)
			}
			rows = append(rows, []string{m.Path, pkg.FormatSize(m.Size), resolution, modified})
		}
		fmt.Fprintln(out, renderTable(
			[]column{left("Path"), right("Size"), right("Resolution"), left("Modified")},
			rows,
		))
	}
	if result.Failed > 0 {
		fmt.Fprintf(out, "%d image(s) could not be read and were skipped.\n", result.Failed)
	}
}
