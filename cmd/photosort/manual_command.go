package main

import (
	"github.com/spf13/cobra"

	"github.com/user/photo-sorter/pkg"
)

func newManualCommand(ctx *commandContext) *cobra.Command {
	var (
		dateFlag  string
		timeFlag  string
		outputDir string
		move      bool
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "manual --date YYYY-MM-DD [--time HH:MM] -o <output> <files...>",
		Short: "File the given media under a date you supply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := pkg.ParseManualDate(dateFlag, timeFlag)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			opts, err := cfg.OrganizerOptions("", outputDir, logger)
			if err != nil {
				return err
			}
			if move {
				opts.Mode = pkg.ModeMove
			}
			opts.DryRun = dryRun

			progress, finish := newProgressSink(cmd.ErrOrStderr(), logger)
			opts.Progress = progress
			result, err := pkg.NewOrganizer(opts).ApplyManualDate(cmd.Context(), args, date)
			finish()
			if result != nil {
				printRunResult(cmd, result, outputDir)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Capture date as YYYY-MM-DD")
	cmd.Flags().StringVar(&timeFlag, "time", "", "Capture time as HH:MM (default 00:00)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output root for organized files")
	cmd.Flags().BoolVar(&move, "move", false, "Move files instead of copying them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without touching any file")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
