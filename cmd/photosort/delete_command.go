package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/photo-sorter/pkg"
)

var errDeleteAborted = errors.New("deletion aborted")

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <files...>",
		Short: "Delete files picked during duplicate review",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !yes {
				for _, p := range args {
					fmt.Fprintf(out, "  %s\n", p)
				}
				fmt.Fprintf(out, "Delete %d file(s)? [y/N] ", len(args))
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				switch strings.ToLower(strings.TrimSpace(answer)) {
				case "y", "yes":
				default:
					fmt.Fprintln(out, "Nothing deleted.")
					return errDeleteAborted
				}
			}

			failed := 0
			for _, o := range pkg.DeleteFiles(args, logger) {
				if o.Err != nil {
					failed++
					fmt.Fprintf(out, "Failed: %v\n", o.Err)
					continue
				}
				fmt.Fprintf(out, "Deleted %s\n", o.Path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) could not be deleted", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")
	return cmd
}
