package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/atlasgen/internal/pipeline"
	"github.com/dgallion1/atlasgen/internal/report"
)

var errDifferences = errors.New("dumps differ")

func diffCmd(a *app) *cobra.Command {
	var (
		sortedOnly bool
		exitCode   bool
	)
	cmd := &cobra.Command{
		Use:   "diff BASE NEW",
		Short: "Compare two simplified dumps or tree files",
		Long: `Compare two simplified dumps. Either argument may also be a
view-node-tree.json file, which is dumped before comparing.

The default output shows the dumps in tree order followed by a comparison
of their sorted lines, which ignores nodes that only moved.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := pipeline.ReadSimplified(args[0])
			if err != nil {
				return err
			}
			next, err := pipeline.ReadSimplified(args[1])
			if err != nil {
				return err
			}
			d, err := report.DiffSimplified("base", base, "new", next)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if d.Empty() {
				fmt.Fprintln(w, "no differences")
				return nil
			}
			if !sortedOnly {
				fmt.Fprint(w, d.Simplified)
			}
			fmt.Fprint(w, d.SimplifiedSorted)
			if exitCode {
				return errDifferences
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sortedOnly, "sorted", false, "Only show the sorted comparison")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Fail when the dumps differ")
	return cmd
}
