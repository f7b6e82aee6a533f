package cli

import (
	"github.com/spf13/cobra"

	"github.com/piwi3910/floorpack/internal/check"
	"github.com/piwi3910/floorpack/internal/importer"
)

func newCheckCmd() *cobra.Command {
	var tolerance float64

	cmd := &cobra.Command{
		Use:   "check <modules> <spec> <positions>",
		Short: "Validate a position file against a module list and spec",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := loadPlacedLayout(cmd, args[0], args[2])
			if err != nil {
				return err
			}
			spec, err := importer.LoadSpec(args[1])
			if err != nil {
				return err
			}

			res := resultFromLayout(layout, spec)
			report := check.Check(res.Placements, spec, tolerance)
			printResult(cmd.OutOrStdout(), res, spec, report)
			if !report.Valid() {
				return errInvalidLayout
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&tolerance, "tolerance", check.DefaultTolerance, "allowed overshoot at the outline edge")
	return cmd
}
