package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/floorpack/internal/engine"
	"github.com/piwi3910/floorpack/internal/importer"
)

func newCompareCmd() *cobra.Command {
	var opts settingsOpts

	cmd := &cobra.Command{
		Use:   "compare <modules> <spec>",
		Short: "Compare placement strategies on the same module list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			settings, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			layout, err := loadLayout(cmd, args[0])
			if err != nil {
				return err
			}
			spec, err := importer.LoadSpec(args[1])
			if err != nil {
				return err
			}

			scenarios := engine.BuildDefaultScenarios(settings)
			prog := newProgress(logger)
			results := engine.CompareScenarios(ctx, layout, spec, scenarios, logger)
			if err := ctx.Err(); err != nil {
				return err
			}
			prog.done("compared", "scenarios", len(results))

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				if r.Err != nil {
					rows = append(rows, []string{r.Scenario.Name, string(r.Scenario.Settings.Strategy), "-", "-", r.Err.Error(), r.Elapsed.Round(time.Millisecond).String()})
					continue
				}
				valid := iconSuccess
				if !r.Valid {
					valid = iconError
				}
				rows = append(rows, []string{
					r.Scenario.Name,
					string(r.Result.Strategy),
					fmt.Sprintf("%g", r.Height),
					fmt.Sprintf("%.2f%%", r.Utilization*100),
					valid,
					r.Elapsed.Round(time.Millisecond).String(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), comparisonTable(rows))
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}
