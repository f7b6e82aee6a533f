// Package cli implements the floorpack command-line interface.
//
// Commands:
//   - solve: place a module list and write the position file
//   - check: validate an existing position file
//   - compare: run several strategies side by side
//   - render: draw a position file as PDF, DXF or XLSX
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// carried on the command context.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the floorpack CLI with the given arguments.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "floorpack",
		Short:         "floorpack places rectangular modules into an outline",
		Long:          `floorpack places fixed-size rectangular modules without overlap, either inside a fixed outline or at minimum height for a given width.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(logOut, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("floorpack %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newSolveCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newRenderCmd())

	return root
}
