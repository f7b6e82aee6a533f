package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/floorpack/internal/check"
	"github.com/piwi3910/floorpack/internal/engine"
	"github.com/piwi3910/floorpack/internal/export"
	"github.com/piwi3910/floorpack/internal/importer"
	"github.com/piwi3910/floorpack/internal/model"
	"github.com/piwi3910/floorpack/internal/project"
)

// errInvalidLayout is returned when a layout fails the validity check.
var errInvalidLayout = errors.New("layout failed the validity check")

type solveOpts struct {
	settings  settingsOpts
	pdf       string
	labels    string
	xlsx      string
	dxf       string
	run       string
	skipCheck bool
}

func newSolveCmd() *cobra.Command {
	var opts solveOpts

	cmd := &cobra.Command{
		Use:   "solve <modules> <spec> <output>",
		Short: "Place a module list and write the position file",
		Long: `Place every module of <modules> according to <spec> and write one
"id x y rot" line per module to <output>.

<modules> is a MODULE_SIZE text file, or a .csv, .xlsx or .dxf module list.
<spec> holds "<problemType> <targetWidth> <targetHeight>": type 0 honors the
outline exactly, type 1 minimizes height for the target width.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, args[0], args[1], args[2], opts)
		},
	}

	opts.settings.register(cmd)
	f := cmd.Flags()
	f.StringVar(&opts.pdf, "pdf", "", "also write a PDF floorplan")
	f.StringVar(&opts.labels, "labels", "", "also write a PDF sheet of QR module labels")
	f.StringVar(&opts.xlsx, "xlsx", "", "also write an Excel report")
	f.StringVar(&opts.dxf, "dxf", "", "also write a DXF drawing")
	f.StringVar(&opts.run, "run", "", "record the run as JSON at this path")
	f.BoolVar(&opts.skipCheck, "skip-check", false, "skip the validity check")
	return cmd
}

func runSolve(cmd *cobra.Command, modulesPath, specPath, outputPath string, opts solveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	settings, err := opts.settings.resolve(cmd)
	if err != nil {
		return err
	}
	layout, err := loadLayout(cmd, modulesPath)
	if err != nil {
		return err
	}
	spec, err := importer.LoadSpec(specPath)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	res, err := engine.New(settings, logger).Optimize(ctx, layout, spec)
	if err != nil {
		return err
	}
	prog.done("placed", "modules", layout.Len(), "height", res.Height)

	if err := export.SavePositions(outputPath, res.Placements); err != nil {
		return err
	}
	logger.Info("wrote positions", "file", outputPath)

	report := check.Check(res.Placements, spec, settings.CheckTolerance)
	if !opts.skipCheck {
		printResult(cmd.OutOrStdout(), res, spec, report)
	}

	if err := writeExports(cmd, res, spec, report, opts); err != nil {
		return err
	}

	if opts.run != "" {
		if err := project.SaveRun(opts.run, project.NewRun(spec, settings, res, report)); err != nil {
			return err
		}
		logger.Info("recorded run", "file", opts.run)
	}

	if !opts.skipCheck && !acceptable(res, spec, report) {
		return errInvalidLayout
	}
	return nil
}

// acceptable reports whether a checked result may be kept. A fixed outline
// answered by the shelf fallback may overflow the outline but never overlap.
func acceptable(res model.Result, spec model.Spec, report check.Report) bool {
	if report.Valid() {
		return true
	}
	return spec.ProblemType == model.ProblemFixedOutline && res.Heuristic && len(report.Overlaps) == 0
}

// writeExports writes every optional output that was requested.
func writeExports(cmd *cobra.Command, res model.Result, spec model.Spec, report check.Report, opts solveOpts) error {
	logger := loggerFromContext(cmd.Context())
	outputs := []struct {
		path  string
		kind  string
		write func(string) error
	}{
		{opts.pdf, "floorplan", func(p string) error { return export.ExportPDF(p, res, spec) }},
		{opts.labels, "labels", func(p string) error { return export.ExportLabels(p, res) }},
		{opts.xlsx, "report", func(p string) error { return export.ExportXLSX(p, res, report) }},
		{opts.dxf, "drawing", func(p string) error { return export.ExportDXF(p, res, spec) }},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := out.write(out.path); err != nil {
			return fmt.Errorf("write %s %s: %w", out.kind, out.path, err)
		}
		logger.Info("wrote "+out.kind, "file", out.path)
	}
	return nil
}
