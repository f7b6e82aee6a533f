package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/floorpack/internal/check"
	"github.com/piwi3910/floorpack/internal/export"
	"github.com/piwi3910/floorpack/internal/importer"
	"github.com/piwi3910/floorpack/internal/model"
)

func newRenderCmd() *cobra.Command {
	var output, specPath string
	var labels bool

	cmd := &cobra.Command{
		Use:   "render <modules> <positions>",
		Short: "Draw a position file as PDF, DXF or XLSX",
		Long: `Draw the modules of <modules> at the positions in <positions>. The output
format follows the extension of --output: .pdf, .dxf or .xlsx. With --labels
a .pdf output becomes a sheet of QR module labels instead of a floorplan.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := loadPlacedLayout(cmd, args[0], args[1])
			if err != nil {
				return err
			}

			spec := model.Spec{ProblemType: model.ProblemAreaMin, TargetWidth: layout.Bounds().Max.X}
			if specPath != "" {
				if spec, err = importer.LoadSpec(specPath); err != nil {
					return err
				}
			}
			res := resultFromLayout(layout, spec)

			switch ext := strings.ToLower(filepath.Ext(output)); {
			case ext == ".pdf" && labels:
				err = export.ExportLabels(output, res)
			case ext == ".pdf":
				err = export.ExportPDF(output, res, spec)
			case ext == ".dxf":
				err = export.ExportDXF(output, res, spec)
			case ext == ".xlsx":
				err = export.ExportXLSX(output, res, check.Check(res.Placements, spec, 0))
			default:
				return fmt.Errorf("unsupported output format %q", ext)
			}
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "wrote %s", output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "floorplan.pdf", "output file")
	f.StringVar(&specPath, "spec", "", "spec file for the outline (defaults to the layout bounds)")
	f.BoolVar(&labels, "labels", false, "write QR module labels instead of a floorplan")
	return cmd
}
