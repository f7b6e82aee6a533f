package export

import (
	"fmt"

	"github.com/piwi3910/floorpack/internal/check"
	"github.com/piwi3910/floorpack/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	placementsSheet = "Placements"
	summarySheet    = "Summary"
	issuesSheet     = "Issues"
)

// ExportXLSX writes a workbook with the placements, a run summary and the
// validity issues found by report.
func ExportXLSX(path string, res model.Result, report check.Report) error {
	if len(res.Placements) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), placementsSheet); err != nil {
		return err
	}
	header := []interface{}{"ID", "X", "Y", "Width", "Height", "Rotated", "Placed Width", "Placed Height"}
	if err := f.SetSheetRow(placementsSheet, "A1", &header); err != nil {
		return err
	}
	for i, p := range res.Placements {
		row := []interface{}{p.ID, p.X, p.Y, p.Width, p.Height, p.Rotated, p.PlacedWidth(), p.PlacedHeight()}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(placementsSheet, cell, &row); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(placementsSheet, 1, 1, bold); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"Run", res.RunID},
		{"Problem Type", res.ProblemType.String()},
		{"Strategy", string(res.Strategy)},
		{"Width", res.Width},
		{"Height", res.Height},
		{"Module Area", report.ModuleArea},
		{"Utilization", report.Utilization},
		{"Solver Calls", res.SolveCalls},
		{"Heuristic Fallbacks", res.Fallbacks},
		{"Elapsed (s)", res.Elapsed.Seconds()},
		{"Valid", report.Valid()},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	if err := f.SetColStyle(summarySheet, "A", bold); err != nil {
		return err
	}

	if issues := check.FormatIssues(report); len(issues) > 0 {
		if _, err := f.NewSheet(issuesSheet); err != nil {
			return err
		}
		for i, msg := range issues {
			if err := f.SetCellValue(issuesSheet, fmt.Sprintf("A%d", i+1), msg); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}
