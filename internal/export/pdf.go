// Package export writes placement results: the plain position file, PDF
// floorplan plots, QR-coded module labels, Excel reports and DXF drawings.
package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/floorpack/internal/model"
)

// ErrNothingToExport is returned when a result holds no placements.
var ErrNothingToExport = errors.New("no placements to export")

// moduleColor represents an RGB fill color for a placed module.
type moduleColor struct {
	R, G, B int
}

var moduleColors = []moduleColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// ExportPDF renders the floorplan on one page followed by a summary page.
// The target outline is drawn when spec.TargetWidth is set; an open height is
// drawn up to the result height.
func ExportPDF(path string, res model.Result, spec model.Spec) error {
	if len(res.Placements) == 0 {
		return ErrNothingToExport
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(fmt.Sprintf("Floorplan %s", res.RunID), false)

	pdf.AddPage()
	renderFloorplanPage(pdf, res, spec)

	pdf.AddPage()
	renderSummaryPage(pdf, res, spec)

	return pdf.OutputFileAndClose(path)
}

// outlineSize is the drawn canvas extent in layout units.
func outlineSize(res model.Result, spec model.Spec) (float64, float64) {
	w := math.Max(res.Width, spec.TargetWidth)
	h := res.Height
	if !spec.UnboundedHeight() {
		h = math.Max(h, spec.TargetHeight)
	}
	return math.Max(w, 1), math.Max(h, 1)
}

func renderFloorplanPage(pdf *fpdf.Fpdf, res model.Result, spec model.Spec) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Floorplan %s: %d modules, %s", res.RunID, len(res.Placements), res.ProblemType)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Bounds: %g x %g | Utilization: %.1f%% | Strategy: %s",
		res.Width, res.Height, res.Utilization()*100, res.Strategy)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	outW, outH := outlineSize(res, spec)
	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - 5
	scale := math.Min(drawWidth/outW, drawHeight/outH)

	canvasW := outW * scale
	canvasH := outH * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	// Layout y grows upward; the page's grows downward.
	baseY := drawAreaTop + canvasH
	toPage := func(x, y, h float64) (float64, float64) {
		return offsetX + x*scale, baseY - (y+h)*scale
	}

	pdf.SetFillColor(245, 245, 245)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, drawAreaTop, canvasW, canvasH, "FD")

	if spec.TargetWidth > 0 {
		h := outH
		if !spec.UnboundedHeight() {
			h = spec.TargetHeight
		}
		x, y := toPage(0, 0, h)
		pdf.SetDrawColor(200, 0, 0)
		pdf.SetLineWidth(0.4)
		pdf.SetDashPattern([]float64{2, 1}, 0)
		pdf.Rect(x, y, spec.TargetWidth*scale, h*scale, "D")
		pdf.SetDashPattern([]float64{}, 0)
	}

	for i, p := range res.Placements {
		col := moduleColors[i%len(moduleColors)]
		pw := p.PlacedWidth() * scale
		ph := p.PlacedHeight() * scale
		px, py := toPage(p.X, p.Y, p.PlacedHeight())

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.2)
		pdf.Rect(px, py, pw, ph, "FD")

		if pw > 6 && ph > 4 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)
			label := fmt.Sprintf("%d", p.ID)
			if p.Rotated {
				label += "*"
			}
			labelW := pdf.GetStringWidth(label)
			if labelW < pw-1 {
				pdf.SetXY(px+(pw-labelW)/2, py+ph/2-2)
				pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
			}
		}
	}

	drawDimensionAnnotations(pdf, outW, outH, offsetX, drawAreaTop, canvasW, canvasH)
}

// drawDimensionAnnotations adds width and height labels outside the canvas.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, w, h, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%g", w)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%g", h)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

func renderSummaryPage(pdf *fpdf.Fpdf, res model.Result, spec model.Spec) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Placement Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	target := fmt.Sprintf("%g x %g", spec.TargetWidth, spec.TargetHeight)
	if spec.UnboundedHeight() {
		target = fmt.Sprintf("%g x open", spec.TargetWidth)
	}
	summaryItems := []struct {
		label string
		value string
	}{
		{"Run", res.RunID},
		{"Problem Type", res.ProblemType.String()},
		{"Target Outline", target},
		{"Strategy", string(res.Strategy)},
		{"Result Bounds", fmt.Sprintf("%g x %g", res.Width, res.Height)},
		{"Utilization", fmt.Sprintf("%.1f%%", res.Utilization()*100)},
		{"Solver Calls", fmt.Sprintf("%d", res.SolveCalls)},
		{"Heuristic Fallbacks", fmt.Sprintf("%d", res.Fallbacks)},
		{"Elapsed", res.Elapsed.String()},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5
	colWidths := []float64{25, 35, 35, 35, 35, 25}
	headers := []string{"Module", "X", "Y", "Width", "Height", "Rotated"}

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		xPos := marginLeft
		for i, header := range headers {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
			xPos += colWidths[i]
		}
		y += 6
		pdf.SetFont("Helvetica", "", 9)
	}
	drawHeader()

	for i, p := range res.Placements {
		if y > pageHeight-marginBottom-6 {
			pdf.AddPage()
			y = marginTop
			drawHeader()
		}
		rot := "no"
		if p.Rotated {
			rot = "yes"
		}
		rowData := []string{
			fmt.Sprintf("%d", p.ID),
			fmt.Sprintf("%g", p.X),
			fmt.Sprintf("%g", p.Y),
			fmt.Sprintf("%g", p.PlacedWidth()),
			fmt.Sprintf("%g", p.PlacedHeight()),
			rot,
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos := marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}
}

// labelFontSize returns a font size that fits the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 10
	case minDim > 15:
		return 8
	default:
		return 6
	}
}
