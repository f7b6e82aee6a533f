package export

import (
	"fmt"
	"math"

	"github.com/piwi3910/floorpack/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
)

const (
	layerOutline = "OUTLINE"
	layerModules = "MODULES"
	layerLabels  = "LABELS"
)

// ExportDXF writes the floorplan as a DXF drawing in layout units: the
// target outline, one closed rectangle per module and its id as text.
func ExportDXF(path string, res model.Result, spec model.Spec) error {
	if len(res.Placements) == 0 {
		return ErrNothingToExport
	}

	d := dxf.NewDrawing()
	for _, l := range []struct {
		name  string
		color color.ColorNumber
	}{
		{layerOutline, color.Red},
		{layerModules, color.White},
		{layerLabels, color.Cyan},
	} {
		if _, err := d.AddLayer(l.name, l.color, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("add layer %s: %w", l.name, err)
		}
	}

	if spec.TargetWidth > 0 {
		h := res.Height
		if !spec.UnboundedHeight() {
			h = spec.TargetHeight
		}
		if err := d.ChangeLayer(layerOutline); err != nil {
			return err
		}
		if err := drawRect(d, model.RectWH(0, 0, spec.TargetWidth, h)); err != nil {
			return err
		}
	}

	if err := d.ChangeLayer(layerModules); err != nil {
		return err
	}
	for _, p := range res.Placements {
		if err := drawRect(d, model.RectWH(p.X, p.Y, p.PlacedWidth(), p.PlacedHeight())); err != nil {
			return fmt.Errorf("module %d: %w", p.ID, err)
		}
	}

	if err := d.ChangeLayer(layerLabels); err != nil {
		return err
	}
	for _, p := range res.Placements {
		size := math.Max(0.25, math.Min(p.PlacedWidth(), p.PlacedHeight())/4)
		if _, err := d.Text(fmt.Sprintf("%d", p.ID), p.X+size/2, p.Y+size/2, 0, size); err != nil {
			return fmt.Errorf("label %d: %w", p.ID, err)
		}
	}

	return d.SaveAs(path)
}

func drawRect(d *drawing.Drawing, r model.Rect) error {
	_, err := d.LwPolyline(true,
		[]float64{r.Min.X, r.Min.Y, 0},
		[]float64{r.Max.X, r.Min.Y, 0},
		[]float64{r.Max.X, r.Max.Y, 0},
		[]float64{r.Min.X, r.Max.Y, 0},
	)
	return err
}
