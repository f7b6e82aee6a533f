package importer

import (
	"fmt"
	"math"

	"github.com/piwi3910/floorpack/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// minDXFSize is the smallest bounding box side accepted from a drawing.
const minDXFSize = 0.01

// ImportDXF imports modules from a DXF drawing. Every LWPOLYLINE and CIRCLE
// becomes one module sized by its bounding box, rounded to the nearest
// integer. Modules are numbered from 1 in drawing order.
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	skipped := 0
	for _, ent := range entities {
		var box model.Rect
		switch e := ent.(type) {
		case *entity.LwPolyline:
			if len(e.Vertices) < 3 {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
				continue
			}
			box = lwPolylineBounds(e)
		case *entity.Circle:
			c := model.Pt(e.Center[0], e.Center[1])
			box = model.Rect{
				Min: c.Sub(model.Pt(e.Radius, e.Radius)),
				Max: c.Add(model.Pt(e.Radius, e.Radius)),
			}
		default:
			skipped++
			continue
		}

		w, h := box.Width(), box.Height()
		if w < minDXFSize || h < minDXFSize {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f)", w, h))
			continue
		}

		rw, rh := math.Max(1, math.Round(w)), math.Max(1, math.Round(h))
		id := len(result.Modules) + 1
		if rw != w || rh != h {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Module %d: rounded %.2f x %.2f to %g x %g", id, w, h, rw, rh))
		}
		result.Modules = append(result.Modules, model.NewModule(id, rw, rh))
	}

	if skipped > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Skipped %d unsupported entities", skipped))
	}
	if len(result.Modules) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
	}
	return result
}

// lwPolylineBounds returns the bounding box of a polyline, including the
// arcs described by bulge values.
func lwPolylineBounds(lw *entity.LwPolyline) model.Rect {
	n := len(lw.Vertices)
	first := model.Pt(lw.Vertices[0][0], lw.Vertices[0][1])
	box := model.Rect{Min: first, Max: first}

	for i := 0; i < n; i++ {
		p := model.Pt(lw.Vertices[i][0], lw.Vertices[i][1])
		box = box.Union(model.Rect{Min: p, Max: p})

		if i >= len(lw.Bulges) || math.Abs(lw.Bulges[i]) < 1e-9 {
			continue
		}
		next := lw.Vertices[(i+1)%n]
		for _, q := range bulgePoints(p, model.Pt(next[0], next[1]), lw.Bulges[i], 16) {
			box = box.Union(model.Rect{Min: q, Max: q})
		}
	}
	return box
}

// bulgePoints samples the arc between p1 and p2 described by a DXF bulge,
// the tangent of a quarter of the included angle. Positive bulges run
// counter-clockwise.
func bulgePoints(p1, p2 model.Point, bulge float64, steps int) []model.Point {
	chord := p2.Sub(p1)
	length := chord.Norm()
	if length < 1e-9 {
		return nil
	}

	theta := 4 * math.Atan(bulge)
	radius := length / (2 * math.Sin(math.Abs(theta)/2))
	// Distance from the chord midpoint to the center, signed by sweep direction.
	offset := radius * math.Cos(theta/2)
	if bulge < 0 {
		offset = -offset
	}
	center := p1.Add(chord.Scale(0.5)).Add(chord.Unit().Rotate90().Scale(offset))

	start := math.Atan2(p1.Y-center.Y, p1.X-center.X)
	pts := make([]model.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := start + theta*float64(i)/float64(steps)
		pts = append(pts, model.Pt(center.X+radius*math.Cos(a), center.Y+radius*math.Sin(a)))
	}
	return pts
}
