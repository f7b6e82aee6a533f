// Package check validates a finished floorplan: no two modules overlap and
// every module lies inside the target outline.
package check

import (
	"fmt"
	"math"

	"github.com/piwi3910/floorpack/internal/model"
)

// DefaultTolerance absorbs small coordinate noise at the outline edge.
const DefaultTolerance = 0.1

// Overlap is a pair of modules whose footprints share positive area.
type Overlap struct {
	A, B int // Module IDs
	Area float64
}

// OutOfBounds is a module that crosses the target outline.
type OutOfBounds struct {
	ID     int
	Bounds model.Rect
}

// Report is the outcome of Check.
type Report struct {
	Overlaps    []Overlap
	OutOfBounds []OutOfBounds

	BoundWidth  float64 // Rightmost module edge
	BoundHeight float64 // Topmost module edge
	ModuleArea  float64
	Utilization float64 // ModuleArea / (BoundWidth * BoundHeight)
}

// Valid reports whether no overlaps and no boundary violations were found.
func (r Report) Valid() bool {
	return len(r.Overlaps) == 0 && len(r.OutOfBounds) == 0
}

// Check inspects placements against spec. The height limit is skipped for
// an open outline, and a non-positive width disables the width limit.
// A non-positive tol uses DefaultTolerance.
func Check(placements []model.Placement, spec model.Spec, tol float64) Report {
	if tol <= 0 {
		tol = DefaultTolerance
	}

	rects := make([]model.Rect, len(placements))
	for i, p := range placements {
		rects[i] = model.RectWH(p.X, p.Y, p.PlacedWidth(), p.PlacedHeight())
	}

	var report Report
	for i := range placements {
		for j := i + 1; j < len(placements); j++ {
			if rects[i].Overlaps(rects[j]) {
				report.Overlaps = append(report.Overlaps, Overlap{
					A:    placements[i].ID,
					B:    placements[j].ID,
					Area: intersectionArea(rects[i], rects[j]),
				})
			}
		}
	}

	for i, p := range placements {
		r := rects[i]
		out := r.Min.X < -tol || r.Min.Y < -tol
		if spec.TargetWidth > 0 && r.Max.X > spec.TargetWidth+tol {
			out = true
		}
		if !spec.UnboundedHeight() && r.Max.Y > spec.TargetHeight+tol {
			out = true
		}
		if out {
			report.OutOfBounds = append(report.OutOfBounds, OutOfBounds{ID: p.ID, Bounds: r})
		}

		report.BoundWidth = math.Max(report.BoundWidth, r.Max.X)
		report.BoundHeight = math.Max(report.BoundHeight, r.Max.Y)
		report.ModuleArea += p.Width * p.Height
	}

	if box := report.BoundWidth * report.BoundHeight; box > 0 {
		report.Utilization = report.ModuleArea / box
	}
	return report
}

func intersectionArea(a, b model.Rect) float64 {
	w := math.Min(a.Max.X, b.Max.X) - math.Max(a.Min.X, b.Min.X)
	h := math.Min(a.Max.Y, b.Max.Y) - math.Max(a.Min.Y, b.Min.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// FormatIssues produces human-readable messages for every problem found.
func FormatIssues(r Report) []string {
	var msgs []string
	for _, o := range r.Overlaps {
		msgs = append(msgs, fmt.Sprintf("Module %d and module %d overlap (area %.1f)", o.A, o.B, o.Area))
	}
	for _, o := range r.OutOfBounds {
		msgs = append(msgs, fmt.Sprintf("Module %d exceeds the boundary: (%g, %g) to (%g, %g)",
			o.ID, o.Bounds.Min.X, o.Bounds.Min.Y, o.Bounds.Max.X, o.Bounds.Max.Y))
	}
	return msgs
}
