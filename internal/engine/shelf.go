package engine

import (
	"math"
	"sort"

	"github.com/piwi3910/floorpack/internal/model"
)

// ShelfPacker is the greedy shelf heuristic. Rectangles are stood upright,
// sorted tallest first and laid left to right in horizontal shelves.
type ShelfPacker struct{}

// Pack places shapes into shelves no wider than targetWidth and returns the
// packed height. The order of the shapes slice is not changed; ties in
// height keep their input order. A shape wider than targetWidth still gets
// a shelf of its own.
func (ShelfPacker) Pack(shapes []model.Shape, targetWidth float64) float64 {
	if len(shapes) == 0 {
		return 0
	}

	for _, s := range shapes {
		if s.RotatedHeight() < s.RotatedWidth() {
			s.Rotate()
		}
	}

	order := make([]model.Shape, len(shapes))
	copy(order, shapes)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].RotatedHeight() > order[j].RotatedHeight()
	})

	items := make([]shelfItem, len(order))
	for i, s := range order {
		items[i] = shelfItem{w: s.RotatedWidth(), h: s.RotatedHeight()}
	}
	positions, height := shelfPlan(items, targetWidth)
	for i, s := range order {
		model.MoveTo(s, positions[i])
	}
	return height
}

// shelfItem is a rectangle in its chosen orientation.
type shelfItem struct {
	w, h float64
}

// shelfPlan lays items out in the given order without touching any shape.
// It returns the bottom-left corner of every item and the total height.
func shelfPlan(items []shelfItem, targetWidth float64) ([]model.Point, float64) {
	positions := make([]model.Point, len(items))
	var currentX, currentY, shelfHeight float64

	for i, it := range items {
		if currentX > 0 && currentX+it.w > targetWidth {
			currentY += shelfHeight
			currentX = 0
			shelfHeight = 0
		}
		positions[i] = model.Point{X: currentX, Y: currentY}
		currentX += it.w
		shelfHeight = math.Max(shelfHeight, it.h)
	}
	return positions, currentY + shelfHeight
}
