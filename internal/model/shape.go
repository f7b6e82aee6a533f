package model

// Shape is the placement capability shared by leaf modules and clusters.
// Placement passes only talk to this interface, so a cluster can be packed
// or solved as if it were one opaque rectangle.
type Shape interface {
	Position() Point
	SetPosition(p Point)
	Rotate()
	SetRotate(r bool)
	IsRotated() bool

	// OrgWidth and OrgHeight are the dimensions in the unrotated orientation.
	OrgWidth() float64
	OrgHeight() float64
	RotatedWidth() float64
	RotatedHeight() float64

	Center() Point
	Bounds() Rect

	// AsCluster exposes the composite variant without a type switch.
	AsCluster() (*Cluster, bool)
}

var (
	_ Shape = (*Module)(nil)
	_ Shape = (*Cluster)(nil)
)

// MoveTo translates s so the bottom-left corner of its current footprint
// lands on p. For a module this equals SetPosition(p); for a cluster the
// translation anchor and the footprint corner may differ, so the delta is
// computed from the footprint instead.
func MoveTo(s Shape, p Point) {
	b := s.Bounds()
	s.SetPosition(s.Position().Add(p.Sub(b.Min)))
}

// BoundsOf returns the union of the footprints of shapes, or the zero
// rectangle when shapes is empty.
func BoundsOf(shapes []Shape) Rect {
	if len(shapes) == 0 {
		return Rect{}
	}
	r := shapes[0].Bounds()
	for _, s := range shapes[1:] {
		r = r.Union(s.Bounds())
	}
	return r
}
