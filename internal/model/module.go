package model

// Module is a single rigid rectangle with fixed original dimensions and a
// mutable bottom-left position and rotation flag.
type Module struct {
	ID int

	width    float64
	height   float64
	position Point
	rotated  bool
}

// NewModule creates an unrotated module at the origin.
func NewModule(id int, w, h float64) Module {
	return Module{ID: id, width: w, height: h}
}

func (m *Module) OrgWidth() float64  { return m.width }
func (m *Module) OrgHeight() float64 { return m.height }

// RotatedWidth returns the effective width considering rotation.
func (m *Module) RotatedWidth() float64 {
	if m.rotated {
		return m.height
	}
	return m.width
}

// RotatedHeight returns the effective height considering rotation.
func (m *Module) RotatedHeight() float64 {
	if m.rotated {
		return m.width
	}
	return m.height
}

func (m *Module) Area() float64 { return m.width * m.height }

func (m *Module) Position() Point { return m.position }

// SetPosition overwrites the bottom-left corner without any validation.
func (m *Module) SetPosition(p Point) { m.position = p }

func (m *Module) IsRotated() bool { return m.rotated }

// Rotate flips the orientation flag. The bottom-left corner stays where it is.
func (m *Module) Rotate() { m.rotated = !m.rotated }

func (m *Module) SetRotate(r bool) {
	if r != m.rotated {
		m.Rotate()
	}
}

func (m *Module) Center() Point {
	return Point{
		X: m.position.X + m.RotatedWidth()/2,
		Y: m.position.Y + m.RotatedHeight()/2,
	}
}

// Bounds returns the module's current rotated footprint.
func (m *Module) Bounds() Rect {
	return RectWH(m.position.X, m.position.Y, m.RotatedWidth(), m.RotatedHeight())
}

func (m *Module) AsCluster() (*Cluster, bool) { return nil, false }
