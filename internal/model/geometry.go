package model

import (
	"fmt"
	"math"
)

// Point represents a 2D coordinate or vector.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}
func (p Point) Div(k float64) Point { return Point{X: p.X / k, Y: p.Y / k} }

// Dot returns the scalar product of p and q.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Cross returns the z component of the 3D cross product of p and q.
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }

func (p Point) Norm2() float64 { return p.X*p.X + p.Y*p.Y }
func (p Point) Norm() float64  { return math.Sqrt(p.Norm2()) }

// Unit returns p scaled to length 1. The zero vector is returned unchanged.
func (p Point) Unit() Point {
	n := p.Norm()
	if n == 0 {
		return p
	}
	return p.Div(n)
}

// Rotate90 rotates the vector 90 degrees counter-clockwise: (x, y) -> (-y, x).
func (p Point) Rotate90() Point { return Point{X: -p.Y, Y: p.X} }

// Less orders points by X, then Y.
func (p Point) Less(q Point) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

func (p Point) Eq(q Point) bool { return p.X == q.X && p.Y == q.Y }

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Rect is an axis-aligned rectangle given by its bottom-left and top-right corners.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// RectWH builds a rectangle from its bottom-left corner and size.
func RectWH(x, y, w, h float64) Rect {
	return Rect{Min: Point{X: x, Y: y}, Max: Point{X: x + w, Y: y + h}}
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }
func (r Rect) Area() float64   { return r.Width() * r.Height() }

func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Overlaps reports whether r and o share a region of positive area.
// Rectangles that only touch along an edge or corner do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X < o.Max.X && o.Min.X < r.Max.X &&
		r.Min.Y < o.Max.Y && o.Min.Y < r.Max.Y
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Min: Point{X: math.Min(r.Min.X, o.Min.X), Y: math.Min(r.Min.Y, o.Min.Y)},
		Max: Point{X: math.Max(r.Max.X, o.Max.X), Y: math.Max(r.Max.Y, o.Max.Y)},
	}
}
