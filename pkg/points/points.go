// Package points defines the point set that flows through the conversion
// pipeline.
//
// A [Set] is an ordered, read-only collection of [Point] values. The position
// of a point in the set is its identity: the TSPLIB problem file lists points
// in this order and solver tours refer to them by this index.
//
//	set := points.New("coords", []points.Point{{X: 0, Y: 0}, {X: 10, Y: 0}})
//	b := set.Bounds() // b.Width() == 10
package points

import "math"

// Point is a stipple location in image space.
// Radius is zero when the source carries no radius.
type Point struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"r,omitempty"`
}

// Set is an ordered sequence of points, indexed 0..Len()-1.
type Set struct {
	// Source names the input format the set was parsed from ("pbm", "coords").
	Source string

	// Width and Height describe the source frame for raster inputs.
	// Both are zero for coordinate lists.
	Width  int
	Height int

	pts []Point
}

// New creates a set from pts. The slice is copied.
func New(source string, pts []Point) *Set {
	cp := make([]Point, len(pts))
	copy(cp, pts)
	return &Set{Source: source, pts: cp}
}

// NewRaster creates a set for a raster source of the given frame size.
func NewRaster(source string, width, height int, pts []Point) *Set {
	s := New(source, pts)
	s.Width, s.Height = width, height
	return s
}

// Len returns the number of points.
func (s *Set) Len() int { return len(s.pts) }

// At returns the point at index i.
func (s *Set) At(i int) Point { return s.pts[i] }

// Points returns a copy of the points in index order.
func (s *Set) Points() []Point {
	cp := make([]Point, len(s.pts))
	copy(cp, s.pts)
	return cp
}

// HasRadii reports whether any point carries a radius.
func (s *Set) HasRadii() bool {
	for _, p := range s.pts {
		if p.Radius > 0 {
			return true
		}
	}
	return false
}

// HasFrame reports whether the set knows the frame of its source image.
func (s *Set) HasFrame() bool { return s.Width > 0 && s.Height > 0 }

// IsIntegral reports whether every coordinate is a whole number.
func (s *Set) IsIntegral() bool {
	for _, p := range s.pts {
		if p.X != math.Trunc(p.X) || p.Y != math.Trunc(p.Y) {
			return false
		}
	}
	return true
}

// Bounds returns the coordinate extents of the set.
// The zero Rect is returned for an empty set.
func (s *Set) Bounds() Rect {
	if len(s.pts) == 0 {
		return Rect{}
	}
	r := Rect{MinX: s.pts[0].X, MinY: s.pts[0].Y, MaxX: s.pts[0].X, MaxY: s.pts[0].Y}
	for _, p := range s.pts[1:] {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	return r
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Span returns the larger of Width and Height.
func (r Rect) Span() float64 { return math.Max(r.Width(), r.Height()) }

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
