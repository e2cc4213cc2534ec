package geometry

import "math"

// Point2D is a 2D point with floating point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point2D{X: x, Y: y}.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Add returns p+q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p multiplied by s.
func (p Point2D) Scale(s float64) Point2D {
	return Point2D{X: p.X * s, Y: p.Y * s}
}

// Distance returns the Euclidean distance between p and q.
func (p Point2D) Distance(q Point2D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Distance2 returns the squared Euclidean distance between p and q.
func (p Point2D) Distance2(q Point2D) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Rotate rotates p by theta radians around the origin.
func (p Point2D) Rotate(theta float64) Point2D {
	s, c := math.Sincos(theta)
	return Point2D{X: c*p.X - s*p.Y, Y: s*p.X + c*p.Y}
}

// TriangleArea returns the signed area of the triangle (a, b, c). The sign
// depends on the winding order and is preserved by orientation-preserving
// affine maps.
func TriangleArea(a, b, c Point2D) float64 {
	return 0.5 * ((b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y))
}

// Centroid returns the mean of the points. The zero point is returned for an
// empty slice.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sx / n, Y: sy / n}
}
