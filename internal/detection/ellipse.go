package detection

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/dotmarker/internal/geometry"
)

// pixelVariance is the variance of a uniform distribution over one pixel
// along one axis. It turns sampled pixel moments into moments of the
// continuous region.
const pixelVariance = 1.0 / 12.0

// Ellipse describes a fitted dot outline.
type Ellipse struct {
	// Center is the ellipse center in image coordinates.
	Center geometry.Point2D `json:"center"`

	// SemiMajor and SemiMinor are the half axis lengths in pixels.
	SemiMajor float64 `json:"semi_major"`
	SemiMinor float64 `json:"semi_minor"`

	// Angle is the direction of the major axis in radians, measured from +X
	// toward +Y.
	Angle float64 `json:"angle"`
}

// fitEllipse estimates the ellipse with the same first and second moments as
// the filled region. For a uniform ellipse the covariance eigenvalues are
// a²/4 and b²/4, so each semi axis is twice the standard deviation along it.
func fitEllipse(pixels []Point) (Ellipse, bool) {
	if len(pixels) == 0 {
		return Ellipse{}, false
	}

	n := float64(len(pixels))
	var sx, sy float64
	for _, p := range pixels {
		sx += float64(p.X) + 0.5
		sy += float64(p.Y) + 0.5
	}
	cx, cy := sx/n, sy/n

	var sxx, syy, sxy float64
	for _, p := range pixels {
		dx := float64(p.X) + 0.5 - cx
		dy := float64(p.Y) + 0.5 - cy
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	cov := mat.NewSymDense(2, []float64{
		sxx/n + pixelVariance, sxy / n,
		sxy / n, syy/n + pixelVariance,
	})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return Ellipse{}, false
	}
	values := eig.Values(nil) // ascending
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	if values[0] <= 0 || math.IsNaN(values[0]) {
		return Ellipse{}, false
	}

	return Ellipse{
		Center:    geometry.Point2D{X: cx, Y: cy},
		SemiMajor: 2 * math.Sqrt(values[1]),
		SemiMinor: 2 * math.Sqrt(values[0]),
		Angle:     math.Atan2(vectors.At(1, 1), vectors.At(0, 1)),
	}, true
}

// AxisRatio returns major over minor axis length.
func (e Ellipse) AxisRatio() float64 {
	if e.SemiMinor == 0 {
		return math.Inf(1)
	}
	return e.SemiMajor / e.SemiMinor
}

// toLocal expresses p in the ellipse frame: origin at the center, X along
// the major axis.
func (e Ellipse) toLocal(p geometry.Point2D) geometry.Point2D {
	return p.Sub(e.Center).Rotate(-e.Angle)
}

// Distance approximates the distance from p to the ellipse outline by
// measuring along the ray from the center through p.
func (e Ellipse) Distance(p geometry.Point2D) float64 {
	u := e.toLocal(p)
	norm := math.Hypot(u.X, u.Y)
	if norm == 0 {
		return e.SemiMinor
	}
	r := math.Hypot(u.X/e.SemiMajor, u.Y/e.SemiMinor)
	return math.Abs(1-1/r) * norm
}

// PointAt returns the outline point at parameter theta and the outward unit
// normal there.
func (e Ellipse) PointAt(theta float64) (geometry.Point2D, geometry.Point2D) {
	cos, sin := math.Cos(theta), math.Sin(theta)
	local := geometry.Point2D{X: e.SemiMajor * cos, Y: e.SemiMinor * sin}
	normal := geometry.Point2D{X: cos / e.SemiMajor, Y: sin / e.SemiMinor}
	length := math.Hypot(normal.X, normal.Y)
	normal = normal.Scale(1 / length)

	return local.Rotate(e.Angle).Add(e.Center), normal.Rotate(e.Angle)
}
