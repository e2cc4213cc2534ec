package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate is returned when a point configuration does not determine a
// unique homography (too few points, coincident or collinear samples).
var ErrDegenerate = errors.New("degenerate point configuration")

// Homography is a 3×3 planar projective transform stored row-major.
//
// A point (x, y) maps to ((h0 x + h1 y + h2) / w, (h3 x + h4 y + h5) / w)
// with w = h6 x + h7 y + h8.
type Homography [9]float64

// IdentityHomography returns the identity transform.
func IdentityHomography() Homography {
	return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// SimilarityHomography builds the transform that scales by s, rotates by
// theta radians and then translates by (tx, ty).
func SimilarityHomography(s, theta, tx, ty float64) Homography {
	sin, cos := math.Sincos(theta)
	return Homography{
		s * cos, -s * sin, tx,
		s * sin, s * cos, ty,
		0, 0, 1,
	}
}

// Apply maps p through the homography. Points on the line at infinity map
// to infinite coordinates.
func (h Homography) Apply(p Point2D) Point2D {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	return Point2D{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// Determinant returns the determinant of the 3×3 matrix.
func (h Homography) Determinant() float64 {
	return h[0]*(h[4]*h[8]-h[5]*h[7]) -
		h[1]*(h[3]*h[8]-h[5]*h[6]) +
		h[2]*(h[3]*h[7]-h[4]*h[6])
}

// ReprojectionError returns the distance between h(src) and dst.
func (h Homography) ReprojectionError(src, dst Point2D) float64 {
	p := h.Apply(src)
	d := p.Distance(dst)
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}

// IsFinite reports whether every coefficient is a finite number.
func (h Homography) IsFinite() bool {
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FitHomography estimates the homography mapping src[i] to dst[i] using the
// normalized direct linear transform (Hartley normalization followed by the
// SVD null vector). Four correspondences give an exact solution; more are
// solved in the algebraic least squares sense.
func FitHomography(src, dst []Point2D) (Homography, error) {
	if len(src) != len(dst) {
		return Homography{}, fmt.Errorf("mismatched correspondence count: %d vs %d", len(src), len(dst))
	}
	if len(src) < 4 {
		return Homography{}, fmt.Errorf("need at least 4 correspondences, got %d: %w", len(src), ErrDegenerate)
	}

	t1, srcN, ok := normalizePoints(src)
	if !ok {
		return Homography{}, ErrDegenerate
	}
	t2, dstN, ok := normalizePoints(dst)
	if !ok {
		return Homography{}, ErrDegenerate
	}

	// Pad with zero rows so the decomposition always yields a 9×9 V.
	rows := 2 * len(src)
	if rows < 9 {
		rows = 9
	}
	a := mat.NewDense(rows, 9, nil)
	for i := range srcN {
		x, y := srcN[i].X, srcN[i].Y
		u, v := dstN[i].X, dstN[i].Y
		r := 2 * i
		a.SetRow(r, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(r+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return Homography{}, fmt.Errorf("svd failed: %w", ErrDegenerate)
	}
	values := svd.Values(nil)
	// A one dimensional null space is required; a second vanishing singular
	// value means the samples do not pin the transform down.
	if values[0] == 0 || values[7] < 1e-9*values[0] {
		return Homography{}, ErrDegenerate
	}

	var v mat.Dense
	svd.VTo(&v)
	hn := make([]float64, 9)
	for i := 0; i < 9; i++ {
		hn[i] = v.At(i, 8)
	}

	t2inv := []float64{
		1 / t2[0], 0, -t2[2] / t2[0],
		0, 1 / t2[4], -t2[5] / t2[4],
		0, 0, 1,
	}
	var tmp, full mat.Dense
	tmp.Mul(mat.NewDense(3, 3, hn), mat.NewDense(3, 3, t1[:]))
	full.Mul(mat.NewDense(3, 3, t2inv), &tmp)

	var h Homography
	for i := 0; i < 9; i++ {
		h[i] = full.At(i/3, i%3)
	}

	scale := h[8]
	if math.Abs(scale) < 1e-12 {
		scale = 0
		for _, c := range h {
			scale += c * c
		}
		scale = math.Sqrt(scale)
	}
	if scale == 0 {
		return Homography{}, ErrDegenerate
	}
	for i := range h {
		h[i] /= scale
	}

	if !h.IsFinite() || math.Abs(h.Determinant()) < 1e-12 {
		return Homography{}, ErrDegenerate
	}
	return h, nil
}

// normalizePoints translates the points to their centroid and scales them so
// the mean distance from the origin is sqrt(2). It returns the normalizing
// transform, the normalized points and false when all points coincide.
func normalizePoints(points []Point2D) ([9]float64, []Point2D, bool) {
	c := Centroid(points)
	var meanDist float64
	for _, p := range points {
		meanDist += p.Distance(c)
	}
	meanDist /= float64(len(points))
	if meanDist < 1e-12 {
		return [9]float64{}, nil, false
	}

	s := math.Sqrt2 / meanDist
	out := make([]Point2D, len(points))
	for i, p := range points {
		out[i] = Point2D{X: (p.X - c.X) * s, Y: (p.Y - c.Y) * s}
	}
	t := [9]float64{
		s, 0, -s * c.X,
		0, s, -s * c.Y,
		0, 0, 1,
	}
	return t, out, true
}
