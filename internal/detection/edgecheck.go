package detection

import (
	"math"

	"github.com/ironsheep/dotmarker/internal/geometry"
)

// EdgeScore samples gray at samples points around e, each radial pixels
// inside and outside the outline along the normal, and returns the mean
// absolute intensity difference. A printed dot scores high; a blob produced
// by thresholding a smooth gradient scores near zero.
func EdgeScore[T geometry.Pixel](gray *geometry.Raster[T], e Ellipse, samples int, radial float64) float64 {
	if samples <= 0 {
		return 0
	}
	var sum float64
	for i := 0; i < samples; i++ {
		theta := 2 * math.Pi * float64(i) / float64(samples)
		p, n := e.PointAt(theta)
		inside := p.Sub(n.Scale(radial))
		outside := p.Add(n.Scale(radial))
		sum += math.Abs(gray.Interpolate(outside.X, outside.Y) - gray.Interpolate(inside.X, inside.Y))
	}
	return sum / float64(samples)
}
