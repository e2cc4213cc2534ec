package recognition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/dotmarker/internal/geometry"
	"github.com/ironsheep/dotmarker/internal/marker"
)

const (
	testImageSize = 700
	testScale     = 5.0 // pixels per millimetre
	testRotation  = 0.35
)

func testMarkerSet(t *testing.T) *marker.Set {
	t.Helper()
	set, err := marker.GenerateSet(marker.SetParams{
		Params:  marker.Params{DotCount: 30, Width: 80, DotDiameter: 5},
		Seed:    marker.DefaultSeed,
		Markers: 4,
		Units:   "mm",
	})
	require.NoError(t, err)
	return set
}

// placement returns the transform putting a marker of the given width in
// the middle of the test image, scaled and rotated.
func placement(width float64) geometry.Homography {
	h := geometry.SimilarityHomography(testScale, testRotation, 0, 0)
	c := h.Apply(geometry.Pt(width/2, width/2))
	return geometry.SimilarityHomography(testScale, testRotation,
		testImageSize/2-c.X, testImageSize/2-c.Y)
}

// fillDisc sets every pixel whose center lies inside the circle.
func fillDisc(img *geometry.Binary, c geometry.Point2D, r float64) {
	x0 := int(math.Floor(c.X - r - 1))
	x1 := int(math.Ceil(c.X + r + 1))
	y0 := int(math.Floor(c.Y - r - 1))
	y1 := int(math.Ceil(c.Y + r + 1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !img.InBounds(x, y) {
				continue
			}
			dx := float64(x) + 0.5 - c.X
			dy := float64(y) + 0.5 - c.Y
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, 1)
			}
		}
	}
}

// renderDots draws the given dots of a marker through h.
func renderDots(dots []geometry.Point2D, diameter float64, h geometry.Homography) *geometry.Binary {
	img := geometry.NewBinary(testImageSize, testImageSize)
	for _, p := range dots {
		fillDisc(img, h.Apply(p), testScale*diameter/2)
	}
	return img
}
