package detection

import (
	"testing"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/geometry"
)

func grayDisc[T geometry.Pixel](w, h int, cx, cy, r float64, inside, outside T) *geometry.Raster[T] {
	gray := geometry.NewRaster[T](w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r*r {
				gray.Set(x, y, inside)
			} else {
				gray.Set(x, y, outside)
			}
		}
	}
	return gray
}

func edgeDetector(t *testing.T) *Detector {
	return newTestDetector(t, func(c *config.Detector) {
		c.CheckEdge.Enabled = true
		c.CheckEdge.MinimumEdgeIntensity = 50
	})
}

func TestDetectWithGray_RealEdge(t *testing.T) {
	img := geometry.NewBinary(80, 80)
	drawDisc(img, 40, 40, 10)
	gray := grayDisc[uint8](80, 80, 40, 40, 10, 20, 220)

	result, err := DetectWithGray(edgeDetector(t), img, gray)
	if err != nil {
		t.Fatalf("DetectWithGray failed: %v", err)
	}
	if len(result.Observations) != 1 {
		t.Fatalf("expected 1 observation, got %d (rejected %+v)", len(result.Observations), result.Rejected)
	}
	if score := result.Observations[0].EdgeScore; score < 150 {
		t.Errorf("edge score = %.1f, want a strong edge", score)
	}
}

func TestDetectWithGray_NoEdge(t *testing.T) {
	img := geometry.NewBinary(80, 80)
	drawDisc(img, 40, 40, 10)
	gray := geometry.NewRaster[float32](80, 80)
	gray.Fill(128)

	result, err := DetectWithGray(edgeDetector(t), img, gray)
	if err != nil {
		t.Fatalf("DetectWithGray failed: %v", err)
	}
	if len(result.Observations) != 0 || result.Rejected.EdgeScore != 1 {
		t.Errorf("expected an edge rejection, got %d observations, %+v", len(result.Observations), result.Rejected)
	}
}

func TestDetectWithGray_Disabled(t *testing.T) {
	img := geometry.NewBinary(80, 80)
	drawDisc(img, 40, 40, 10)
	gray := geometry.NewRaster[uint16](80, 80)

	result, err := DetectWithGray(newTestDetector(t, nil), img, gray)
	if err != nil {
		t.Fatalf("DetectWithGray failed: %v", err)
	}
	if len(result.Observations) != 1 {
		t.Errorf("disabled edge check should keep the dot, got %d observations", len(result.Observations))
	}
}

func TestDetectWithGray_SizeMismatch(t *testing.T) {
	img := geometry.NewBinary(80, 80)
	gray := geometry.NewRaster[uint8](40, 40)
	if _, err := DetectWithGray(edgeDetector(t), img, gray); err == nil {
		t.Error("expected an error for mismatched image sizes")
	}
}
