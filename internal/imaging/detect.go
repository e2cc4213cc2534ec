package imaging

import (
	"fmt"
	"image"

	"github.com/ironsheep/dotmarker/internal/recognition"
)

// Detect thresholds img with the recognizer's settings and identifies the
// markers in it. When the edge check is enabled the detector samples the
// grayscale image as well.
func Detect(r *recognition.Recognizer, img image.Image) (*recognition.Frame, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	cfg := r.Config()

	binary, err := Threshold(img, cfg.Threshold)
	if err != nil {
		return nil, err
	}
	if cfg.Detector.CheckEdge.Enabled {
		return recognition.ProcessGray(r, binary, GrayRaster(img))
	}
	return r.Process(binary)
}
