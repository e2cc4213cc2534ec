package detection

import (
	"fmt"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/geometry"
)

// Observation is one accepted dot.
type Observation struct {
	// Center is the dot center in image coordinates.
	Center geometry.Point2D `json:"center"`

	// Ellipse is the fitted outline.
	Ellipse Ellipse `json:"ellipse"`

	// AxisRatio is major over minor axis length (1.0 for a circle).
	AxisRatio float64 `json:"axis_ratio"`

	// EdgeScore is the mean gray contrast across the outline. It is zero
	// when no gray image was checked.
	EdgeScore float64 `json:"edge_score,omitempty"`

	// Area is the blob size in pixels.
	Area int `json:"area"`
}

// Rejection counts blobs dropped by each rule during one pass.
type Rejection struct {
	Border    int `json:"border"`
	Contour   int `json:"contour"`
	Fit       int `json:"fit"`
	MinorAxis int `json:"minor_axis"`
	AxisRatio int `json:"axis_ratio"`
	Distance  int `json:"distance"`
	EdgeScore int `json:"edge_score"`
}

// Total returns the number of rejected blobs.
func (r Rejection) Total() int {
	return r.Border + r.Contour + r.Fit + r.MinorAxis + r.AxisRatio + r.Distance + r.EdgeScore
}

// Result is the outcome of one detection pass.
type Result struct {
	Observations []Observation `json:"observations"`
	Blobs        int           `json:"blobs"`
	Rejected     Rejection     `json:"rejected"`
}

// Points returns the observation centers.
func (r *Result) Points() []geometry.Point2D {
	pts := make([]geometry.Point2D, len(r.Observations))
	for i, o := range r.Observations {
		pts[i] = o.Center
	}
	return pts
}

// Detector turns binary images into dot observations.
type Detector struct {
	cfg config.Detector
}

// NewDetector validates cfg and returns a detector.
func NewDetector(cfg config.Detector) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() config.Detector {
	return d.cfg
}

// Detect finds dot-like blobs in a binary image.
//
// Parameters:
//   - img: Foreground/background mask. Non-zero pixels are dots.
//
// Returns:
//   - *Result: Accepted observations in scan order (top to bottom, then left
//     to right by first pixel) with per-rule rejection counts.
//
// # Algorithm
//
//  1. Label blobs with the configured connectivity
//  2. Drop blobs touching the border
//  3. Drop blobs whose contour has fewer than ContourMinimumLength pixels
//  4. Fit an ellipse from the blob moments
//  5. Drop ellipses with a minor axis below MinimumMinorAxis or a major to
//     minor ratio above MaxMajorToMinorRatio
//  6. Drop blobs with a contour pixel farther than MaxDistanceFromEllipse
//     from the ellipse outline
//
// The edge check is skipped here because it needs a gray image; use
// DetectWithGray for that.
func (d *Detector) Detect(img *geometry.Binary) *Result {
	return d.detect(img, nil)
}

// DetectWithGray runs Detect and, when the configuration enables it, the
// edge check against gray. gray must have the same size as img.
func DetectWithGray[T geometry.Pixel](d *Detector, img *geometry.Binary, gray *geometry.Raster[T]) (*Result, error) {
	if gray == nil || !d.cfg.CheckEdge.Enabled {
		return d.Detect(img), nil
	}
	if gray.Width != img.Width || gray.Height != img.Height {
		return nil, fmt.Errorf("gray image is %dx%d, binary image is %dx%d",
			gray.Width, gray.Height, img.Width, img.Height)
	}
	check := d.cfg.CheckEdge
	return d.detect(img, func(e Ellipse) (float64, bool) {
		score := EdgeScore(gray, e, check.NumSampleContour, check.CheckRadialDistance)
		return score, score >= check.MinimumEdgeIntensity
	}), nil
}

// edgeFunc scores an ellipse against image intensities.
type edgeFunc func(Ellipse) (float64, bool)

func (d *Detector) detect(img *geometry.Binary, edge edgeFunc) *Result {
	result := &Result{Observations: make([]Observation, 0)}
	if img == nil || img.Width == 0 || img.Height == 0 {
		return result
	}

	blobs := findBlobs(img, d.cfg.ContourRule)
	result.Blobs = len(blobs)

	for _, b := range blobs {
		if b.TouchesBorder {
			result.Rejected.Border++
			continue
		}
		if len(b.Contour) < d.cfg.ContourMinimumLength {
			result.Rejected.Contour++
			continue
		}

		e, ok := fitEllipse(b.Pixels)
		if !ok {
			result.Rejected.Fit++
			continue
		}
		if 2*e.SemiMinor < d.cfg.MinimumMinorAxis {
			result.Rejected.MinorAxis++
			continue
		}
		ratio := e.AxisRatio()
		if ratio > d.cfg.MaxMajorToMinorRatio {
			result.Rejected.AxisRatio++
			continue
		}
		if !d.followsEllipse(b.Contour, e) {
			result.Rejected.Distance++
			continue
		}

		obs := Observation{
			Center:    e.Center,
			Ellipse:   e,
			AxisRatio: ratio,
			Area:      len(b.Pixels),
		}
		if edge != nil {
			score, ok := edge(e)
			if !ok {
				result.Rejected.EdgeScore++
				continue
			}
			obs.EdgeScore = score
		}
		result.Observations = append(result.Observations, obs)
	}
	return result
}

func (d *Detector) followsEllipse(contour []Point, e Ellipse) bool {
	for _, p := range contour {
		c := geometry.Point2D{X: float64(p.X) + 0.5, Y: float64(p.Y) + 0.5}
		if e.Distance(c) > d.cfg.MaxDistanceFromEllipse {
			return false
		}
	}
	return true
}
