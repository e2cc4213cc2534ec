package recognition

import (
	"github.com/ironsheep/dotmarker/internal/detection"
	"github.com/ironsheep/dotmarker/internal/geometry"
)

// Report is the compact, printable form of a Frame. Inlier lists are
// reduced to counts.
type Report struct {
	FrameID      string              `json:"frame_id"`
	Source       string              `json:"source,omitempty"`
	Width        int                 `json:"width"`
	Height       int                 `json:"height"`
	Observations int                 `json:"observations"`
	Candidates   int                 `json:"candidates"`
	Rejected     detection.Rejection `json:"rejected"`
	Detections   []DetectionReport   `json:"detections"`
}

// DetectionReport summarizes one Detection.
type DetectionReport struct {
	MarkerID        int                 `json:"marker_id"`
	Votes           int                 `json:"votes"`
	Inliers         int                 `json:"inliers"`
	Correspondences int                 `json:"correspondences"`
	InlierFraction  float64             `json:"inlier_fraction"`
	Corners         [4]geometry.Point2D `json:"corners"`
	Center          geometry.Point2D    `json:"center"`
}

// NewReport summarizes f. id and source label the frame in the output; the
// size is that of the processed image.
func NewReport(id, source string, width, height int, f *Frame) Report {
	r := Report{
		FrameID:      id,
		Source:       source,
		Width:        width,
		Height:       height,
		Observations: len(f.Observations),
		Candidates:   f.Candidates,
		Rejected:     f.Rejected,
		Detections:   make([]DetectionReport, len(f.Detections)),
	}
	for i, d := range f.Detections {
		r.Detections[i] = DetectionReport{
			MarkerID:        d.MarkerID,
			Votes:           d.Votes,
			Inliers:         len(d.Inliers),
			Correspondences: d.Correspondences,
			InlierFraction:  d.InlierFraction,
			Corners:         d.Corners,
			Center:          d.Center,
		}
	}
	return r
}
