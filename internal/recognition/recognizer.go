package recognition

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/detection"
	"github.com/ironsheep/dotmarker/internal/geometry"
	"github.com/ironsheep/dotmarker/internal/llah"
	"github.com/ironsheep/dotmarker/internal/marker"
	"github.com/ironsheep/dotmarker/internal/monitoring"
)

// markerLengthTolerance is how far the configured marker length may differ
// from the width stored in the marker set.
const markerLengthTolerance = 1e-6

// Frame is the outcome of recognizing one image.
type Frame struct {
	// Detections are the verified markers, most voted first.
	Detections []Detection `json:"detections"`

	// Observations are the dots the detector accepted. Correspondence
	// observation indices refer to this slice.
	Observations []detection.Observation `json:"observations"`

	// Rejected counts the blobs the detector dropped, per rule.
	Rejected detection.Rejection `json:"rejected"`

	// Candidates is the number of markers that reached verification.
	Candidates int `json:"candidates"`
}

// Recognizer identifies the markers of one registered set.
type Recognizer struct {
	cfg      config.Config
	set      *marker.Set
	table    *llah.Table
	detector *detection.Detector
	verifier *Verifier
}

// NewRecognizer validates cfg, checks that it matches set and registers the
// set. Registration is the expensive step; build one Recognizer and share
// it across frames.
func NewRecognizer(cfg config.Config, set *marker.Set) (*Recognizer, error) {
	if err := validate(cfg, set); err != nil {
		return nil, err
	}
	table, err := llah.Register(set, cfg.LLAH)
	if err != nil {
		return nil, fmt.Errorf("failed to register marker set: %w", err)
	}
	return newRecognizer(cfg, set, table)
}

// NewRecognizerWithTable builds a recognizer around an existing table. The
// table must have been registered from set with cfg.LLAH.
func NewRecognizerWithTable(cfg config.Config, set *marker.Set, table *llah.Table) (*Recognizer, error) {
	if err := validate(cfg, set); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("%w: nil table", config.ErrConfiguration)
	}
	if table.Config() != cfg.LLAH || table.Markers() != len(set.Markers) {
		return nil, fmt.Errorf("%w: table was registered with different parameters", config.ErrConfiguration)
	}
	return newRecognizer(cfg, set, table)
}

func validate(cfg config.Config, set *marker.Set) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if set == nil {
		return fmt.Errorf("%w: nil marker set", config.ErrConfiguration)
	}
	if err := set.Validate(); err != nil {
		return err
	}
	if math.Abs(cfg.MarkerLength-set.MarkerWidth) > markerLengthTolerance {
		return fmt.Errorf("%w: marker_length %g does not match the marker set width %g",
			config.ErrConfiguration, cfg.MarkerLength, set.MarkerWidth)
	}
	return nil
}

func newRecognizer(cfg config.Config, set *marker.Set, table *llah.Table) (*Recognizer, error) {
	det, err := detection.NewDetector(cfg.Detector)
	if err != nil {
		return nil, err
	}
	ver, err := NewVerifier(cfg.RANSAC)
	if err != nil {
		return nil, err
	}
	return &Recognizer{
		cfg:      cfg,
		set:      set,
		table:    table,
		detector: det,
		verifier: ver,
	}, nil
}

// Config returns the recognizer configuration.
func (r *Recognizer) Config() config.Config {
	return r.cfg
}

// Set returns the registered marker set.
func (r *Recognizer) Set() *marker.Set {
	return r.set
}

// Table returns the registered LLAH table.
func (r *Recognizer) Table() *llah.Table {
	return r.table
}

// Process detects dots in img and identifies the markers among them.
func (r *Recognizer) Process(img *geometry.Binary) (*Frame, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	return r.frame(r.detector.Detect(img)), nil
}

// ProcessGray is Process with the detector's edge check run against gray.
func ProcessGray[T geometry.Pixel](r *Recognizer, img *geometry.Binary, gray *geometry.Raster[T]) (*Frame, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	result, err := detection.DetectWithGray(r.detector, img, gray)
	if err != nil {
		return nil, fmt.Errorf("failed to detect dots: %w", err)
	}
	return r.frame(result), nil
}

func (r *Recognizer) frame(result *detection.Result) *Frame {
	detections, candidates := r.recognize(result.Points())
	return &Frame{
		Detections:   detections,
		Observations: result.Observations,
		Rejected:     result.Rejected,
		Candidates:   candidates,
	}
}

// Recognize identifies markers among already detected dot centers.
func (r *Recognizer) Recognize(points []geometry.Point2D) []Detection {
	detections, _ := r.recognize(points)
	return detections
}

// Vote encodes every point and tallies the table hits.
func (r *Recognizer) Vote(points []geometry.Point2D) *VoteBox {
	box := NewVoteBox()
	ps := llah.NewPointSet(points)
	for i := range points {
		for _, d := range r.table.Encode(ps, i) {
			for _, e := range r.table.Lookup(d) {
				box.Add(i, e.MarkerID, e.PointIndex)
			}
		}
	}
	return box
}

func (r *Recognizer) recognize(points []geometry.Point2D) ([]Detection, int) {
	detections := make([]Detection, 0)
	if len(points) <= r.cfg.LLAH.NumberOfNeighborsN {
		return detections, 0
	}

	box := r.Vote(points)
	candidates := Assemble(box, r.cfg.MinimumVotes)
	monitoring.Debugf("recognition: %d points, %d pairings, %d candidates", len(points), box.Len(), len(candidates))

	claimed := make(map[int]bool)
	for _, c := range candidates {
		def, ok := r.set.Marker(c.MarkerID)
		if !ok {
			continue
		}

		// Dots already explained by an accepted marker cannot belong to another.
		kept := c.Correspondences[:0]
		for _, corr := range c.Correspondences {
			if claimed[corr.Observation] {
				continue
			}
			corr.Image = points[corr.Observation]
			corr.Marker = def.Dots[corr.Point]
			kept = append(kept, corr)
		}
		c.Correspondences = kept

		pairings := make([]Correspondence, 0, len(c.Pairings))
		for _, pair := range c.Pairings {
			if claimed[pair.Observation] {
				continue
			}
			pair.Image = points[pair.Observation]
			pair.Marker = def.Dots[pair.Point]
			pairings = append(pairings, pair)
		}
		c.Pairings = pairings

		det, err := r.verifier.Verify(c, &def)
		if err != nil {
			monitoring.Debugf("recognition: rejected marker %d (%d votes): %v", c.MarkerID, c.Votes, err)
			continue
		}
		for _, in := range det.Inliers {
			claimed[in.Observation] = true
		}
		detections = append(detections, *det)
	}
	return detections, len(candidates)
}
