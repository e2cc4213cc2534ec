// Package config holds the recognition settings for random-dot markers and
// their validation rules.
//
// Defaults follow the values published with the original Uchiya marker
// detector. Settings are stored as JSON; fields omitted from a file keep
// their defaults, so partial configs are safe.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// ErrConfiguration is wrapped by every validation failure.
var ErrConfiguration = errors.New("configuration error")

// invalidf builds an error that matches ErrConfiguration with errors.Is.
func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ConnectRule selects the pixel connectivity used when tracing blobs.
type ConnectRule string

const (
	// ConnectFour joins pixels sharing an edge.
	ConnectFour ConnectRule = "FOUR"
	// ConnectEight also joins diagonal neighbours.
	ConnectEight ConnectRule = "EIGHT"
)

// HashType selects the geometric invariant used by LLAH.
type HashType string

const (
	// HashAffine uses ratios of triangle areas over 4 points. Invariant to
	// affine transforms of the marker plane.
	HashAffine HashType = "AFFINE"
	// HashCrossRatio uses a 5 point cross ratio of triangle areas. Invariant
	// to projective transforms.
	HashCrossRatio HashType = "CROSS_RATIO"
)

// MaxHashTableSize is the full unsigned 32-bit key space.
const MaxHashTableSize uint64 = 1 << 32

// MaxNeighbors bounds NumberOfNeighborsN. Each dot yields C(N, M)
// descriptors, which grows too fast beyond this.
const MaxNeighbors = 12

// LLAH configures Locally Likely Arrangement Hashing.
type LLAH struct {
	// NumberOfNeighborsN is how many nearest neighbours describe a dot.
	NumberOfNeighborsN int `json:"number_of_neighbors_n"`
	// SizeOfCombinationM is how many of those neighbours form one combination.
	SizeOfCombinationM int `json:"size_of_combination_m"`
	// QuantizationK is the number of discrete levels per invariant.
	QuantizationK int `json:"quantization_k"`
	// HashType selects the invariant.
	HashType HashType `json:"hash_type"`
	// HashTableSize bounds the hash key. Keys live in [0, HashTableSize).
	HashTableSize uint64 `json:"hash_table_size"`
}

// InvariantPoints returns how many points one invariant is computed from.
func (l LLAH) InvariantPoints() int {
	if l.HashType == HashCrossRatio {
		return 5
	}
	return 4
}

// Validate checks the LLAH parameters for internal consistency.
func (l LLAH) Validate() error {
	switch l.HashType {
	case HashAffine, HashCrossRatio:
	default:
		return invalidf("unknown hash_type %q", l.HashType)
	}
	if l.NumberOfNeighborsN <= 0 || l.NumberOfNeighborsN > MaxNeighbors {
		return invalidf("number_of_neighbors_n must be in [1, %d], got %d", MaxNeighbors, l.NumberOfNeighborsN)
	}
	if l.SizeOfCombinationM >= l.NumberOfNeighborsN {
		return invalidf("size_of_combination_m (%d) must be less than number_of_neighbors_n (%d)",
			l.SizeOfCombinationM, l.NumberOfNeighborsN)
	}
	if l.SizeOfCombinationM < l.InvariantPoints() {
		return invalidf("size_of_combination_m must be at least %d for %s, got %d",
			l.InvariantPoints(), l.HashType, l.SizeOfCombinationM)
	}
	if l.QuantizationK < 2 || l.QuantizationK > math.MaxUint8 {
		return invalidf("quantization_k must be in [2, 255], got %d", l.QuantizationK)
	}
	if l.HashTableSize == 0 || l.HashTableSize > MaxHashTableSize {
		return invalidf("hash_table_size must be in (0, 2^32], got %d", l.HashTableSize)
	}
	return nil
}

// RANSAC configures the homography verifier.
type RANSAC struct {
	// Iterations is the fixed number of minimal samples drawn.
	Iterations int `json:"iterations"`
	// InlierThreshold is the maximum reprojection error in pixels.
	InlierThreshold float64 `json:"inlier_threshold"`
	// MinimumInlierFraction is the consensus required to accept a marker.
	MinimumInlierFraction float64 `json:"minimum_inlier_fraction"`
	// Seed seeds the sampler of each verification pass.
	Seed int64 `json:"seed"`
}

// Validate checks the RANSAC parameters.
func (r RANSAC) Validate() error {
	if r.Iterations <= 0 {
		return invalidf("ransac iterations must be positive, got %d", r.Iterations)
	}
	if r.InlierThreshold <= 0 {
		return invalidf("ransac inlier_threshold must be positive, got %g", r.InlierThreshold)
	}
	if r.MinimumInlierFraction <= 0 || r.MinimumInlierFraction > 1 {
		return invalidf("ransac minimum_inlier_fraction must be in (0, 1], got %g", r.MinimumInlierFraction)
	}
	return nil
}

// Threshold methods understood by the imaging package.
const (
	ThresholdGlobal    = "global"
	ThresholdOtsu      = "otsu"
	ThresholdLocalMean = "local_mean"
)

// Threshold configures the conversion of a captured image into the binary
// mask consumed by the detector. Dark pixels become foreground.
type Threshold struct {
	Method string `json:"method"`
	// BlockSize is the side of the local window in pixels (local_mean).
	BlockSize int `json:"block_size"`
	// Level is the global gray level (0-255) below which pixels are dots.
	Level int `json:"level"`
	// Scale multiplies the local mean before comparison (local_mean).
	Scale float64 `json:"scale"`
	// BlurRadius applies a Gaussian blur first when positive.
	BlurRadius float64 `json:"blur_radius"`
}

// Validate checks the threshold parameters.
func (t Threshold) Validate() error {
	switch t.Method {
	case ThresholdGlobal:
		if t.Level < 0 || t.Level > 255 {
			return invalidf("threshold level must be in [0, 255], got %d", t.Level)
		}
	case ThresholdOtsu:
	case ThresholdLocalMean:
		if t.BlockSize <= 0 {
			return invalidf("threshold block_size must be positive, got %d", t.BlockSize)
		}
		if t.Scale <= 0 {
			return invalidf("threshold scale must be positive, got %g", t.Scale)
		}
	default:
		return invalidf("unknown threshold method %q", t.Method)
	}
	if t.BlurRadius < 0 {
		return invalidf("threshold blur_radius must not be negative, got %g", t.BlurRadius)
	}
	return nil
}

// EdgeCheck configures the optional validation of ellipses against the gray
// image. Adaptive thresholding produces blobs without a real intensity edge;
// this check removes them.
type EdgeCheck struct {
	Enabled bool `json:"enabled"`
	// NumSampleContour is how many points along the ellipse are sampled.
	NumSampleContour int `json:"num_sample_contour"`
	// CheckRadialDistance is how far inside and outside the contour to sample.
	CheckRadialDistance float64 `json:"check_radial_distance"`
	// MinimumEdgeIntensity is the minimum mean gray contrast across the edge.
	MinimumEdgeIntensity float64 `json:"minimum_edge_intensity"`
}

// Detector configures contour tracing and ellipse fitting.
type Detector struct {
	ContourRule            ConnectRule `json:"contour_rule"`
	ContourMinimumLength   int         `json:"contour_minimum_length"`
	MaxDistanceFromEllipse float64     `json:"max_distance_from_ellipse"`
	MinimumMinorAxis       float64     `json:"minimum_minor_axis"`
	MaxMajorToMinorRatio   float64     `json:"max_major_to_minor_ratio"`
	CheckEdge              EdgeCheck   `json:"check_edge"`
}

// Validate checks the detector parameters.
func (d Detector) Validate() error {
	switch d.ContourRule {
	case ConnectFour, ConnectEight:
	default:
		return invalidf("unknown contour_rule %q", d.ContourRule)
	}
	if d.ContourMinimumLength < 0 {
		return invalidf("contour_minimum_length must not be negative, got %d", d.ContourMinimumLength)
	}
	if d.MaxDistanceFromEllipse <= 0 {
		return invalidf("max_distance_from_ellipse must be positive, got %g", d.MaxDistanceFromEllipse)
	}
	if d.MinimumMinorAxis < 0 {
		return invalidf("minimum_minor_axis must not be negative, got %g", d.MinimumMinorAxis)
	}
	if d.MaxMajorToMinorRatio < 1 {
		return invalidf("max_major_to_minor_ratio must be at least 1, got %g", d.MaxMajorToMinorRatio)
	}
	if d.CheckEdge.Enabled {
		if d.CheckEdge.NumSampleContour <= 0 {
			return invalidf("check_edge num_sample_contour must be positive, got %d", d.CheckEdge.NumSampleContour)
		}
		if d.CheckEdge.CheckRadialDistance <= 0 {
			return invalidf("check_edge check_radial_distance must be positive, got %g", d.CheckEdge.CheckRadialDistance)
		}
	}
	return nil
}

// Config is the complete recognition configuration.
//
// The detector settings are embedded so their keys appear at the top level
// of the JSON document.
type Config struct {
	// MarkerLength is the marker's width and height in document units. It
	// must match the width the dots were generated with.
	MarkerLength float64 `json:"marker_length"`

	Threshold Threshold `json:"threshold"`
	LLAH      LLAH      `json:"llah"`
	RANSAC    RANSAC    `json:"ransac"`

	// MinimumVotes is the vote total a marker must exceed to be verified.
	MinimumVotes int `json:"minimum_votes"`

	Detector
}

// Default returns the default configuration. MarkerLength is left unset
// (-1) because it must match the printed markers; Validate fails until the
// caller sets it.
func Default() Config {
	return Config{
		MarkerLength: -1,
		Threshold: Threshold{
			Method:    ThresholdLocalMean,
			BlockSize: 50,
			Level:     128,
			Scale:     0.95,
		},
		LLAH: LLAH{
			NumberOfNeighborsN: 7,
			SizeOfCombinationM: 5,
			QuantizationK:      32,
			HashType:           HashAffine,
			HashTableSize:      MaxHashTableSize,
		},
		RANSAC: RANSAC{
			Iterations:            200,
			InlierThreshold:       2.0,
			MinimumInlierFraction: 0.6,
			Seed:                  0xBEEF,
		},
		MinimumVotes: 15,
		Detector: Detector{
			ContourRule:            ConnectFour,
			ContourMinimumLength:   8,
			MaxDistanceFromEllipse: 3.0,
			MinimumMinorAxis:       0.5,
			MaxMajorToMinorRatio:   20.0,
			CheckEdge: EdgeCheck{
				Enabled:              false,
				NumSampleContour:     20,
				CheckRadialDistance:  1.5,
				MinimumEdgeIntensity: 20,
			},
		},
	}
}

// WithMarkerLength returns a default configuration for markers of the given
// side length.
func WithMarkerLength(length float64) Config {
	cfg := Default()
	cfg.MarkerLength = length
	return cfg
}

// Validate checks every section. It must pass before any image is processed.
func (c Config) Validate() error {
	if c.MarkerLength <= 0 || math.IsNaN(c.MarkerLength) || math.IsInf(c.MarkerLength, 0) {
		return invalidf("marker_length must be set to a positive value, got %g", c.MarkerLength)
	}
	if err := c.LLAH.Validate(); err != nil {
		return err
	}
	if err := c.RANSAC.Validate(); err != nil {
		return err
	}
	if err := c.Threshold.Validate(); err != nil {
		return err
	}
	if err := c.Detector.Validate(); err != nil {
		return err
	}
	if c.MinimumVotes < 0 {
		return invalidf("minimum_votes must not be negative, got %d", c.MinimumVotes)
	}
	return nil
}

const maxConfigFileSize = 1 * 1024 * 1024

// Load reads a JSON configuration file on top of Default and validates it.
// The file must have a .json extension and be under 1MB. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Config{}, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return Config{}, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes JSON on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
