package marker

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/geometry"
)

// ErrGeneration is returned when a dot cannot be placed: the requested
// density is too high for the marker area.
var ErrGeneration = errors.New("marker generation failed")

// MaxPlacementAttempts bounds how often one dot is resampled before
// generation gives up.
const MaxPlacementAttempts = 1000

// DefaultSeed is the random seed used when none is given.
const DefaultSeed uint64 = 0xDEADBEEF

// Params describes the dots of one marker.
type Params struct {
	// DotCount is the number of dots per marker.
	DotCount int
	// Width is the side of the square marker.
	Width float64
	// DotDiameter is the printed dot diameter.
	DotDiameter float64
	// MinSeparation is the minimum center-to-center distance. Zero means
	// twice the dot diameter.
	MinSeparation float64
}

func (p Params) separation() float64 {
	if p.MinSeparation > 0 {
		return p.MinSeparation
	}
	return 2 * p.DotDiameter
}

func (p Params) validate() error {
	if p.DotCount <= 0 {
		return fmt.Errorf("%w: dot count must be positive, got %d", config.ErrConfiguration, p.DotCount)
	}
	if p.Width <= 0 {
		return fmt.Errorf("%w: marker width must be positive, got %g", config.ErrConfiguration, p.Width)
	}
	if p.DotDiameter < 0 || p.MinSeparation < 0 {
		return fmt.Errorf("%w: dot diameter and separation must not be negative", config.ErrConfiguration)
	}
	return nil
}

// GenerateMarker places p.DotCount dots uniformly at random inside
// [0,Width)², drawing from rng. A draw closer than the minimum separation to
// an accepted dot is discarded and redrawn, at most MaxPlacementAttempts
// times per dot.
//
// The result depends only on the state of rng, so a generator seeded the
// same way reproduces the same marker.
func GenerateMarker(rng *rand.Rand, id int, p Params) (Definition, error) {
	if rng == nil {
		return Definition{}, fmt.Errorf("%w: nil random source", config.ErrConfiguration)
	}
	if err := p.validate(); err != nil {
		return Definition{}, err
	}

	minSep := p.separation()
	minSep2 := minSep * minSep
	dots := make([]geometry.Point2D, 0, p.DotCount)

	for i := 0; i < p.DotCount; i++ {
		placed := false
		for attempt := 0; attempt < MaxPlacementAttempts; attempt++ {
			candidate := geometry.Point2D{
				X: rng.Float64() * p.Width,
				Y: rng.Float64() * p.Width,
			}
			if isClear(dots, candidate, minSep2) {
				dots = append(dots, candidate)
				placed = true
				break
			}
		}
		if !placed {
			return Definition{}, fmt.Errorf("%w: marker %d dot %d of %d: no position at least %g apart after %d attempts in a %g wide square",
				ErrGeneration, id, i, p.DotCount, minSep, MaxPlacementAttempts, p.Width)
		}
	}

	return Definition{
		ID:          id,
		Width:       p.Width,
		DotDiameter: p.DotDiameter,
		Dots:        dots,
	}, nil
}

func isClear(dots []geometry.Point2D, p geometry.Point2D, minSep2 float64) bool {
	for _, d := range dots {
		if d.Distance2(p) < minSep2 {
			return false
		}
	}
	return true
}

// SetParams describes a whole marker set.
type SetParams struct {
	Params
	// Seed initializes the single random stream shared by all markers.
	Seed uint64
	// Markers is the number of unique markers.
	Markers int
	// Units labels the document unit, e.g. "mm".
	Units string
}

// NewRandom returns the random stream a set with the given seed is
// generated from.
func NewRandom(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(int64(seed)))
}

// GenerateSet creates sp.Markers markers from one random stream seeded with
// sp.Seed. The stream advances from marker to marker, so markers within the
// set are independent of each other.
func GenerateSet(sp SetParams) (*Set, error) {
	if sp.Markers <= 0 {
		return nil, fmt.Errorf("%w: marker count must be positive, got %d", config.ErrConfiguration, sp.Markers)
	}

	rng := NewRandom(sp.Seed)
	set := &Set{
		Seed:             sp.Seed,
		DotDiameter:      sp.DotDiameter,
		MaxDotsPerMarker: sp.DotCount,
		MarkerWidth:      sp.Width,
		Units:            sp.Units,
		Markers:          make([]Definition, 0, sp.Markers),
	}
	for i := 0; i < sp.Markers; i++ {
		def, err := GenerateMarker(rng, i, sp.Params)
		if err != nil {
			return nil, err
		}
		set.Markers = append(set.Markers, def)
	}
	return set, nil
}

// VerifyRegeneration regenerates set from its seed and reports the first
// marker whose dots differ by more than tol. Sets edited by hand or made with
// different parameters fail this check.
func VerifyRegeneration(set *Set, tol float64) error {
	regen, err := GenerateSet(SetParams{
		Params: Params{
			DotCount:    set.MaxDotsPerMarker,
			Width:       set.MarkerWidth,
			DotDiameter: set.DotDiameter,
		},
		Seed:    set.Seed,
		Markers: len(set.Markers),
		Units:   set.Units,
	})
	if err != nil {
		return fmt.Errorf("failed to regenerate set: %w", err)
	}

	for i, m := range set.Markers {
		want := regen.Markers[i]
		if len(m.Dots) != len(want.Dots) {
			return fmt.Errorf("marker %d has %d dots, regeneration gives %d", i, len(m.Dots), len(want.Dots))
		}
		for j := range m.Dots {
			if m.Dots[j].Distance(want.Dots[j]) > tol {
				return fmt.Errorf("marker %d dot %d at (%g,%g), regeneration gives (%g,%g)",
					i, j, m.Dots[j].X, m.Dots[j].Y, want.Dots[j].X, want.Dots[j].Y)
			}
		}
	}
	return nil
}
