// Package marker defines random-dot fiducial markers, generates them from a
// seeded random source and persists marker sets as YAML.
//
// A marker is a square of side Width containing dots at random positions.
// Markers in one Set share their generation parameters and are produced by a
// single random stream, so the whole set can be regenerated from its seed.
package marker

import (
	"fmt"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/geometry"
)

// Definition is one marker: dot centers in marker-local coordinates.
// Definitions are immutable once generated.
type Definition struct {
	// ID is the marker's index inside its set.
	ID int `json:"id"`

	// Width is the side length of the square marker in document units.
	Width float64 `json:"width"`

	// DotDiameter is the printed dot diameter in document units.
	DotDiameter float64 `json:"dot_diameter"`

	// Dots holds the dot centers, in generation order, inside [0,Width)².
	Dots []geometry.Point2D `json:"dots"`
}

// Corners returns the marker's corners in marker-local coordinates,
// clockwise from the origin in image orientation.
func (d Definition) Corners() [4]geometry.Point2D {
	return [4]geometry.Point2D{
		{X: 0, Y: 0},
		{X: d.Width, Y: 0},
		{X: d.Width, Y: d.Width},
		{X: 0, Y: d.Width},
	}
}

// Center returns the middle of the marker square.
func (d Definition) Center() geometry.Point2D {
	return geometry.Point2D{X: d.Width / 2, Y: d.Width / 2}
}

// Set is a collection of markers sharing generation parameters.
type Set struct {
	Seed             uint64       `json:"random_seed"`
	DotDiameter      float64      `json:"dot_diameter"`
	MaxDotsPerMarker int          `json:"max_dots_per_marker"`
	MarkerWidth      float64      `json:"marker_width"`
	Units            string       `json:"units"`
	Markers          []Definition `json:"markers"`
}

// Marker returns the definition with the given ID.
func (s *Set) Marker(id int) (Definition, bool) {
	if id < 0 || id >= len(s.Markers) {
		return Definition{}, false
	}
	return s.Markers[id], true
}

// Validate checks that the set is usable for registration: at least one
// marker, consistent widths and every dot inside its marker.
func (s *Set) Validate() error {
	if len(s.Markers) == 0 {
		return fmt.Errorf("%w: marker set is empty", config.ErrConfiguration)
	}
	if s.MarkerWidth <= 0 {
		return fmt.Errorf("%w: marker width must be positive, got %g", config.ErrConfiguration, s.MarkerWidth)
	}
	for i, m := range s.Markers {
		if m.ID != i {
			return fmt.Errorf("%w: marker at position %d has id %d", config.ErrConfiguration, i, m.ID)
		}
		if m.Width != s.MarkerWidth {
			return fmt.Errorf("%w: marker %d width %g differs from set width %g",
				config.ErrConfiguration, i, m.Width, s.MarkerWidth)
		}
		for j, p := range m.Dots {
			if p.X < 0 || p.Y < 0 || p.X >= m.Width || p.Y >= m.Width {
				return fmt.Errorf("%w: marker %d dot %d at (%g,%g) outside [0,%g)",
					config.ErrConfiguration, i, j, p.X, p.Y, m.Width)
			}
		}
	}
	return nil
}
