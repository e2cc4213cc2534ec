package marker

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/dotmarker/internal/geometry"
)

// yamlDocument is the on-disk record of a set. It carries everything needed
// to regenerate or re-register the set.
type yamlDocument struct {
	RandomSeed       uint64       `yaml:"random_seed"`
	DotDiameter      float64      `yaml:"dot_diameter"`
	MaxDotsPerMarker int          `yaml:"max_dots_per_marker"`
	MarkerWidth      float64      `yaml:"marker_width"`
	Units            string       `yaml:"units"`
	Markers          []yamlMarker `yaml:"markers"`
}

type yamlMarker struct {
	ID   int         `yaml:"id"`
	Dots [][]float64 `yaml:"dots,flow"`
}

// EncodeYAML writes set to w.
func EncodeYAML(w io.Writer, set *Set) error {
	doc := yamlDocument{
		RandomSeed:       set.Seed,
		DotDiameter:      set.DotDiameter,
		MaxDotsPerMarker: set.MaxDotsPerMarker,
		MarkerWidth:      set.MarkerWidth,
		Units:            set.Units,
		Markers:          make([]yamlMarker, len(set.Markers)),
	}
	for i, m := range set.Markers {
		dots := make([][]float64, len(m.Dots))
		for j, p := range m.Dots {
			dots[j] = []float64{p.X, p.Y}
		}
		doc.Markers[i] = yamlMarker{ID: m.ID, Dots: dots}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode marker set: %w", err)
	}
	return enc.Close()
}

// DecodeYAML reads a set written by EncodeYAML and validates it.
func DecodeYAML(r io.Reader) (*Set, error) {
	var doc yamlDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode marker set: %w", err)
	}

	set := &Set{
		Seed:             doc.RandomSeed,
		DotDiameter:      doc.DotDiameter,
		MaxDotsPerMarker: doc.MaxDotsPerMarker,
		MarkerWidth:      doc.MarkerWidth,
		Units:            doc.Units,
		Markers:          make([]Definition, len(doc.Markers)),
	}
	for i, m := range doc.Markers {
		dots := make([]geometry.Point2D, len(m.Dots))
		for j, xy := range m.Dots {
			if len(xy) != 2 {
				return nil, fmt.Errorf("marker %d dot %d: expected [x, y], got %d values", m.ID, j, len(xy))
			}
			dots[j] = geometry.Point2D{X: xy[0], Y: xy[1]}
		}
		set.Markers[i] = Definition{
			ID:          m.ID,
			Width:       doc.MarkerWidth,
			DotDiameter: doc.DotDiameter,
			Dots:        dots,
		}
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// SaveYAML writes set to the file at path.
func SaveYAML(path string, set *Set) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodeYAML(f, set); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadYAML reads a set from the file at path.
func LoadYAML(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open marker set: %w", err)
	}
	defer f.Close()
	return DecodeYAML(f)
}
