package llah

import (
	"fmt"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/marker"
	"github.com/ironsheep/dotmarker/internal/monitoring"
)

// Entry is one registered descriptor: the marker point it describes and its
// quantized invariants.
type Entry struct {
	MarkerID   int     `json:"marker_id"`
	PointIndex int     `json:"point_index"`
	Levels     []uint8 `json:"levels"`
}

// Table maps hash keys to registered entries. It is immutable after
// Register and safe for concurrent readers.
type Table struct {
	encoder   *Encoder
	quantizer *Quantizer
	buckets   map[uint32][]Entry
	entries   int
	markers   int
}

// Register encodes every point of every marker in set against its own
// marker and builds the lookup table. The quantizer is learned from the
// invariants of all markers at all cyclic starts.
//
// Every marker needs more than N dots, otherwise its points have no full
// neighbourhood and the call fails with config.ErrConfiguration.
func Register(set *marker.Set, cfg config.LLAH) (*Table, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: nil marker set", config.ErrConfiguration)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	enc, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}

	arrangements := make([][]Arrangement, len(set.Markers))
	var samples []float64
	for mi, m := range set.Markers {
		if len(m.Dots) <= cfg.NumberOfNeighborsN {
			return nil, fmt.Errorf("%w: marker %d has %d dots, registration needs more than %d",
				config.ErrConfiguration, m.ID, len(m.Dots), cfg.NumberOfNeighborsN)
		}
		if err := validatePointSet(m.Dots); err != nil {
			return nil, fmt.Errorf("marker %d: %w", m.ID, err)
		}

		ps := NewPointSet(m.Dots)
		for ref := range m.Dots {
			arr := enc.Arrangements(ps, ref)
			for _, a := range arr {
				for _, shift := range a.Shifts {
					samples = append(samples, shift...)
				}
			}
			arrangements[mi] = append(arrangements[mi], arr...)
		}
	}

	q, err := LearnQuantizer(samples, cfg.QuantizationK, cfg.HashTableSize)
	if err != nil {
		return nil, fmt.Errorf("failed to learn quantization: %w", err)
	}

	t := &Table{
		encoder:   enc,
		quantizer: q,
		buckets:   make(map[uint32][]Entry),
		markers:   len(set.Markers),
	}
	for mi, arr := range arrangements {
		id := set.Markers[mi].ID
		for _, a := range arr {
			d := q.Describe(a)
			t.buckets[d.Key] = append(t.buckets[d.Key], Entry{
				MarkerID:   id,
				PointIndex: a.Reference,
				Levels:     d.Levels,
			})
			t.entries++
		}
	}

	monitoring.Debugf("llah: registered %d markers, %d entries in %d buckets from %d invariant samples",
		t.markers, t.entries, len(t.buckets), len(samples))
	return t, nil
}

// Config returns the LLAH configuration of the table.
func (t *Table) Config() config.LLAH {
	return t.encoder.Config()
}

// Quantizer returns the learned quantizer.
func (t *Table) Quantizer() *Quantizer {
	return t.quantizer
}

// Markers returns the number of registered markers.
func (t *Table) Markers() int {
	return t.markers
}

// Len returns the number of registered entries.
func (t *Table) Len() int {
	return t.entries
}

// Buckets returns the number of distinct keys.
func (t *Table) Buckets() int {
	return len(t.buckets)
}

// Encode returns the descriptors of point ref within ps, using the table's
// configuration and quantizer.
func (t *Table) Encode(ps *PointSet, ref int) []Descriptor {
	arr := t.encoder.Arrangements(ps, ref)
	if len(arr) == 0 {
		return nil
	}
	out := make([]Descriptor, len(arr))
	for i, a := range arr {
		out[i] = t.quantizer.Describe(a)
	}
	return out
}

// Lookup returns the entries sharing d's key and levels.
func (t *Table) Lookup(d Descriptor) []Entry {
	bucket := t.buckets[d.Key]
	if len(bucket) == 0 {
		return nil
	}
	matched := bucket[:0:0]
	for _, e := range bucket {
		if equalLevels(e.Levels, d.Levels) {
			matched = append(matched, e)
		}
	}
	return matched
}
