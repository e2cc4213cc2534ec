package llah

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/dotmarker/internal/config"
)

// distinctTolerance is the relative gap below which two invariant samples
// are treated as the same value when placing level boundaries.
const distinctTolerance = 1e-9

// Quantizer maps invariant values to discrete levels and level sequences to
// hash keys.
type Quantizer struct {
	// Edges holds the K-1 ascending level boundaries. A value v has level
	// i when Edges[i-1] < v <= Edges[i].
	Edges []float64 `json:"edges"`

	// Levels is K, the number of levels.
	Levels int `json:"levels"`

	// TableSize bounds the keys: every key is in [0, TableSize).
	TableSize uint64 `json:"table_size"`
}

// LearnQuantizer derives K-1 boundaries splitting samples into K levels of
// roughly equal population. samples is sorted in place.
func LearnQuantizer(samples []float64, k int, tableSize uint64) (*Quantizer, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no invariant samples to learn quantization from", config.ErrConfiguration)
	}
	if k < 2 || k > math.MaxUint8 {
		return nil, fmt.Errorf("%w: quantization levels must be in [2, 255], got %d", config.ErrConfiguration, k)
	}
	if tableSize == 0 || tableSize > config.MaxHashTableSize {
		return nil, fmt.Errorf("%w: hash table size %d out of range", config.ErrConfiguration, tableSize)
	}

	sort.Float64s(samples)
	n := len(samples)
	edges := make([]float64, 0, k-1)

	for i := 1; i < k; i++ {
		pos := i * n / k
		if pos < 1 {
			pos = 1
		}
		lo := samples[pos-1]
		j := pos
		for j < n && !distinct(lo, samples[j]) {
			j++
		}
		if j == n {
			// Everything above is one value; the remaining levels stay empty.
			edges = append(edges, math.Inf(1))
			continue
		}
		edge := lo + (samples[j]-lo)/2
		if len(edges) > 0 && edge < edges[len(edges)-1] {
			edge = edges[len(edges)-1]
		}
		edges = append(edges, edge)
	}

	return &Quantizer{Edges: edges, Levels: k, TableSize: tableSize}, nil
}

func distinct(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return b-a > distinctTolerance*scale
}

// Level returns the level of v in [0, Levels).
func (q *Quantizer) Level(v float64) uint8 {
	return uint8(sort.SearchFloat64s(q.Edges, v))
}

// Quantize maps every invariant to its level.
func (q *Quantizer) Quantize(invariants []float64) []uint8 {
	levels := make([]uint8, len(invariants))
	for i, v := range invariants {
		levels[i] = q.Level(v)
	}
	return levels
}

// Key combines levels into a hash key: Σ levels[i]·K^i mod TableSize,
// evaluated by Horner's rule from the last level down.
func (q *Quantizer) Key(levels []uint8) uint32 {
	k := uint64(q.Levels)
	var key uint64
	for i := len(levels) - 1; i >= 0; i-- {
		key = (key*k + uint64(levels[i])) % q.TableSize
	}
	return uint32(key)
}
