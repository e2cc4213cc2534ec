package llah

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/geometry"
)

// PointSet is a set of points with a spatial index for neighbour queries.
// It is read-only once built.
type PointSet struct {
	Points []geometry.Point2D
	index  *geometry.SpatialIndex
}

// NewPointSet indexes points. The slice is retained, not copied.
func NewPointSet(points []geometry.Point2D) *PointSet {
	return &PointSet{
		Points: points,
		index:  geometry.NewSpatialIndex(points, 0),
	}
}

// Len returns the number of points.
func (ps *PointSet) Len() int {
	return len(ps.Points)
}

// Arrangement holds the raw invariants of one neighbour combination around
// a reference point, for each cyclic start of the combination.
type Arrangement struct {
	// Reference is the index of the described point.
	Reference int
	// Combination is the index of the combination among all M-of-N subsets.
	Combination int
	// Neighbors are the point indices of the combination in angular order.
	Neighbors []int
	// Shifts[s] holds the invariants computed with the combination rotated
	// to start at its s-th member.
	Shifts [][]float64
}

// Descriptor is the quantized form of an Arrangement at its canonical
// cyclic start.
type Descriptor struct {
	Reference   int       `json:"reference"`
	Combination int       `json:"combination"`
	Shift       int       `json:"shift"`
	Invariants  []float64 `json:"invariants"`
	Levels      []uint8   `json:"levels"`
	Key         uint32    `json:"key"`
}

// Encoder computes arrangements for a fixed LLAH configuration.
type Encoder struct {
	cfg          config.LLAH
	invariant    invariantFunc
	combinations [][]int // M-of-N, indices into the angular order
	tuples       [][]int // invariant tuples, indices into one combination
}

// NewEncoder validates cfg and precomputes the combination tables.
func NewEncoder(cfg config.LLAH) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{
		cfg:          cfg,
		invariant:    invariantFor(cfg.HashType),
		combinations: combinations(cfg.NumberOfNeighborsN, cfg.SizeOfCombinationM),
		tuples:       combinations(cfg.SizeOfCombinationM, cfg.InvariantPoints()),
	}, nil
}

// Config returns the configuration the encoder was built with.
func (e *Encoder) Config() config.LLAH {
	return e.cfg
}

// InvariantsPerDescriptor is the length of every descriptor's invariant
// list.
func (e *Encoder) InvariantsPerDescriptor() int {
	return len(e.tuples)
}

// Neighbors returns the N nearest neighbours of ref ordered by angle around
// it, or nil when the set holds fewer than N other points.
func (e *Encoder) Neighbors(ps *PointSet, ref int) []int {
	n := e.cfg.NumberOfNeighborsN
	if ref < 0 || ref >= ps.Len() || ps.Len() <= n {
		return nil
	}
	near := ps.index.Nearest(ps.Points[ref], n, ref)
	if len(near) < n {
		return nil
	}

	center := ps.Points[ref]
	angles := make(map[int]float64, n)
	for _, idx := range near {
		d := ps.Points[idx].Sub(center)
		angles[idx] = math.Atan2(d.Y, d.X)
	}
	sort.SliceStable(near, func(i, j int) bool {
		return angles[near[i]] < angles[near[j]]
	})
	return near
}

// Arrangements computes every combination of ref's neighbourhood. It returns
// nil when ref has too few neighbours to be described.
func (e *Encoder) Arrangements(ps *PointSet, ref int) []Arrangement {
	near := e.Neighbors(ps, ref)
	if near == nil {
		return nil
	}

	m := e.cfg.SizeOfCombinationM
	out := make([]Arrangement, 0, len(e.combinations))
	rotated := make([]geometry.Point2D, m)
	tuple := make([]geometry.Point2D, e.cfg.InvariantPoints())

	for ci, comb := range e.combinations {
		neighbors := make([]int, m)
		for i, c := range comb {
			neighbors[i] = near[c]
		}

		shifts := make([][]float64, m)
		for s := 0; s < m; s++ {
			for i := 0; i < m; i++ {
				rotated[i] = ps.Points[neighbors[(s+i)%m]]
			}
			values := make([]float64, len(e.tuples))
			for ti, t := range e.tuples {
				for i, idx := range t {
					tuple[i] = rotated[idx]
				}
				values[ti] = e.invariant(tuple)
			}
			shifts[s] = values
		}

		out = append(out, Arrangement{
			Reference:   ref,
			Combination: ci,
			Neighbors:   neighbors,
			Shifts:      shifts,
		})
	}
	return out
}

// Describe quantizes an arrangement at every cyclic start and keeps the
// start with the smallest key. Equal keys are resolved by comparing levels,
// then by the earlier start.
func (q *Quantizer) Describe(a Arrangement) Descriptor {
	best := Descriptor{Reference: a.Reference, Combination: a.Combination, Shift: -1}
	for s, values := range a.Shifts {
		levels := q.Quantize(values)
		key := q.Key(levels)
		if best.Shift < 0 || key < best.Key || (key == best.Key && lessLevels(levels, best.Levels)) {
			best.Shift = s
			best.Invariants = values
			best.Levels = levels
			best.Key = key
		}
	}
	return best
}

func lessLevels(a, b []uint8) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func equalLevels(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// validatePointSet reports whether every point is finite.
func validatePointSet(points []geometry.Point2D) error {
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: point %d is not finite", config.ErrConfiguration, i)
		}
	}
	return nil
}
