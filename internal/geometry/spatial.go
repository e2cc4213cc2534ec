package geometry

import (
	"math"
	"sort"
)

// SpatialIndex accelerates k-nearest-neighbour queries over a fixed point set
// by bucketing points into square grid cells.
type SpatialIndex struct {
	points   []Point2D
	cellSize float64
	minX     float64
	minY     float64
	cols     int
	rows     int
	cells    [][]int
}

// NewSpatialIndex builds an index over points. A non-positive cellSize picks
// a size that puts roughly two points in each cell.
func NewSpatialIndex(points []Point2D, cellSize float64) *SpatialIndex {
	si := &SpatialIndex{points: points}
	if len(points) == 0 {
		return si
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	if cellSize <= 0 {
		n := float64(len(points))
		area := (maxX - minX) * (maxY - minY)
		cellSize = math.Sqrt(2 * area / n)
		// Nearly collinear sets have almost no area; keep the grid within
		// about n cells.
		cellSize = math.Max(cellSize, math.Max(maxX-minX, maxY-minY)/math.Sqrt(n))
		if cellSize <= 0 || math.IsNaN(cellSize) {
			cellSize = 1
		}
	}

	si.cellSize = cellSize
	si.minX = minX
	si.minY = minY
	si.cols = int((maxX-minX)/cellSize) + 1
	si.rows = int((maxY-minY)/cellSize) + 1
	si.cells = make([][]int, si.cols*si.rows)
	for i, p := range points {
		cx, cy := si.cellOf(p)
		si.cells[cy*si.cols+cx] = append(si.cells[cy*si.cols+cx], i)
	}
	return si
}

// Len returns the number of indexed points.
func (si *SpatialIndex) Len() int {
	return len(si.points)
}

func (si *SpatialIndex) cellOf(p Point2D) (int, int) {
	cx := clampInt(int((p.X-si.minX)/si.cellSize), 0, si.cols-1)
	cy := clampInt(int((p.Y-si.minY)/si.cellSize), 0, si.rows-1)
	return cx, cy
}

type neighbour struct {
	index int
	dist2 float64
}

// Nearest returns the indices of the k points closest to query, nearest
// first, skipping the point at index exclude (pass -1 to keep all). Equal
// distances are ordered by index. Fewer than k indices are returned when the
// set is too small.
func (si *SpatialIndex) Nearest(query Point2D, k int, exclude int) []int {
	if k <= 0 || len(si.points) == 0 {
		return nil
	}

	cx, cy := si.cellOf(query)
	found := make([]neighbour, 0, 2*k)
	less := func(i, j int) bool {
		if found[i].dist2 != found[j].dist2 {
			return found[i].dist2 < found[j].dist2
		}
		return found[i].index < found[j].index
	}

	maxRing := si.cols
	if si.rows > maxRing {
		maxRing = si.rows
	}
	for r := 0; r <= maxRing; r++ {
		for gy := cy - r; gy <= cy+r; gy++ {
			if gy < 0 || gy >= si.rows {
				continue
			}
			for gx := cx - r; gx <= cx+r; gx++ {
				if gx < 0 || gx >= si.cols {
					continue
				}
				// Only the ring's perimeter; the interior was visited already.
				if gx != cx-r && gx != cx+r && gy != cy-r && gy != cy+r {
					continue
				}
				for _, idx := range si.cells[gy*si.cols+gx] {
					if idx == exclude {
						continue
					}
					found = append(found, neighbour{index: idx, dist2: query.Distance2(si.points[idx])})
				}
			}
		}

		if len(found) >= k {
			sort.Slice(found, less)
			// Anything in ring r+1 is at least r cells away.
			bound := float64(r) * si.cellSize
			if found[k-1].dist2 <= bound*bound {
				break
			}
		}
	}

	sort.Slice(found, less)
	if len(found) > k {
		found = found[:k]
	}
	out := make([]int, len(found))
	for i, n := range found {
		out[i] = n.index
	}
	return out
}
