package llah

import (
	"math"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/geometry"
)

// maxInvariant bounds invariant magnitudes. Near-collinear triples produce
// arbitrarily large ratios which carry no useful information.
const maxInvariant = 1e6

// invariantFunc computes one invariant from an ordered point tuple.
type invariantFunc func(p []geometry.Point2D) float64

func invariantFor(t config.HashType) invariantFunc {
	if t == config.HashCrossRatio {
		return crossRatio
	}
	return affineRatio
}

// affineRatio returns S(a,c,d)/S(a,b,c).
func affineRatio(p []geometry.Point2D) float64 {
	num := geometry.TriangleArea(p[0], p[2], p[3])
	den := geometry.TriangleArea(p[0], p[1], p[2])
	return safeRatio(num, den)
}

// crossRatio returns S(a,b,c)·S(a,d,e) / (S(a,b,d)·S(a,c,e)).
func crossRatio(p []geometry.Point2D) float64 {
	num := geometry.TriangleArea(p[0], p[1], p[2]) * geometry.TriangleArea(p[0], p[3], p[4])
	den := geometry.TriangleArea(p[0], p[1], p[3]) * geometry.TriangleArea(p[0], p[2], p[4])
	return safeRatio(num, den)
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		switch {
		case num > 0:
			return maxInvariant
		case num < 0:
			return -maxInvariant
		}
		return 0
	}
	r := num / den
	if r > maxInvariant {
		return maxInvariant
	}
	if r < -maxInvariant {
		return -maxInvariant
	}
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// combinations returns every k-subset of {0..n-1} in lexicographic order.
func combinations(n, k int) [][]int {
	if k < 0 || k > n {
		return nil
	}
	var out [][]int
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		c := make([]int, k)
		copy(c, idx)
		out = append(out, c)

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
