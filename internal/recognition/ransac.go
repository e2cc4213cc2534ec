package recognition

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/geometry"
	"github.com/ironsheep/dotmarker/internal/marker"
)

// ErrInsufficientConsensus reports a candidate that RANSAC could not
// confirm. It marks a normal non-detection, not a failure.
var ErrInsufficientConsensus = errors.New("insufficient consensus")

// minimalSample is the number of correspondences that determine a
// homography.
const minimalSample = 4

// Detection is a verified marker in one frame.
type Detection struct {
	MarkerID int `json:"marker_id"`

	// Homography maps marker-local coordinates to image pixels.
	Homography geometry.Homography `json:"homography"`

	// Inliers are the correspondences within the inlier threshold of the
	// final model.
	Inliers []Correspondence `json:"inliers"`

	// Correspondences is the size of the candidate's correspondence set.
	Correspondences int `json:"correspondences"`

	// InlierFraction is len(Inliers) / Correspondences.
	InlierFraction float64 `json:"inlier_fraction"`

	// Votes is the candidate's vote total.
	Votes int `json:"votes"`

	// Corners are the marker corners in the image, in the order of
	// marker.Definition.Corners. Center is the projected marker center.
	Corners [4]geometry.Point2D `json:"corners"`
	Center  geometry.Point2D    `json:"center"`
}

// Verifier confirms candidates with a RANSAC homography fit.
type Verifier struct {
	cfg config.RANSAC
}

// NewVerifier validates cfg and returns a verifier.
func NewVerifier(cfg config.RANSAC) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{cfg: cfg}, nil
}

// Verify fits a homography to the candidate's correspondences and accepts
// it when the inlier fraction reaches MinimumInlierFraction. def, when not
// nil, supplies the marker outline for the detection's corners.
//
// Fewer than four correspondences are rejected at once without a fit. Each
// call draws from a fresh generator seeded with the configured seed, so the
// result depends only on the candidate.
func (v *Verifier) Verify(c Candidate, def *marker.Definition) (*Detection, error) {
	return v.VerifyWith(rand.New(rand.NewSource(v.cfg.Seed)), c, def)
}

// VerifyWith is Verify with a caller supplied random source.
func (v *Verifier) VerifyWith(rng *rand.Rand, c Candidate, def *marker.Definition) (*Detection, error) {
	n := len(c.Correspondences)
	if n < minimalSample {
		return nil, fmt.Errorf("%w: marker %d has %d correspondences, need %d",
			ErrInsufficientConsensus, c.MarkerID, n, minimalSample)
	}

	src := make([]geometry.Point2D, n)
	dst := make([]geometry.Point2D, n)
	for i, corr := range c.Correspondences {
		src[i] = corr.Marker
		dst[i] = corr.Image
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sampleSrc := make([]geometry.Point2D, minimalSample)
	sampleDst := make([]geometry.Point2D, minimalSample)

	var best geometry.Homography
	bestCount := 0
	for it := 0; it < v.cfg.Iterations && bestCount < n; it++ {
		// Partial Fisher-Yates: the first four entries become the sample.
		for k := 0; k < minimalSample; k++ {
			j := k + rng.Intn(n-k)
			order[k], order[j] = order[j], order[k]
			sampleSrc[k] = src[order[k]]
			sampleDst[k] = dst[order[k]]
		}

		h, err := geometry.FitHomography(sampleSrc, sampleDst)
		if err != nil || !h.IsFinite() {
			continue
		}
		if count := v.countInliers(h, src, dst); count > bestCount {
			best = h
			bestCount = count
		}
	}

	if bestCount < minimalSample {
		return nil, fmt.Errorf("%w: marker %d: no model with %d inliers in %d iterations",
			ErrInsufficientConsensus, c.MarkerID, minimalSample, v.cfg.Iterations)
	}

	best, inliers := v.refit(best, src, dst)

	// A descriptor leaves out its reference point, so neighbouring marker
	// points often tie in votes and the tie may have gone the wrong way.
	if corrs, ok := v.reassign(best, c.Correspondences, c.Pairings, inliers); ok {
		for i, corr := range corrs {
			src[i] = corr.Marker
			dst[i] = corr.Image
		}
		c.Correspondences = corrs
		best, inliers = v.refit(best, src, dst)
	}

	fraction := float64(len(inliers)) / float64(n)
	if fraction < v.cfg.MinimumInlierFraction {
		return nil, fmt.Errorf("%w: marker %d: %d of %d inliers (%.2f < %.2f)",
			ErrInsufficientConsensus, c.MarkerID, len(inliers), n, fraction, v.cfg.MinimumInlierFraction)
	}

	det := &Detection{
		MarkerID:        c.MarkerID,
		Homography:      best,
		Inliers:         make([]Correspondence, len(inliers)),
		Correspondences: n,
		InlierFraction:  fraction,
		Votes:           c.Votes,
	}
	for i, idx := range inliers {
		det.Inliers[i] = c.Correspondences[idx]
	}
	if def != nil {
		for i, p := range def.Corners() {
			det.Corners[i] = best.Apply(p)
		}
		det.Center = best.Apply(def.Center())
	}
	return det, nil
}

// refit fits h again on its consensus set and keeps the refit unless it
// explains fewer correspondences.
func (v *Verifier) refit(h geometry.Homography, src, dst []geometry.Point2D) (geometry.Homography, []int) {
	inliers := v.inliers(h, src, dst)
	inSrc := make([]geometry.Point2D, len(inliers))
	inDst := make([]geometry.Point2D, len(inliers))
	for i, idx := range inliers {
		inSrc[i] = src[idx]
		inDst[i] = dst[idx]
	}
	if refit, err := geometry.FitHomography(inSrc, inDst); err == nil && refit.IsFinite() {
		if refitInliers := v.inliers(refit, src, dst); len(refitInliers) >= len(inliers) {
			return refit, refitInliers
		}
	}
	return h, inliers
}

// reassign replaces each outlier with another pairing its observation voted
// for, when that pairing fits h and its marker point is not held by an
// inlier. Alternatives are tried most voted first. The correspondence count
// does not change. It reports whether anything was replaced.
func (v *Verifier) reassign(h geometry.Homography, corrs, pairings []Correspondence, inliers []int) ([]Correspondence, bool) {
	if len(pairings) == 0 || len(inliers) == len(corrs) {
		return corrs, false
	}

	isInlier := make([]bool, len(corrs))
	used := make(map[int]bool, len(corrs))
	for _, idx := range inliers {
		isInlier[idx] = true
		used[corrs[idx].Point] = true
	}
	alternatives := make(map[int][]Correspondence)
	for _, p := range pairings {
		alternatives[p.Observation] = append(alternatives[p.Observation], p)
	}

	out := make([]Correspondence, len(corrs))
	copy(out, corrs)
	changed := false
	for i, corr := range corrs {
		if isInlier[i] {
			continue
		}
		for _, alt := range alternatives[corr.Observation] {
			if used[alt.Point] || h.ReprojectionError(alt.Marker, alt.Image) >= v.cfg.InlierThreshold {
				continue
			}
			out[i] = alt
			used[alt.Point] = true
			changed = true
			break
		}
	}
	return out, changed
}

func (v *Verifier) countInliers(h geometry.Homography, src, dst []geometry.Point2D) int {
	count := 0
	for i := range src {
		if h.ReprojectionError(src[i], dst[i]) < v.cfg.InlierThreshold {
			count++
		}
	}
	return count
}

func (v *Verifier) inliers(h geometry.Homography, src, dst []geometry.Point2D) []int {
	out := make([]int, 0, len(src))
	for i := range src {
		if h.ReprojectionError(src[i], dst[i]) < v.cfg.InlierThreshold {
			out = append(out, i)
		}
	}
	return out
}
