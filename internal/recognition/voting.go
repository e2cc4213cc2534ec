package recognition

import (
	"sort"

	"github.com/ironsheep/dotmarker/internal/geometry"
)

type voteKey struct {
	observation int
	marker      int
	point       int
}

// VoteBox tallies table hits for one frame.
type VoteBox struct {
	counts map[voteKey]int
	totals map[int]int
}

// NewVoteBox returns an empty tally.
func NewVoteBox() *VoteBox {
	return &VoteBox{
		counts: make(map[voteKey]int),
		totals: make(map[int]int),
	}
}

// Add records one vote pairing an observation with a marker point.
func (b *VoteBox) Add(observation, markerID, point int) {
	b.counts[voteKey{observation, markerID, point}]++
	b.totals[markerID]++
}

// Votes returns the votes for one pairing.
func (b *VoteBox) Votes(observation, markerID, point int) int {
	return b.counts[voteKey{observation, markerID, point}]
}

// Total returns all votes cast for a marker.
func (b *VoteBox) Total(markerID int) int {
	return b.totals[markerID]
}

// Len returns the number of distinct pairings voted for.
func (b *VoteBox) Len() int {
	return len(b.counts)
}

// Correspondence pairs an observed dot with a marker dot.
type Correspondence struct {
	Observation int              `json:"observation"`
	Point       int              `json:"point"`
	Votes       int              `json:"votes"`
	Image       geometry.Point2D `json:"image"`
	Marker      geometry.Point2D `json:"marker"`
}

// Candidate is a marker with enough support to be verified.
type Candidate struct {
	MarkerID        int              `json:"marker_id"`
	Votes           int              `json:"votes"`
	Correspondences []Correspondence `json:"correspondences"`

	// Pairings holds every voted pairing of the marker, most voted first.
	// Verification draws on it to repair outliers.
	Pairings []Correspondence `json:"-"`
}

// Assemble turns votes into candidates.
//
// A marker qualifies when its total exceeds minimumVotes. Its pairings are
// then accepted greedily from the most voted down, skipping any pairing
// whose observation or marker point is already taken, so every observation
// and every marker point appears at most once. Equal vote counts go to the
// smaller observation index, then the smaller point index. Every voted
// pairing is kept in Pairings as well.
//
// Candidates are ordered by total votes, highest first, then by marker ID.
func Assemble(box *VoteBox, minimumVotes int) []Candidate {
	pairs := make(map[int][]Correspondence)
	for k, n := range box.counts {
		if box.totals[k.marker] <= minimumVotes {
			continue
		}
		pairs[k.marker] = append(pairs[k.marker], Correspondence{
			Observation: k.observation,
			Point:       k.point,
			Votes:       n,
		})
	}

	candidates := make([]Candidate, 0, len(pairs))
	for id, list := range pairs {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Votes != list[j].Votes {
				return list[i].Votes > list[j].Votes
			}
			if list[i].Observation != list[j].Observation {
				return list[i].Observation < list[j].Observation
			}
			return list[i].Point < list[j].Point
		})

		usedObs := make(map[int]bool)
		usedPoint := make(map[int]bool)
		accepted := make([]Correspondence, 0, len(list))
		for _, c := range list {
			if usedObs[c.Observation] || usedPoint[c.Point] {
				continue
			}
			usedObs[c.Observation] = true
			usedPoint[c.Point] = true
			accepted = append(accepted, c)
		}

		candidates = append(candidates, Candidate{
			MarkerID:        id,
			Votes:           box.totals[id],
			Correspondences: accepted,
			Pairings:        list,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Votes != candidates[j].Votes {
			return candidates[i].Votes > candidates[j].Votes
		}
		return candidates[i].MarkerID < candidates[j].MarkerID
	})
	return candidates
}
