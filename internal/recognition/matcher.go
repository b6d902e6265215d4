// Package recognition implements face matching over fixed-length
// embedding vectors. Matching is pure computation: a linear scan of a
// read-only gallery snapshot, so concurrent calls never interfere.
package recognition

import (
	"errors"
	"math"
)

// ErrInvalidQuery is returned for a query embedding that is empty,
// non-finite, or of a different dimensionality than the gallery.
var ErrInvalidQuery = errors.New("invalid query embedding")

// Candidate is one gallery entry considered during matching.
type Candidate struct {
	IdentityID  string
	DisplayName string
	Embedding   []float32
}

// Match is an accepted best-match for a single query embedding.
// A rejected query produces no Match at all, not a zero-confidence one.
type Match struct {
	IdentityID  string  `json:"identity_id"`
	DisplayName string  `json:"display_name"`
	Distance    float64 `json:"distance"`
	Confidence  float64 `json:"confidence"`
}

// Matcher scores query embeddings against a gallery snapshot.
// Threshold is the squared-distance acceptance bound; it comes from
// configuration, never hard-coded here.
type Matcher struct {
	Threshold float64
}

// SquaredDistance computes the squared euclidean distance between two
// vectors of equal length. No square root: the acceptance threshold is
// applied to the squared metric directly.
func SquaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// Confidence derives a [0,1] score from an accepted distance: 1.0 at
// distance zero, falling linearly toward 0 as distance approaches the
// threshold. Not a probability.
func Confidence(distance, threshold float64) float64 {
	return math.Max(0, 1-distance/threshold)
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v []float32) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}

// Match finds the best gallery candidate for a single query embedding.
// The candidate with the strictly smallest distance wins; an exact tie
// goes to the first candidate in snapshot order. The winner is accepted
// only when its distance is strictly below the threshold; otherwise nil
// is returned. An empty snapshot yields nil with no error.
func (m Matcher) Match(query []float32, snapshot []Candidate) (*Match, error) {
	if len(query) == 0 || !IsFinite(query) {
		return nil, ErrInvalidQuery
	}
	if len(snapshot) == 0 {
		return nil, nil
	}
	if len(query) != len(snapshot[0].Embedding) {
		return nil, ErrInvalidQuery
	}

	best := -1
	bestDistance := math.Inf(1)
	for i := range snapshot {
		d := SquaredDistance(query, snapshot[i].Embedding)
		if d < bestDistance {
			bestDistance = d
			best = i
		}
	}

	if best < 0 || bestDistance >= m.Threshold {
		return nil, nil
	}

	return &Match{
		IdentityID:  snapshot[best].IdentityID,
		DisplayName: snapshot[best].DisplayName,
		Distance:    bestDistance,
		Confidence:  Confidence(bestDistance, m.Threshold),
	}, nil
}

// MatchAll matches each query embedding independently against the same
// snapshot. One frame may contain several faces; the same identity can
// legitimately win more than one query since no cross-query
// deduplication is performed. Results are positional: a nil entry means
// that query produced no match.
func (m Matcher) MatchAll(queries [][]float32, snapshot []Candidate) ([]*Match, error) {
	results := make([]*Match, len(queries))
	for i, q := range queries {
		match, err := m.Match(q, snapshot)
		if err != nil {
			return nil, err
		}
		results[i] = match
	}
	return results, nil
}
