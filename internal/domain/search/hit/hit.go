package hit

import (
	"errors"
	"math"
)

var (
	errEmptyID   = errors.New("hit id is empty")
	errNonFinite = errors.New("hit score is not finite")
)

// Hit is one ranked (id, score) pair recovered from a search response.
type Hit struct {
	id    string
	score float64
}

// New creates a hit. The id must be non-empty and the score finite.
func New(id string, score float64) (Hit, error) {
	if id == "" {
		return Hit{}, errEmptyID
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return Hit{}, errNonFinite
	}
	return Hit{id: id, score: score}, nil
}

// ID returns the document identifier in canonical string form.
func (h Hit) ID() string { return h.id }

// Score returns the backend's score for this hit.
func (h Hit) Score() float64 { return h.score }
