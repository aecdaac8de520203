// Package normalize turns a decoded search response into ranked hits.
//
// Both the item-list location and the per-item layout are resolved by
// ordered lists of named strategies. The first strategy that accepts a
// value wins; items no strategy accepts are skipped and counted.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/vecgate/internal/domain/search/hit"
	"github.com/kailas-cloud/vecgate/internal/wire"
)

// ShapeNone is reported when no list strategy matched.
const ShapeNone = "none"

// ListStrategy locates the item list inside a response.
type ListStrategy struct {
	Name  string
	Items func(v any) ([]any, bool)
}

// ItemStrategy reads one item as a hit.
type ItemStrategy struct {
	Name string
	Hit  func(item any) (hit.Hit, bool)
}

// ListStrategies is the precedence order for locating the item list.
var ListStrategies = []ListStrategy{
	{Name: "results-field", Items: resultsField},
	{Name: "bare-sequence", Items: wire.Sequence},
}

// ItemStrategies is the precedence order for reading an item.
var ItemStrategies = []ItemStrategy{
	{Name: "mapping", Hit: mappingItem},
	{Name: "score-id-pair", Hit: scoreIDPair},
}

// Outcome is the result of normalizing one response.
type Outcome struct {
	Hits    []hit.Hit
	Shape   string
	Skipped int
}

// Recognized reports whether an item list was found at all.
func (o Outcome) Recognized() bool { return o.Shape != ShapeNone }

// Normalize extracts hits from v, preserving the backend's order.
func Normalize(v any) Outcome {
	items, shape := locate(v)
	if shape == ShapeNone {
		return Outcome{Shape: ShapeNone}
	}

	out := Outcome{Shape: shape, Hits: make([]hit.Hit, 0, len(items))}
	for _, item := range items {
		h, ok := readItem(item)
		if !ok {
			out.Skipped++
			continue
		}
		out.Hits = append(out.Hits, h)
	}
	return out
}

func locate(v any) ([]any, string) {
	for _, s := range ListStrategies {
		if items, ok := s.Items(v); ok {
			return items, s.Name
		}
	}
	return nil, ShapeNone
}

func readItem(item any) (hit.Hit, bool) {
	for _, s := range ItemStrategies {
		if h, ok := s.Hit(item); ok {
			return h, true
		}
	}
	return hit.Hit{}, false
}

func resultsField(v any) ([]any, bool) {
	m, ok := wire.Mapping(v)
	if !ok {
		return nil, false
	}
	return wire.Sequence(m["results"])
}

// mappingItem reads {id, distance}. A missing, non-numeric or non-finite distance scores 0.
func mappingItem(item any) (hit.Hit, bool) {
	m, ok := wire.Mapping(item)
	if !ok {
		return hit.Hit{}, false
	}
	id, ok := wire.IDString(m["id"])
	if !ok {
		return hit.Hit{}, false
	}
	score, ok := wire.Float(m["distance"])
	if !ok || math.IsNaN(score) || math.IsInf(score, 0) {
		score = 0
	}
	h, err := hit.New(id, score)
	return h, err == nil
}

// scoreIDPair reads [score, id, ...]. The backend puts the score first.
func scoreIDPair(item any) (hit.Hit, bool) {
	seq, ok := wire.Sequence(item)
	if !ok || len(seq) < 2 {
		return hit.Hit{}, false
	}
	score, ok := scoreValue(seq[0])
	if !ok {
		return hit.Hit{}, false
	}
	id, ok := wire.IDString(seq[1])
	if !ok {
		return hit.Hit{}, false
	}
	h, err := hit.New(id, score)
	return h, err == nil
}

func scoreValue(v any) (float64, bool) {
	if f, ok := wire.Float(v); ok {
		return f, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}
