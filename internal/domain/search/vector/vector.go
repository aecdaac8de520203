// Package vector recovers an embedding vector from a stored record of unknown layout.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/vecgate/internal/domain"
	"github.com/kailas-cloud/vecgate/internal/wire"
)

const (
	// RecordSlot is the position of the vector in the backend's fixed-width record layout.
	RecordSlot = 4
	// MinScanLen is the length a bare sequence must exceed to be taken for a vector by the scanning strategies.
	MinScanLen = 32
)

// Strategy recovers a vector from one record layout.
type Strategy struct {
	Name   string
	Vector func(v any) ([]float32, bool)
}

// Strategies is the precedence order. Each must yield a non-empty, all-numeric vector to win.
var Strategies = []Strategy{
	{Name: "vector-field", Vector: vectorField},
	{Name: "vector-field-bytes", Vector: vectorFieldBytes},
	{Name: "fixed-record-slot", Vector: fixedRecordSlot},
	{Name: "id-vector-pair", Vector: idVectorPair},
	{Name: "nested-scan", Vector: nestedScan},
	{Name: "flat-sequence", Vector: flatSequence},
}

// Extract returns the vector held by v and the name of the strategy that found it.
func Extract(v any) ([]float32, string, error) {
	for _, s := range Strategies {
		if vec, ok := s.Vector(v); ok {
			return vec, s.Name, nil
		}
	}
	return nil, "", fmt.Errorf("%w: record of type %s", domain.ErrVectorNotRecoverable, describe(v))
}

func vectorField(v any) ([]float32, bool) {
	m, ok := wire.Mapping(v)
	if !ok {
		return nil, false
	}
	return numeric(m["vector"])
}

// vectorFieldBytes reads {vector: <bin>} as little-endian float32.
func vectorFieldBytes(v any) ([]float32, bool) {
	m, ok := wire.Mapping(v)
	if !ok {
		return nil, false
	}
	b, ok := m["vector"].([]byte)
	if !ok || len(b) == 0 || len(b)%4 != 0 {
		return nil, false
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, true
}

func fixedRecordSlot(v any) ([]float32, bool) {
	seq, ok := wire.Sequence(v)
	if !ok || len(seq) <= RecordSlot {
		return nil, false
	}
	return numeric(seq[RecordSlot])
}

func idVectorPair(v any) ([]float32, bool) {
	seq, ok := wire.Sequence(v)
	if !ok || len(seq) < 2 {
		return nil, false
	}
	return numeric(seq[1])
}

func nestedScan(v any) ([]float32, bool) {
	seq, ok := wire.Sequence(v)
	if !ok {
		return nil, false
	}
	for _, elem := range seq {
		inner, ok := wire.Sequence(elem)
		if !ok || len(inner) <= MinScanLen {
			continue
		}
		if vec, ok := numeric(inner); ok {
			return vec, true
		}
	}
	return nil, false
}

func flatSequence(v any) ([]float32, bool) {
	seq, ok := wire.Sequence(v)
	if !ok || len(seq) <= MinScanLen {
		return nil, false
	}
	return numeric(seq)
}

// numeric converts a non-empty sequence of numbers.
func numeric(v any) ([]float32, bool) {
	seq, ok := wire.Sequence(v)
	if !ok || len(seq) == 0 {
		return nil, false
	}
	vec := make([]float32, len(seq))
	for i, elem := range seq {
		f, ok := wire.Float(elem)
		if !ok {
			return nil, false
		}
		vec[i] = float32(f)
	}
	return vec, true
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case []any:
		return fmt.Sprintf("sequence(len=%d)", len(x))
	case map[string]any:
		return fmt.Sprintf("mapping(keys=%d)", len(x))
	default:
		return fmt.Sprintf("%T", v)
	}
}
