// Package docmap holds the mapping from document ID to source text.
package docmap

import (
	"context"
	"maps"
)

// Store persists a document map. Replace swaps the whole map; entries are never deleted one by one.
type Store interface {
	Load(ctx context.Context) (*Map, error)
	Replace(ctx context.Context, entries map[string]string) error
	Close() error
}

// Map is an immutable ID → text mapping, built once and shared by all requests.
type Map struct {
	entries map[string]string
}

// New copies entries into a Map.
func New(entries map[string]string) *Map {
	return &Map{entries: maps.Clone(entries)}
}

// Empty returns a Map without entries.
func Empty() *Map { return &Map{} }

// Lookup returns the text for id.
func (m *Map) Lookup(id string) (string, bool) {
	if m == nil {
		return "", false
	}
	text, ok := m.entries[id]
	return text, ok
}

// Text returns the text for id, or a placeholder naming the id when it is unmapped.
func (m *Map) Text(id string) string {
	if text, ok := m.Lookup(id); ok {
		return text
	}
	return Placeholder(id)
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Placeholder is the text served for an id missing from the map.
func Placeholder(id string) string {
	return "Document ID: " + id
}
