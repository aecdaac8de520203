package docmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// JSONStore keeps the map in a single JSON object file, {"<id>": "<text>", ...}.
type JSONStore struct {
	path   string
	logger *zap.Logger
}

// NewJSONStore creates a store backed by path.
func NewJSONStore(path string, logger *zap.Logger) *JSONStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONStore{path: path, logger: logger}
}

// Load reads the file. A missing file yields an empty map.
func (s *JSONStore) Load(_ context.Context) (*Map, error) {
	data, err := os.ReadFile(filepath.Clean(s.path))
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("document map not found, serving placeholders", zap.String("path", s.path))
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document map %s: %w", s.path, err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse document map %s: %w", s.path, err)
	}

	s.logger.Info("document map loaded", zap.String("path", s.path), zap.Int("entries", len(entries)))
	return &Map{entries: entries}, nil
}

// Replace writes entries to a temp file and renames it over the old map.
func (s *JSONStore) Replace(_ context.Context, entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode document map: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document map directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".doc_map-*.json")
	if err != nil {
		return fmt.Errorf("create temp document map: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write document map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close document map: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace document map: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }
