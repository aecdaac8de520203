package docmap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the map in a doc_map table.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// NewSQLiteStore opens or creates the database at path and initializes the schema.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS doc_map (
		id   TEXT PRIMARY KEY,
		text TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

// Load reads every row. An empty table yields an empty map.
func (s *SQLiteStore) Load(ctx context.Context) (*Map, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text FROM doc_map`)
	if err != nil {
		return nil, fmt.Errorf("query document map: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make(map[string]string)
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("scan document map: %w", err)
		}
		entries[id] = text
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document map: %w", err)
	}

	if len(entries) == 0 {
		s.logger.Warn("document map is empty, serving placeholders", zap.String("path", s.path))
	} else {
		s.logger.Info("document map loaded", zap.String("path", s.path), zap.Int("entries", len(entries)))
	}
	return &Map{entries: entries}, nil
}

// Replace swaps the table contents in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, entries map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_map`); err != nil {
		return fmt.Errorf("clear document map: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO doc_map (id, text) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for id, text := range entries {
		if _, err := stmt.ExecContext(ctx, id, text); err != nil {
			return fmt.Errorf("insert %q: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close document map database: %w", err)
	}
	return nil
}
