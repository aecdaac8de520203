package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadChunks reads every *.txt file in dir, in name order, and splits each
// into trimmed non-empty paragraphs separated by blank lines.
func ReadChunks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var chunks []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		chunks = append(chunks, Split(string(data))...)
	}
	return chunks, nil
}

// Split breaks text into paragraphs on blank lines.
func Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
