package docmap

import (
	"fmt"

	"go.uber.org/zap"
)

// Open returns the store for driver ("json" or "sqlite").
func Open(driver, path string, logger *zap.Logger) (Store, error) {
	switch driver {
	case "json", "":
		return NewJSONStore(path, logger), nil
	case "sqlite":
		s, err := NewSQLiteStore(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown document map driver %q", driver)
	}
}
