package storage

import (
	"errors"
	"strings"
	"time"
)

// Config selects and configures a driver.
//
// Driver values:
//   - "file" (default): one JSON document at Path
//   - "sqlite": SQLite database file at Path
//   - "memory": nothing persisted
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Open initializes the configured store.
func Open(cfg Config) (KV, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file", "json":
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, errors.New("storage.path is required for file driver")
		}
		fs := NewFileStore(cfg.Path)
		if err := fs.Load(); err != nil {
			return nil, err
		}
		return fs, nil
	case "sqlite", "sqlite3":
		return OpenSQLite(cfg.Path, cfg.BusyTimeout)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
