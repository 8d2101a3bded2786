package store

import (
	"fmt"

	"pharmadoc/config"
	"pharmadoc/internal/port"
)

// Open returns the index store for the configured format at path.
func Open(cfg *config.Config, path string) (port.IndexStore, error) {
	switch cfg.Index.Format {
	case "", "bolt":
		return NewBoltStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown index format %q", cfg.Index.Format)
	}
}
