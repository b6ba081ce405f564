// Package hashstore keeps the list of content shas that were already
// reported, so later runs skip them.
package hashstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/leakwatch/leakwatch/internal/types"
)

// Store is a persistent hash list. Implementations are safe for concurrent
// use.
type Store interface {
	// Hashes returns a snapshot of the recorded shas.
	Hashes(ctx context.Context) (types.HashSet, error)
	// Add records shas. Empty shas are ignored.
	Add(ctx context.Context, shas ...string) error
	Close() error
}

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open returns the store for driver at path. An empty driver means file.
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverFile:
		return OpenFile(path)
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("hashstore: unknown driver %q", driver)
	}
}
