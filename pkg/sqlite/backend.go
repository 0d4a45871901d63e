// Package sqlite provides the public API for the SQLite ledger store.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/lexicon/internal/sqlite"
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// NewBackend creates a new SQLite ledger store. A nil logger discards
// output. The store is not attached; call Attach with a Config to
// initialize.
//
// Example:
//
//	store := sqlite.NewBackend(nil)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".lexicon",
//	})
//	defer store.Detach()
func NewBackend(logger *zap.SugaredLogger) types.Store {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
