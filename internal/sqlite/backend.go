// Package sqlite implements the ledger store on SQLite.
//
// Each ledger kind is stored in its own table keyed by uuid. Rows carry the
// detached JSON payload of the shallow record and the identifier of the
// owning record, so that a record tree is reassembled by walking parent_uuid
// links and deleted by cascading along them.
package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// DatabaseFile is the name of the database file created in DataDir.
const DatabaseFile = "lexicon.db"

// Backend implements types.Store using SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	tables   map[types.Kind]*table

	kinds  *types.KindRegistry
	logger *zap.SugaredLogger

	// open is used by Attach to obtain the database handle.
	open func(path string) (*sql.DB, error)
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithKinds sets the kind registry used to create tables and decode rows.
func WithKinds(kinds *types.KindRegistry) Option {
	return func(b *Backend) {
		if kinds != nil {
			b.kinds = kinds
		}
	}
}

// WithDB makes Attach use db instead of opening a database file. The backend
// takes ownership of db and closes it on Detach.
func WithDB(db *sql.DB) Option {
	return func(b *Backend) {
		b.open = func(string) (*sql.DB, error) { return db, nil }
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		tables: make(map[types.Kind]*table),
		kinds:  types.NewKindRegistry(),
		logger: zap.NewNop().Sugar(),
		open: func(path string) (*sql.DB, error) {
			db, err := sql.Open("sqlite", path)
			if err != nil {
				return nil, err
			}
			// SQLite serializes writers; one connection avoids busy errors
			// between a transaction and concurrent readers.
			db.SetMaxOpenConns(1)
			return db, nil
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetTable returns the table for a ledger kind.
// Returns ErrStoreDetached if the backend is not attached and
// ErrTableNotFound for kinds without a table.
func (b *Backend) GetTable(kind types.Kind) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	t, ok := b.tables[kind]
	if !ok {
		return nil, errors.Wrapf(types.ErrTableNotFound, "kind %q", kind)
	}
	return t, nil
}

// Attach opens the database in config.DataDir, creating the directory, the
// file and any missing tables. Existing rows are kept.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating data directory %s", dataDir)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := b.open(dbPath)
	if err != nil {
		return types.Persistence(err, "open database")
	}

	if _, err := db.Exec(schemaFor(b.kinds)); err != nil {
		db.Close()
		return types.Persistence(err, "create schema")
	}

	b.db = db
	b.config = config
	b.attached = true

	for _, k := range b.kinds.LedgerKinds() {
		info, _ := b.kinds.Lookup(k)
		b.tables[k] = newTable(b, info)
	}

	b.logger.Infow("Attached ledger store", "path", dbPath, "tables", len(b.tables))
	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrStoreDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return types.Persistence(err, "close database")
		}
		b.db = nil
	}

	b.attached = false
	b.tables = make(map[types.Kind]*table)
	b.logger.Debugw("Detached ledger store")
	return nil
}
