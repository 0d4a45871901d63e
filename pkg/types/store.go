package types

// Filter keys understood by Table.Fetch.
const (
	FilterUUID       = "uuid"
	FilterParentUUID = "parent_uuid"
)

// Filter selects ledger records. Values must be strings; an empty filter
// matches every record in the table.
type Filter map[string]any

// Table provides uniform create/read/update/delete operations for the
// records of one ledger kind. Records are stored detached: nested child
// collections live in their own tables and are linked by ParentUUID.
type Table interface {
	// Kind returns the ledger kind stored in the table.
	Kind() Kind

	// Create inserts rec. An empty identifier is replaced with a new UUID
	// v7. Returns ErrDuplicateID if the identifier is already taken.
	Create(rec LedgerRecord) (string, error)

	// Get retrieves the record with the given identifier.
	// Returns ErrNotFound if no record exists with that identifier.
	Get(id string) (LedgerRecord, error)

	// Fetch returns the records matching filter in insertion order.
	Fetch(filter Filter) ([]LedgerRecord, error)

	// UpdateOrCreate stores rec under id, creating the row when it is
	// absent and overwriting it otherwise. Writing a payload identical to
	// the stored one changes nothing. Returns the stored record and
	// whether a row was created.
	UpdateOrCreate(id string, rec LedgerRecord) (LedgerRecord, bool, error)

	// Delete removes the record and every record it owns, recursively.
	// Returns ErrNotFound if no record exists with that identifier.
	Delete(id string) error
}

// Store owns the tables of every ledger kind.
type Store interface {
	// Attach opens the store described by cfg.
	// Returns ErrAlreadyAttached when called twice.
	Attach(cfg Config) error

	// Detach releases the store. It is idempotent.
	Detach() error

	// GetTable returns the table for a ledger kind.
	// Returns ErrStoreDetached before Attach and ErrTableNotFound for
	// kinds that are not ledger kinds.
	GetTable(kind Kind) (Table, error)
}
