package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// table implements types.Table for a single ledger kind.
// Each table knows its kind, SQLite table name and the backend it belongs
// to (for cross-table cascades).
type table struct {
	info    types.KindInfo
	backend *Backend
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func newTable(b *Backend, info types.KindInfo) *table {
	return &table{info: info, backend: b}
}

func (t *table) Kind() types.Kind { return t.info.Kind }

// Create inserts rec. If its identifier is empty, generates a UUID v7 and
// writes it back to rec.
// Returns ErrDuplicateID if a row with the identifier exists.
func (t *table) Create(rec types.LedgerRecord) (string, error) {
	if err := t.checkRecord(rec); err != nil {
		return "", err
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return "", types.ErrStoreDetached
	}

	if rec.GetUUID() == "" {
		rec.SetUUID(types.NewUUID())
	}
	id := rec.GetUUID()

	_, found, err := t.payload(t.backend.db, id)
	if err != nil {
		return "", err
	}
	if found {
		return "", errors.Wrapf(types.ErrDuplicateID, "%s %s", t.info.Kind, id)
	}

	payload, err := encode(rec)
	if err != nil {
		return "", err
	}
	if err := t.insert(t.backend.db, id, rec.ParentUUID(), payload); err != nil {
		return "", err
	}
	t.backend.logger.Debugw("Created record", "kind", t.info.Kind, "uuid", id)
	return id, nil
}

// Get retrieves a record by identifier.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table) Get(id string) (types.LedgerRecord, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrStoreDetached
	}

	payload, found, err := t.payload(t.backend.db, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(types.ErrNotFound, "%s %s", t.info.Kind, id)
	}
	return t.decode(id, payload)
}

// Fetch returns the records matching filter in insertion order. Supported
// keys are uuid and parent_uuid; an empty filter matches all.
func (t *table) Fetch(filter types.Filter) ([]types.LedgerRecord, error) {
	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrStoreDetached
	}

	query := fmt.Sprintf("SELECT uuid, payload FROM %q%s ORDER BY rowid", t.info.Table, where)
	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, types.Persistence(err, "fetch "+string(t.info.Kind))
	}
	defer rows.Close()

	var out []types.LedgerRecord
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, types.Persistence(err, "scan "+string(t.info.Kind))
		}
		rec, err := t.decode(id, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.Persistence(err, "fetch "+string(t.info.Kind))
	}
	return out, nil
}

// UpdateOrCreate stores rec under id and returns the stored record decoded
// from its payload. The row is inserted when absent and overwritten when its
// payload differs; an identical payload is left untouched, including its
// updated_at timestamp.
func (t *table) UpdateOrCreate(id string, rec types.LedgerRecord) (types.LedgerRecord, bool, error) {
	if id == "" {
		return nil, false, types.ErrInvalidID
	}
	if err := t.checkRecord(rec); err != nil {
		return nil, false, err
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return nil, false, types.ErrStoreDetached
	}

	rec.SetUUID(id)
	payload, err := encode(rec)
	if err != nil {
		return nil, false, err
	}

	tx, err := t.backend.db.Begin()
	if err != nil {
		return nil, false, types.Persistence(err, "begin transaction")
	}
	defer tx.Rollback()

	stored, found, err := t.payload(tx, id)
	if err != nil {
		return nil, false, err
	}
	switch {
	case !found:
		err = t.insert(tx, id, rec.ParentUUID(), payload)
	case bytes.Equal(stored, payload):
		t.backend.logger.Debugw("Record unchanged", "kind", t.info.Kind, "uuid", id)
		out, err := t.decode(id, payload)
		return out, false, err
	default:
		_, err = tx.Exec(
			fmt.Sprintf("UPDATE %q SET parent_uuid = ?, payload = ?, updated_at = ? WHERE uuid = ?", t.info.Table),
			rec.ParentUUID(), string(payload), now(), id)
		if err != nil {
			err = types.Persistence(err, "update "+string(t.info.Kind))
		}
	}
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, types.Persistence(err, "commit")
	}
	t.backend.logger.Debugw("Stored record", "kind", t.info.Kind, "uuid", id, "created", !found)
	out, err := t.decode(id, payload)
	if err != nil {
		return nil, false, err
	}
	return out, !found, nil
}

// Delete removes a record and, recursively, every record whose parent_uuid
// points at it. The cascade runs in one transaction.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrStoreDetached
	}

	tx, err := t.backend.db.Begin()
	if err != nil {
		return types.Persistence(err, "begin transaction")
	}
	defer tx.Rollback()

	_, found, err := t.payload(tx, id)
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(types.ErrNotFound, "%s %s", t.info.Kind, id)
	}

	removed, err := t.backend.cascade(tx, t.info.Kind, []string{id})
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return types.Persistence(err, "commit")
	}
	t.backend.logger.Infow("Deleted record", "kind", t.info.Kind, "uuid", id, "removed", removed)
	return nil
}

// cascade deletes the given rows of kind and everything they own, children
// first. Returns the number of rows removed.
func (b *Backend) cascade(q querier, kind types.Kind, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	info, _ := b.kinds.Lookup(kind)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	removed := 0
	for _, child := range b.kinds.Children(kind) {
		childInfo, _ := b.kinds.Lookup(child)
		childIDs, err := selectIDs(q,
			fmt.Sprintf("SELECT uuid FROM %q WHERE parent_uuid IN (%s)", childInfo.Table, placeholders), args)
		if err != nil {
			return 0, err
		}
		n, err := b.cascade(q, child, childIDs)
		if err != nil {
			return 0, err
		}
		removed += n
	}

	res, err := q.Exec(fmt.Sprintf("DELETE FROM %q WHERE uuid IN (%s)", info.Table, placeholders), args...)
	if err != nil {
		return 0, types.Persistence(err, "delete "+string(kind))
	}
	n, _ := res.RowsAffected()
	return removed + int(n), nil
}

func selectIDs(q querier, query string, args []any) ([]string, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, types.Persistence(err, "select children")
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.Persistence(err, "scan children")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, types.Persistence(err, "select children")
	}
	return ids, nil
}

func (t *table) payload(q querier, id string) ([]byte, bool, error) {
	var payload []byte
	err := q.QueryRow(fmt.Sprintf("SELECT payload FROM %q WHERE uuid = ?", t.info.Table), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, types.Persistence(err, "get "+string(t.info.Kind))
	}
	return payload, true, nil
}

func (t *table) insert(q querier, id, parent string, payload []byte) error {
	ts := now()
	_, err := q.Exec(
		fmt.Sprintf("INSERT INTO %q (uuid, parent_uuid, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?)", t.info.Table),
		id, parent, string(payload), ts, ts)
	if err != nil {
		return types.Persistence(err, "insert "+string(t.info.Kind))
	}
	return nil
}

func (t *table) checkRecord(rec types.LedgerRecord) error {
	if rec == nil {
		return errors.Wrapf(types.ErrInvalidData, "nil %s record", t.info.Kind)
	}
	if rec.Kind() != t.info.Kind {
		return errors.Wrapf(types.ErrInvalidData, "%s record in %s table", rec.Kind(), t.info.Kind)
	}
	return nil
}

func (t *table) decode(id string, payload []byte) (types.LedgerRecord, error) {
	rec, err := t.backend.kinds.NewLedgerRecord(t.info.Kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, rec); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decoding %s %s", t.info.Kind, id), types.ErrInvalidData)
	}
	rec.SetUUID(id)
	return rec, nil
}

// encode returns the JSON payload of the detached record.
func encode(rec types.LedgerRecord) ([]byte, error) {
	data, err := json.Marshal(rec.Detached())
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "encoding %s", rec.Kind()), types.ErrInvalidData)
	}
	return data, nil
}

// buildWhere translates a Filter into a WHERE clause. Keys are emitted in
// a fixed order so that equal filters produce equal queries.
func buildWhere(filter types.Filter) (string, []any, error) {
	var conds []string
	var args []any
	for _, key := range []string{types.FilterUUID, types.FilterParentUUID} {
		v, ok := filter[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", nil, errors.Wrapf(types.ErrInvalidFilter, "%s: %T", key, v)
		}
		conds = append(conds, key+" = ?")
		args = append(args, s)
	}
	for key := range filter {
		if key != types.FilterUUID && key != types.FilterParentUUID {
			return "", nil, errors.Wrapf(types.ErrInvalidFilter, "unsupported key %q", key)
		}
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
