package sqlite

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// Every ledger kind gets a table of the same shape. The payload column holds
// the detached JSON encoding of the shallow record; nested children live in
// their own tables and point back through parent_uuid.
const tableDDL = `CREATE TABLE IF NOT EXISTS %[1]q (
    uuid TEXT PRIMARY KEY,
    parent_uuid TEXT NOT NULL DEFAULT '',
    payload TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS %[2]q ON %[1]q (parent_uuid);`

// schemaFor returns the DDL for every ledger kind in the registry.
func schemaFor(kinds *types.KindRegistry) string {
	var stmts []string
	for _, k := range kinds.LedgerKinds() {
		info, _ := kinds.Lookup(k)
		stmts = append(stmts, fmt.Sprintf(tableDDL, info.Table, "idx_"+info.Table+"_parent"))
	}
	return strings.Join(stmts, "\n")
}
