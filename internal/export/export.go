// Package export writes catalog and ledger entities as flat tables, one file
// per kind.
//
// Each row is the shallow form of one entity. Nested child collections are
// left out; children appear in their own kind's file and point back at
// their owner through its identifier column. In CSV output, list cells are
// joined with ";" and map cells hold compact JSON.
package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// Format selects the file format of an export.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// ErrUnknownFormat is returned for formats other than csv and jsonl.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat converts a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSONL:
		return f, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
}

// listSeparator joins list values in CSV cells.
const listSeparator = ";"

// Exporter writes flat tables into a directory.
type Exporter struct {
	kinds  *types.KindRegistry
	format Format
	logger *zap.SugaredLogger
}

// NewExporter returns an Exporter. A nil logger discards output.
func NewExporter(kinds *types.KindRegistry, format Format, logger *zap.SugaredLogger) (*Exporter, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if kinds == nil {
		kinds = types.NewKindRegistry()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Exporter{kinds: kinds, format: format, logger: logger}, nil
}

// ExportCatalog writes one file per catalog kind, rows in name order.
// Returns the paths written.
func (e *Exporter) ExportCatalog(dir string, cat *types.Catalog) ([]string, error) {
	kb := cat.Shallow()
	tables := make(map[types.Kind][]any)
	for _, k := range e.kinds.CatalogKinds() {
		recs, err := kb.Records(k)
		if err != nil {
			return nil, err
		}
		tables[k] = recs
	}
	return e.write(dir, e.kinds.CatalogKinds(), tables)
}

// ExportLedger writes one file per ledger kind holding the given record
// trees, flattened. Rows appear in depth-first order of the trees.
func (e *Exporter) ExportLedger(dir string, roots []types.LedgerRecord) ([]string, error) {
	tables := make(map[types.Kind][]any)
	var walk func(rec types.LedgerRecord)
	walk = func(rec types.LedgerRecord) {
		tables[rec.Kind()] = append(tables[rec.Kind()], rec.Detached())
		for _, c := range rec.Children() {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return e.write(dir, e.kinds.LedgerKinds(), tables)
}

func (e *Exporter) write(dir string, kinds []types.Kind, tables map[types.Kind][]any) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating export directory %s", dir)
	}
	var paths []string
	for _, k := range kinds {
		path := filepath.Join(dir, string(k)+"."+string(e.format))
		info, ok := e.kinds.Lookup(k)
		if !ok {
			return nil, errors.Wrapf(types.ErrUnknownKind, "%q", k)
		}
		var err error
		switch e.format {
		case FormatCSV:
			err = writeCSV(path, columns(info.NewRecord()), tables[k])
		case FormatJSONL:
			err = writeJSONL(path, tables[k])
		}
		if err != nil {
			return nil, errors.Wrapf(err, "exporting %s", k)
		}
		e.logger.Infow("Wrote export file", "kind", k, "path", path, "rows", len(tables[k]))
		paths = append(paths, path)
	}
	return paths, nil
}

func writeJSONL(path string, records []any) error {
	return writeAtomic(path, func(w *bufio.Writer) error {
		enc := json.NewEncoder(w)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, header []string, records []any) error {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		row, err := flatten(r)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return writeAtomic(path, func(w *bufio.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		line := make([]string, len(header))
		for _, row := range rows {
			for i, col := range header {
				line[i] = row[col]
			}
			if err := cw.Write(line); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// flatten converts a record to column/cell pairs through its JSON form.
func flatten(rec any) (map[string]string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %T", rec)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, errors.Wrapf(err, "decoding %T", rec)
	}
	row := make(map[string]string, len(fields))
	for k, v := range fields {
		cell, err := cellOf(v)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", k)
		}
		row[k] = cell
	}
	return row, nil
}

func cellOf(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			s, err := cellOf(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, listSeparator), nil
	}
	data, err := json.Marshal(v)
	return string(data), err
}

// columns returns the column names of a record type: uuid and name first,
// then every other JSON field in name order. Fields holding child records
// are not columns.
func columns(rec any) []string {
	var rest []string
	hasName := false
	for _, f := range jsonFields(reflect.TypeOf(rec)) {
		switch f {
		case "uuid":
		case "name":
			hasName = true
		default:
			rest = append(rest, f)
		}
	}
	slices.Sort(rest)
	head := []string{"uuid"}
	if hasName {
		head = append(head, "name")
	}
	return append(head, rest...)
}

var ledgerRecordType = reflect.TypeFor[types.LedgerRecord]()

func jsonFields(t reflect.Type) []string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var out []string
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if f.Anonymous && tag == "" {
			out = append(out, jsonFields(f.Type)...)
			continue
		}
		if !f.IsExported() || tag == "-" || holdsChildren(f.Type) {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		out = append(out, name)
	}
	return out
}

func holdsChildren(t reflect.Type) bool {
	if t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t.Implements(ledgerRecordType)
}
