package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/lexicon/internal/export"
	"github.com/mesh-intelligence/lexicon/internal/ledger"
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

func (a *app) newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Synchronize, read and delete patient ledger records",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sync <file>",
		Short: "Upsert the records of a YAML file (\"-\" reads stdin)",
		Long: "Each YAML document names a ledger kind and holds one shallow record,\n" +
			"nested children included:\n\n" +
			"  kind: patient_examination\n" +
			"  record:\n" +
			"    patient_uuid: 0192f7d6-...\n" +
			"    examination: colonoscopy\n" +
			"    findings:\n" +
			"      - finding: colon_lesion_polyp\n\n" +
			"Documents are synchronized in file order.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLedgerSync(cmd, args[0])
		},
	})

	var deep bool
	get := &cobra.Command{
		Use:   "get <kind> <uuid>",
		Short: "Print a stored record with its nested children",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLedgerGet(cmd, args[0], args[1], deep)
		},
	}
	get.Flags().BoolVar(&deep, "deep", false, "print the record resolved against the catalog, as JSON")

	del := &cobra.Command{
		Use:   "delete <kind> <uuid>",
		Short: "Delete a record and everything it owns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLedgerDelete(cmd, args[0], args[1])
		},
	}

	var format string
	exp := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write one table per ledger kind into dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLedgerExport(cmd, args[0], format)
		},
	}
	exp.Flags().StringVar(&format, "format", string(export.FormatCSV), "table format: csv or jsonl")

	cmd.AddCommand(get, del, exp)
	return cmd
}

// syncDocument is one document of a ledger sync file.
type syncDocument struct {
	Kind   string    `yaml:"kind"`
	Record yaml.Node `yaml:"record"`
}

// readSyncFile decodes every document of path into a shallow ledger record.
func (a *app) readSyncFile(path string, stdin io.Reader) ([]types.LedgerRecord, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		r = f
	}

	var recs []types.LedgerRecord
	dec := yaml.NewDecoder(r)
	for i := 0; ; i++ {
		var doc syncDocument
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "%s: document %d", path, i), types.ErrInvalidData)
		}
		kind, err := a.kinds.Parse(doc.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: document %d", path, i)
		}
		rec, err := a.kinds.NewLedgerRecord(kind)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: document %d", path, i)
		}
		if doc.Record.IsZero() {
			return nil, errors.Wrapf(types.ErrInvalidData, "%s: document %d has no record", path, i)
		}
		if err := doc.Record.Decode(rec); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "%s: document %d", path, i), types.ErrInvalidData)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (a *app) runLedgerSync(cmd *cobra.Command, path string) error {
	recs, err := a.readSyncFile(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	s, release, err := a.openLedger()
	if err != nil {
		return err
	}
	defer release()

	stored := make([]types.LedgerRecord, 0, len(recs))
	for _, rec := range recs {
		tree, err := s.Sync(rec)
		if err != nil {
			return err
		}
		stored = append(stored, tree)
	}
	a.logger.Infow("Synchronized ledger records", "file", path, "records", len(stored))
	return a.print(cmd.OutOrStdout(), stored)
}

func (a *app) runLedgerGet(cmd *cobra.Command, kindName, id string, deep bool) error {
	kind, err := a.kinds.Parse(kindName)
	if err != nil {
		return err
	}
	s, release, err := a.openLedger()
	if err != nil {
		return err
	}
	defer release()

	if deep {
		v, err := s.Ledger().Load(kind, id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), v)
	}
	rec, err := s.Ledger().ShallowTree(kind, id)
	if err != nil {
		return err
	}
	return a.print(cmd.OutOrStdout(), rec)
}

func (a *app) runLedgerDelete(cmd *cobra.Command, kindName, id string) error {
	kind, err := a.kinds.Parse(kindName)
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	t, err := store.GetTable(kind)
	if err != nil {
		return err
	}
	if err := t.Delete(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", kind, id)
	return nil
}

func (a *app) runLedgerExport(cmd *cobra.Command, dir, format string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	e, err := export.NewExporter(a.kinds, f, a.logger)
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	roots, err := ledger.New(store, nil, a.kinds).Roots()
	if err != nil {
		return err
	}
	written, err := e.ExportLedger(dir, roots)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d ledger tables to %s\n", len(written), dir)
	return nil
}
