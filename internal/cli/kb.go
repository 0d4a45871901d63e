package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lexicon/internal/export"
)

func (a *app) newKBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Load and inspect the knowledge base",
	}

	var kind string
	show := &cobra.Command{
		Use:   "show",
		Short: "Summarize the knowledge base, or list the records of one kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runKBShow(cmd, kind)
		},
	}
	show.Flags().StringVar(&kind, "kind", "", "list the shallow records of this catalog kind")

	var format string
	exp := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write one table per catalog kind into dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runKBExport(cmd, args[0], format)
		},
	}
	exp.Flags().StringVar(&format, "format", string(export.FormatCSV), "table format: csv or jsonl")

	cmd.AddCommand(show, exp)
	return cmd
}

type kbSummary struct {
	Module  string         `json:"module" yaml:"module"`
	Order   []string       `json:"order" yaml:"order"`
	Records map[string]int `json:"records" yaml:"records"`
	Total   int            `json:"total" yaml:"total"`
}

func (a *app) runKBShow(cmd *cobra.Command, kind string) error {
	name, err := a.rootModule()
	if err != nil {
		return err
	}
	l, err := a.loader()
	if err != nil {
		return err
	}
	order, err := l.Order(name)
	if err != nil {
		return err
	}
	cat, err := l.Catalog(name)
	if err != nil {
		return err
	}
	kb := cat.Shallow()

	if kind != "" {
		k, err := a.kinds.Parse(kind)
		if err != nil {
			return err
		}
		recs, err := kb.Records(k)
		if err != nil {
			return err
		}
		return a.print(cmd.OutOrStdout(), recs)
	}

	summary := kbSummary{Module: name, Order: order, Records: map[string]int{}, Total: kb.Len()}
	for k, n := range kb.Counts() {
		if n > 0 {
			summary.Records[string(k)] = n
		}
	}
	return a.print(cmd.OutOrStdout(), summary)
}

func (a *app) runKBExport(cmd *cobra.Command, dir, format string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	e, err := export.NewExporter(a.kinds, f, a.logger)
	if err != nil {
		return err
	}
	cat, err := a.catalog()
	if err != nil {
		return err
	}
	written, err := e.ExportCatalog(dir, cat)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d catalog tables to %s\n", len(written), dir)
	return nil
}

