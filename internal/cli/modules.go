package cli

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lexicon/internal/modules"
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

func (a *app) newModulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Inspect knowledge base modules",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the modules found under the module roots",
		Args:  cobra.NoArgs,
		RunE:  a.runModulesList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "order [module...]",
		Short: "Print the load order of modules",
		Long: "Print the dependency-respecting load order. Without arguments the order of\n" +
			"the selected knowledge base module is printed; with arguments, the order of\n" +
			"the named modules and their dependencies.",
		RunE: a.runModulesOrder,
	})
	return cmd
}

type moduleRow struct {
	Name      string   `json:"name" yaml:"name"`
	Version   string   `json:"version" yaml:"version"`
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Modules   []string `json:"modules,omitempty" yaml:"modules,omitempty"`
	Dir       string   `json:"dir" yaml:"dir"`
}

func (a *app) runModulesList(cmd *cobra.Command, args []string) error {
	mods, err := a.discover()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(mods))
	for name := range mods {
		names = append(names, name)
	}
	slices.Sort(names)

	rows := make([]moduleRow, 0, len(names))
	for _, name := range names {
		m := mods[name]
		rows = append(rows, moduleRow{Name: m.Name, Version: m.Version, DependsOn: m.DependsOn, Modules: m.Modules, Dir: m.Dir})
	}
	if a.jsonMode {
		return printJSON(cmd.OutOrStdout(), rows)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tDIR")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Version, r.Dir)
	}
	return w.Flush()
}

func (a *app) runModulesOrder(cmd *cobra.Command, args []string) error {
	var order []string
	if len(args) == 0 {
		name, err := a.rootModule()
		if err != nil {
			return err
		}
		l, err := a.loader()
		if err != nil {
			return err
		}
		if order, err = l.Order(name); err != nil {
			return err
		}
	} else {
		mods, err := a.discover()
		if err != nil {
			return err
		}
		for _, name := range args {
			if _, ok := mods[name]; !ok {
				return errors.Wrapf(types.ErrNotFound, "module %q", name)
			}
		}
		if order, err = modules.ResolveLoadOrder(modules.Closure(mods, args), a.settings.PreferredOrder); err != nil {
			return err
		}
	}

	if a.jsonMode {
		return printJSON(cmd.OutOrStdout(), order)
	}
	for _, name := range order {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
