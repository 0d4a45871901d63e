package cli

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and ledger storage",
		Long: "Create the configuration directory with a default config.yaml, the module\n" +
			"roots and the ledger database. Existing files are left untouched.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return errors.Wrapf(err, "create config directory %s", a.configDir)
	}
	written, err := writeDefaultConfig(a.configDir, a.settings)
	if err != nil {
		return err
	}
	if written {
		a.logger.Infow("Wrote default configuration", "dir", a.configDir)
	}

	roots, err := a.moduleRoots()
	if err != nil {
		return err
	}
	for _, r := range roots {
		if err := os.MkdirAll(r, 0o755); err != nil {
			return errors.Wrapf(err, "create module root %s", r)
		}
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	if err := store.Detach(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Lexicon initialized in %s\n", a.configDir)
	return nil
}
