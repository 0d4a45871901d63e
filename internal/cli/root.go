// Package cli implements the lexicon command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/lexicon/internal/export"
	"github.com/mesh-intelligence/lexicon/internal/logging"
	"github.com/mesh-intelligence/lexicon/internal/paths"
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds the global flag values and the state shared by subcommands
// once the configuration is loaded.
type app struct {
	flagConfigDir string
	flagDataDir   string
	flagModule    string
	jsonMode      bool

	configDir string
	settings  settings
	logger    *zap.SugaredLogger
	kinds     *types.KindRegistry
}

// NewRootCmd creates the top-level "lexicon" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{kinds: types.NewKindRegistry(), logger: zap.NewNop().Sugar()}

	root := &cobra.Command{
		Use:   "lexicon",
		Short: "Medical terminology catalog and patient ledger",
		Long: "Lexicon assembles a terminology knowledge base from versioned modules\n" +
			"and keeps a patient ledger whose records reference it by name.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.flagConfigDir, "config-dir", "", "configuration directory (default: ./.lexicon or the platform config dir)")
	root.PersistentFlags().StringVar(&a.flagDataDir, "data-dir", "", "ledger directory (default: <config-dir>/ledger)")
	root.PersistentFlags().StringVar(&a.flagModule, "module", "", "knowledge base module (default: root_module from config.yaml)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output as JSON")

	root.AddCommand(newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newModulesCmd())
	root.AddCommand(a.newKBCmd())
	root.AddCommand(a.newLedgerCmd())
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lexicon:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// setup resolves the configuration directory, reads config.yaml and builds
// the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	dir, err := paths.ResolveConfigDir(a.flagConfigDir)
	if err != nil {
		return errors.Wrap(err, "resolve config dir")
	}
	a.configDir = dir

	s, err := loadSettings(dir)
	if err != nil {
		return err
	}
	a.settings = s

	logger, err := logging.New(logging.Options{Level: s.Log.Level, JSON: s.Log.JSON, Output: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// exitCode classifies err: problems with the input are user errors,
// everything else (storage, file system) is a system error.
func exitCode(err error) int {
	for _, target := range []error{
		types.ErrReferenceNotFound,
		types.ErrValidation,
		types.ErrNotFound,
		types.ErrInvalidData,
		types.ErrInvalidID,
		types.ErrUnknownKind,
		types.ErrMissingDependency,
		types.ErrCircularDependency,
		types.ErrInvalidDescriptor,
		types.ErrNameCollision,
		types.ErrBackendEmpty,
		types.ErrBackendUnknown,
		types.ErrMergePolicyUnknown,
		export.ErrUnknownFormat,
		logging.ErrUnknownLevel,
		ErrNoModule,
	} {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}
