package cli

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/lexicon/internal/kb"
	"github.com/mesh-intelligence/lexicon/internal/ledger"
	"github.com/mesh-intelligence/lexicon/internal/modules"
	"github.com/mesh-intelligence/lexicon/internal/sqlite"
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// ErrNoModule is returned when a command needs a knowledge base but neither
// --module nor root_module names one.
var ErrNoModule = errors.New("no knowledge base module selected")

// discover returns every module descriptor under the configured roots.
func (a *app) discover() (map[string]*types.ModuleDescriptor, error) {
	roots, err := a.moduleRoots()
	if err != nil {
		return nil, err
	}
	return modules.NewDiscoverer(a.logger).Discover(roots)
}

// rootModule returns the module selected by --module or root_module.
func (a *app) rootModule() (string, error) {
	if a.flagModule != "" {
		return a.flagModule, nil
	}
	if a.settings.RootModule != "" {
		return a.settings.RootModule, nil
	}
	return "", errors.WithHint(ErrNoModule, "pass --module or set root_module in config.yaml")
}

// loader returns a knowledge base loader over the discovered modules.
func (a *app) loader() (*kb.Loader, error) {
	mods, err := a.discover()
	if err != nil {
		return nil, err
	}
	return kb.NewLoader(mods, kb.NewDirSource(a.kinds, a.logger),
		kb.WithPolicy(a.settings.MergePolicy),
		kb.WithPreferredOrder(a.settings.PreferredOrder),
		kb.WithLogger(a.logger),
	), nil
}

// catalog loads and materializes the selected knowledge base.
func (a *app) catalog() (*types.Catalog, error) {
	name, err := a.rootModule()
	if err != nil {
		return nil, err
	}
	l, err := a.loader()
	if err != nil {
		return nil, err
	}
	return l.Catalog(name)
}

// openStore attaches the SQLite ledger. The caller must Detach it.
func (a *app) openStore() (*sqlite.Backend, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, errors.Wrap(err, "resolve data dir")
	}
	store := sqlite.NewBackend(sqlite.WithLogger(a.logger), sqlite.WithKinds(a.kinds))
	if err := store.Attach(a.settings.config(dataDir)); err != nil {
		return nil, err
	}
	return store, nil
}

// openLedger loads the catalog and attaches the store, returning a syncer
// over both and a function releasing the store.
func (a *app) openLedger() (*ledger.Syncer, func(), error) {
	cat, err := a.catalog()
	if err != nil {
		return nil, nil, err
	}
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	l := ledger.New(store, cat, a.kinds)
	s := ledger.NewSyncer(l,
		ledger.WithLogger(a.logger),
		ledger.WithPrevalidation(a.settings.Sync.Prevalidate),
	)
	release := func() {
		if err := store.Detach(); err != nil {
			a.logger.Warnw("Detaching ledger failed", "error", err)
		}
	}
	return s, release, nil
}

// print writes v as YAML, or as indented JSON in --json mode.
func (a *app) print(w io.Writer, v any) error {
	if a.jsonMode {
		return printJSON(w, v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode output")
	}
	return enc.Close()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode output")
}
