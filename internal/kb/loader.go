package kb

import (
	"slices"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/lexicon/internal/modules"
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// Loader assembles the knowledge base of a module from its own records and
// those of its descendants. A Loader is not safe for concurrent use.
type Loader struct {
	modules   map[string]*types.ModuleDescriptor
	source    RecordSource
	policy    types.MergePolicy
	preferred []string
	logger    *zap.SugaredLogger

	// own caches each module's records so that a module reachable along
	// several paths is read once.
	own map[string]*types.KnowledgeBase
}

// Option configures a Loader.
type Option func(*Loader)

// WithPolicy sets the merge policy. The default is MergeOverwrite.
func WithPolicy(p types.MergePolicy) Option {
	return func(l *Loader) {
		if p != "" {
			l.policy = p
		}
	}
}

// WithPreferredOrder sets the tie-break order passed to the resolver.
func WithPreferredOrder(names []string) Option {
	return func(l *Loader) { l.preferred = slices.Clone(names) }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader returns a Loader over the given descriptors.
func NewLoader(mods map[string]*types.ModuleDescriptor, source RecordSource, opts ...Option) *Loader {
	l := &Loader{
		modules: mods,
		source:  source,
		policy:  types.MergeOverwrite,
		logger:  zap.NewNop().Sugar(),
		own:     make(map[string]*types.KnowledgeBase),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the knowledge base of the named module. The module itself,
// every descendant declared through nested modules and the modules they
// depend on are folded in the sequence Order returns; under MergeOverwrite
// a later module replaces entities of the same name. A root without
// dependencies comes first, so its descendants override it.
func (l *Loader) Load(name string) (*types.KnowledgeBase, error) {
	order, err := l.Order(name)
	if err != nil {
		return nil, err
	}
	acc := types.NewKnowledgeBase()
	for _, m := range order {
		kb, err := l.records(m)
		if err != nil {
			return nil, err
		}
		if err := acc.Merge(kb, l.policy); err != nil {
			return nil, errors.Wrapf(err, "merging module %q into %q", m, name)
		}
		l.logger.Debugw("Folded module into knowledge base", "root", name, "module", m, "records", kb.Len())
	}
	return acc, nil
}

// Order returns the modules Load folds for name, in load order. The result
// includes name itself at its resolved position, after any module it
// depends on.
func (l *Loader) Order(name string) ([]string, error) {
	root, ok := l.modules[name]
	if !ok {
		return nil, errors.Wrapf(types.ErrNotFound, "module %q", name)
	}
	for _, dep := range root.DependsOn {
		if _, ok := l.modules[dep]; !ok {
			return nil, types.MissingDependency(name, dep)
		}
	}
	descendants, err := modules.Expand(l.modules, name)
	if err != nil {
		return nil, err
	}
	seeds := append([]string{name}, descendants...)
	set := modules.Closure(l.modules, seeds)
	preferred := append(slices.Clone(l.preferred), seeds...)
	return modules.ResolveLoadOrder(set, preferred)
}

// Catalog loads the named module and materializes its deep catalog.
func (l *Loader) Catalog(name string) (*types.Catalog, error) {
	kb, err := l.Load(name)
	if err != nil {
		return nil, err
	}
	return kb.Materialize()
}

func (l *Loader) records(name string) (*types.KnowledgeBase, error) {
	if kb, ok := l.own[name]; ok {
		return kb, nil
	}
	kb, err := l.source.Records(l.modules[name])
	if err != nil {
		return nil, err
	}
	l.own[name] = kb
	return kb, nil
}
