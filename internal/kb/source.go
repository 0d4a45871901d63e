// Package kb assembles knowledge bases from module content.
package kb

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// RecordSource supplies the catalog records a module contributes by itself,
// without its child modules.
type RecordSource interface {
	Records(m *types.ModuleDescriptor) (*types.KnowledgeBase, error)
}

// DirSource reads records from a module's data directory. The directory
// holds one subdirectory per catalog kind, each containing YAML files with a
// list of shallow records:
//
//	data/
//	  finding/
//	    polyps.yaml
//	  classification_choice_descriptor/
//	    size.yaml
//
// Subdirectories that are not catalog kinds are ignored.
type DirSource struct {
	kinds  *types.KindRegistry
	logger *zap.SugaredLogger
}

// NewDirSource returns a DirSource. A nil logger discards output.
func NewDirSource(kinds *types.KindRegistry, logger *zap.SugaredLogger) *DirSource {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &DirSource{kinds: kinds, logger: logger}
}

// Records reads every record file below the module's data directory. A
// module without a data directory contributes nothing.
func (s *DirSource) Records(m *types.ModuleDescriptor) (*types.KnowledgeBase, error) {
	kb := types.NewKnowledgeBase()
	root := filepath.Join(m.Dir, m.DataDir())
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		s.logger.Debugw("Module has no data directory", "module", m.Name, "dir", root)
		return kb, nil
	}
	for _, kind := range s.kinds.CatalogKinds() {
		files, err := recordFiles(filepath.Join(root, string(kind)))
		if err != nil {
			return nil, errors.Wrapf(err, "module %q", m.Name)
		}
		for _, f := range files {
			if err := s.readFile(kb, kind, f); err != nil {
				return nil, errors.Wrapf(err, "module %q", m.Name)
			}
		}
	}
	return kb, nil
}

func (s *DirSource) readFile(kb *types.KnowledgeBase, kind types.Kind, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return errors.Mark(errors.Wrapf(err, "parsing %s", path), types.ErrInvalidData)
	}
	info, _ := s.kinds.Lookup(kind)
	for i := range nodes {
		rec := info.NewRecord()
		if err := nodes[i].Decode(rec); err != nil {
			return errors.Mark(errors.Wrapf(err, "%s: record %d", path, i), types.ErrInvalidData)
		}
		if err := kb.Add(rec); err != nil {
			return errors.Wrapf(err, "%s: record %d", path, i)
		}
	}
	s.logger.Debugw("Read record file", "kind", kind, "file", path, "records", len(nodes))
	return nil
}

// recordFiles lists the YAML files in dir in name order. A missing
// directory has no files.
func recordFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)
	return files, nil
}

// MemorySource serves records held in memory, keyed by module name.
type MemorySource map[string]*types.KnowledgeBase

// Records returns a copy of the module's records, or an empty knowledge base
// for modules with no entry.
func (s MemorySource) Records(m *types.ModuleDescriptor) (*types.KnowledgeBase, error) {
	if kb, ok := s[m.Name]; ok {
		return kb.Clone(), nil
	}
	return types.NewKnowledgeBase(), nil
}
