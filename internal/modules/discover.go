package modules

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// Discoverer locates module marker files under a set of root directories.
type Discoverer struct {
	logger *zap.SugaredLogger
}

// NewDiscoverer returns a Discoverer. A nil logger discards output.
func NewDiscoverer(logger *zap.SugaredLogger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Discoverer{logger: logger}
}

// Discover walks every root and parses each marker file it finds. Only one
// marker per directory is read. When two roots carry a module with the same
// name, the higher version wins; on equal versions the first root wins.
func (d *Discoverer) Discover(roots []string) (map[string]*types.ModuleDescriptor, error) {
	found := make(map[string]*types.ModuleDescriptor)
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() {
				return nil
			}
			marker := firstMarker(path)
			if marker == "" {
				return nil
			}
			desc, err := ParseDescriptor(marker)
			if err != nil {
				return err
			}
			d.keep(found, desc)
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "scanning module root %s", root)
		}
	}
	return found, nil
}

func (d *Discoverer) keep(found map[string]*types.ModuleDescriptor, desc *types.ModuleDescriptor) {
	prev, ok := found[desc.Name]
	if !ok {
		d.logger.Debugw("Discovered module", "name", desc.Name, "version", desc.Version, "dir", desc.Dir)
		found[desc.Name] = desc
		return
	}
	if newer(desc, prev) {
		d.logger.Warnw("Module superseded by a newer version",
			"name", desc.Name, "kept", desc.Version, "dropped", prev.Version, "dir", desc.Dir)
		found[desc.Name] = desc
		return
	}
	d.logger.Warnw("Ignoring duplicate module",
		"name", desc.Name, "kept", prev.Version, "dropped", desc.Version, "dir", desc.Dir)
}

func firstMarker(dir string) string {
	for _, name := range markerNames {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
