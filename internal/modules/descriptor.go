// Package modules discovers module descriptors, flattens nested module
// declarations and computes a dependency-respecting load order.
package modules

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

// Marker file names, in the order they are tried within one directory.
var markerNames = []string{"module.yaml", "module.yml", "module.toml"}

// ParseDescriptor reads a marker file. The format follows the file
// extension. Dir is set to the marker's directory.
func ParseDescriptor(path string) (*types.ModuleDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var d types.ModuleDescriptor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&d); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parsing %s", path), types.ErrInvalidDescriptor)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parsing %s", path), types.ErrInvalidDescriptor)
		}
	default:
		return nil, errors.Wrapf(types.ErrInvalidDescriptor, "%s: unsupported marker format", path)
	}
	d.Dir = filepath.Dir(path)
	if err := Validate(&d); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return &d, nil
}

// Validate checks that d has a name, a semantic version, and no self
// reference among its dependencies or children.
func Validate(d *types.ModuleDescriptor) error {
	if d.Name == "" {
		return errors.Wrap(types.ErrInvalidDescriptor, "name must not be empty")
	}
	if _, err := semver.NewVersion(d.Version); err != nil {
		return errors.Wrapf(types.ErrInvalidDescriptor, "module %q: invalid version %q: %v", d.Name, d.Version, err)
	}
	for _, dep := range d.DependsOn {
		if dep == d.Name {
			return errors.Wrapf(types.ErrCircularDependency, "module %q depends on itself", d.Name)
		}
	}
	for _, child := range d.Modules {
		if child == d.Name {
			return errors.Wrapf(types.ErrCircularDependency, "module %q lists itself as a child", d.Name)
		}
	}
	return nil
}

// newer reports whether a carries a higher version than b. Both versions
// have passed Validate.
func newer(a, b *types.ModuleDescriptor) bool {
	va, errA := semver.NewVersion(a.Version)
	vb, errB := semver.NewVersion(b.Version)
	if errA != nil || errB != nil {
		return false
	}
	return va.GreaterThan(vb)
}
