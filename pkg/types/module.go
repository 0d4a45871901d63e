package types

// DefaultDataDir is the data locator used when a descriptor omits one.
const DefaultDataDir = "data"

// ModuleDescriptor declares one module of catalog content. DependsOn names
// modules that must load before this one; Modules names child modules whose
// catalogs are merged into this one.
type ModuleDescriptor struct {
	Name      string   `json:"name" yaml:"name" toml:"name"`
	Version   string   `json:"version" yaml:"version" toml:"version"`
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty" toml:"depends_on"`
	Modules   []string `json:"modules,omitempty" yaml:"modules,omitempty" toml:"modules"`
	Data      string   `json:"data,omitempty" yaml:"data,omitempty" toml:"data"`
	Tags      []string `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags"`

	// Dir is the directory holding the marker file. Data is resolved
	// relative to it.
	Dir string `json:"-" yaml:"-" toml:"-"`
}

// DataDir returns the data locator, defaulting to DefaultDataDir.
func (m *ModuleDescriptor) DataDir() string {
	if m.Data == "" {
		return DefaultDataDir
	}
	return m.Data
}
