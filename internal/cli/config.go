package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/lexicon/internal/paths"
	"github.com/mesh-intelligence/lexicon/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "LEXICON"
)

// Config keys.
const (
	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeyModuleRoots    = "module_roots"
	cfgKeyRootModule     = "root_module"
	cfgKeyPreferredOrder = "preferred_order"
	cfgKeyMergePolicy    = "merge_policy"
	cfgKeyPrevalidate    = "sync.prevalidate"
	cfgKeyLogLevel       = "log.level"
	cfgKeyLogJSON        = "log.json"
)

// settings mirrors config.yaml.
type settings struct {
	Backend        string            `mapstructure:"backend" yaml:"backend"`
	DataDir        string            `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	ModuleRoots    []string          `mapstructure:"module_roots" yaml:"module_roots,omitempty"`
	RootModule     string            `mapstructure:"root_module" yaml:"root_module,omitempty"`
	PreferredOrder []string          `mapstructure:"preferred_order" yaml:"preferred_order,omitempty"`
	MergePolicy    types.MergePolicy `mapstructure:"merge_policy" yaml:"merge_policy"`
	Sync           syncSettings      `mapstructure:"sync" yaml:"sync"`
	Log            logSettings       `mapstructure:"log" yaml:"log"`
}

type syncSettings struct {
	Prevalidate bool `mapstructure:"prevalidate" yaml:"prevalidate"`
}

type logSettings struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

func defaultSettings() settings {
	return settings{
		Backend:     types.BackendSQLite,
		MergePolicy: types.MergeOverwrite,
		Sync:        syncSettings{Prevalidate: true},
		Log:         logSettings{Level: "info"},
	}
}

// loadSettings reads config.yaml from configDir. A missing file yields the
// defaults; LEXICON_* environment variables override file values, with
// dots in keys replaced by underscores (LEXICON_SYNC_PREVALIDATE).
func loadSettings(configDir string) (settings, error) {
	d := defaultSettings()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, d.Backend)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyModuleRoots, []string{})
	v.SetDefault(cfgKeyRootModule, "")
	v.SetDefault(cfgKeyPreferredOrder, []string{})
	v.SetDefault(cfgKeyMergePolicy, string(d.MergePolicy))
	v.SetDefault(cfgKeyPrevalidate, d.Sync.Prevalidate)
	v.SetDefault(cfgKeyLogLevel, d.Log.Level)
	v.SetDefault(cfgKeyLogJSON, d.Log.JSON)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, errors.Wrapf(err, "read %s", filepath.Join(configDir, configFileExt))
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, errors.Wrap(err, "decode config")
	}
	if err := s.config("").Validate(); err != nil {
		return settings{}, err
	}
	return s, nil
}

// config returns the store configuration for the given ledger directory.
func (s settings) config(dataDir string) types.Config {
	return types.Config{Backend: s.Backend, DataDir: dataDir, MergePolicy: s.MergePolicy}
}

// writeDefaultConfig creates config.yaml in configDir unless it exists.
// Reports whether the file was written.
func writeDefaultConfig(configDir string, s settings) (bool, error) {
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, errors.Wrapf(err, "stat %s", path)
	}

	data, err := yaml.Marshal(&s)
	if err != nil {
		return false, errors.Wrap(err, "marshal config")
	}
	header := "# lexicon configuration\n# Relative directories are resolved against this directory.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return false, errors.Wrapf(err, "write %s", path)
	}
	return true, nil
}

// resolveDataDir returns the ledger directory: --data-dir >
// LEXICON_DATA_DIR > data_dir > <config-dir>/ledger.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.flagDataDir, a.settings.DataDir, a.configDir)
}

// moduleRoots returns the absolute module roots.
func (a *app) moduleRoots() ([]string, error) {
	return paths.ResolveModuleRoots(a.settings.ModuleRoots, a.configDir)
}
