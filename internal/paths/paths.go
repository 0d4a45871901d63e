// Package paths resolves the configuration, ledger and module directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Directory names relative to their parent.
const (
	LocalConfigDirName = ".lexicon"
	LedgerDirName      = "ledger"
	ModulesDirName     = "modules"
	AppName            = "lexicon"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "LEXICON_CONFIG_DIR"
	EnvDataDir   = "LEXICON_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the platform-specific configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/lexicon (fallback ~/.config/lexicon)
// macOS:   ~/Library/Application Support/lexicon
// Windows: %APPDATA%/lexicon
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > LEXICON_CONFIG_DIR > ./.lexicon when it exists >
// DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	local := filepath.Join(cwd, LocalConfigDirName)
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local, nil
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the ledger directory following the precedence
// chain: flag > LEXICON_DATA_DIR > config value > <configDir>/ledger.
// A relative config value is taken relative to configDir.
func ResolveDataDir(flag, configValue, configDir string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	if configValue != "" {
		return filepath.Abs(under(configDir, configValue))
	}
	return filepath.Join(configDir, LedgerDirName), nil
}

// ResolveModuleRoots makes the configured module roots absolute, relative
// roots being taken relative to configDir. With no roots configured the
// single root <configDir>/modules is used.
func ResolveModuleRoots(roots []string, configDir string) ([]string, error) {
	if len(roots) == 0 {
		return []string{filepath.Join(configDir, ModulesDirName)}, nil
	}
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(under(configDir, r))
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

func under(base, p string) string {
	if filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}
