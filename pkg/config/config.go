package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"golang.org/x/xerrors"
)

// FileName is the per-project config file looked up in the scanned
// directory.
const FileName = ".wormscan.toml"

// Config carries file-level settings. Command-line flags override any
// value set here. Threshold is -1 when the file does not set it, so the
// caller can tell "absent" from an explicit 0.
type Config struct {
	Feed      string `toml:"feed"`
	Threshold int    `toml:"threshold"`
	Ecosystem string `toml:"ecosystem"`
	CacheDir  string `toml:"cache_dir"`
}

// Load reads a config file. A missing file is not an error and yields the
// zero config.
func Load(path string) (Config, error) {
	cfg := Config{Threshold: -1}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{Threshold: -1}, xerrors.Errorf("failed to decode config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDir loads the config file from the given project directory.
func LoadDir(dir string) (Config, error) {
	return Load(filepath.Join(dir, FileName))
}
