package lmanage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/latchkey/latchkey"
)

// Config controls where the store lives and how verbose the tool is.
type Config struct {
	StorePath     string `toml:"store_path"`
	DefaultScheme string `toml:"default_scheme"`
	Verbose       bool   `toml:"verbose"`
}

const configDirName = ".latchkey"

// DefaultConfig places the store under ~/.latchkey.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		StorePath:     filepath.Join(home, configDirName, "latchkey.db"),
		DefaultScheme: latchkey.DefaultScheme,
	}
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, configDirName, "config.toml")
}

// LoadConfig reads a TOML config file. An absent file yields the defaults;
// fields left unset in the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("%w: unknown config keys %v in %q", latchkey.ErrValidation, undecoded, path)
	}
	if cfg.StorePath == "" {
		cfg.StorePath = DefaultConfig().StorePath
	}
	if cfg.DefaultScheme == "" {
		cfg.DefaultScheme = latchkey.DefaultScheme
	}
	return cfg, nil
}
