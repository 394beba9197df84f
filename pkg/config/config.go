// Package config loads the optional depsync configuration file.
//
// The file lives at ~/.config/depsync/config.toml (or the platform
// equivalent) and supplies defaults for flags the user would otherwise
// repeat on every invocation. Flags always win over file values.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/depsync/pkg/errors"
	"github.com/matzehuels/depsync/pkg/pipeline"
	"github.com/matzehuels/depsync/pkg/reconcile"
)

// Filename is the config file name inside the config directory.
const Filename = "config.toml"

// Config mirrors the TOML file. Zero values mean "not set".
//
//	registry = "https://registry.npmjs.org"
//	concurrency = 16
//	cache_ttl = "12h"
//	exclude_dirs = ["vendor"]
//	ignore = ["internal-pkg"]
//	prefix = "~"
//	strategy = "exact"
type Config struct {
	Registry    string   `toml:"registry"`
	Concurrency int      `toml:"concurrency"`
	CacheTTL    duration `toml:"cache_ttl"`
	ExcludeDirs []string `toml:"exclude_dirs"`
	Ignore      []string `toml:"ignore"`
	Prefix      string   `toml:"prefix"`
	Strategy    string   `toml:"strategy"`
}

// duration wraps time.Duration so TOML strings like "12h" parse directly.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// DefaultPath returns the standard config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "depsync", Filename), nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file is not an error and yields a zero Config.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return &Config{}, nil
		}
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing %s failed", path)
	}

	if cfg.Strategy != "" && !reconcile.Strategy(cfg.Strategy).Valid() {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown strategy %q in %s", cfg.Strategy, path)
	}
	return &cfg, nil
}

// Apply copies file values onto pipeline options, touching only fields the
// caller left unset so flags keep precedence.
func (c *Config) Apply(opts *pipeline.Options) {
	if opts.RegistryURL == "" {
		opts.RegistryURL = c.Registry
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = c.Concurrency
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Duration(c.CacheTTL)
	}
	if opts.Prefix == "" {
		opts.Prefix = c.Prefix
	}
	if opts.Strategy == "" {
		opts.Strategy = reconcile.Strategy(c.Strategy)
	}
	opts.ExcludeDirs = append(opts.ExcludeDirs, c.ExcludeDirs...)
	opts.IgnorePackages = append(opts.IgnorePackages, c.Ignore...)
}
