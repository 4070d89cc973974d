// Package config loads the repute configuration: per-source staleness
// windows, pacing budgets and credentials, plus the cache backend selection.
//
// Configuration lives in a TOML file (default ~/.config/repute/config.toml)
// and is overlaid on built-in defaults, so a missing file or a partial one
// is fine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Store backend names accepted in the config file.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
	StoreNone  = "none"
)

// Source names used throughout the pipeline.
const (
	SourcePyPI      = "pypi"
	SourceGitHub    = "github"
	SourcePyPIStats = "pypistats"
)

// DefaultStalenessWindowDays is how long a cached record stays usable.
const DefaultStalenessWindowDays = 30

// Source configures one external data provider.
type Source struct {
	// StalenessWindowDays is the maximum age of a cached record before it
	// is refetched.
	StalenessWindowDays int `toml:"staleness_window_days"`

	// MaxRequestsPerSecond is the pacing budget for this source. Zero
	// disables pacing.
	MaxRequestsPerSecond float64 `toml:"max_requests_per_second"`

	// Token is an opaque credential passed through to the source client.
	Token string `toml:"token"`

	// TokenEnv names an environment variable to read the token from when
	// Token itself is empty.
	TokenEnv string `toml:"token_env"`
}

// Window returns the staleness window as a duration.
func (s Source) Window() time.Duration {
	return time.Duration(s.StalenessWindowDays) * 24 * time.Hour
}

// ResolveToken returns the configured token, falling back to the token
// environment variable.
func (s Source) ResolveToken() string {
	if s.Token != "" {
		return s.Token
	}
	if s.TokenEnv != "" {
		return os.Getenv(s.TokenEnv)
	}
	return ""
}

// Config is the full repute configuration.
type Config struct {
	// CacheDir overrides the record store location (default: XDG cache
	// directory under "repute").
	CacheDir string `toml:"cache_dir"`

	// Store selects the record store backend: file, redis or none.
	Store string `toml:"store"`

	// RedisURL is the connection URL when Store is "redis".
	RedisURL string `toml:"redis_url"`

	Sources map[string]Source `toml:"sources"`
}

// Default returns the built-in configuration: file-backed store, 30-day
// staleness windows, and per-source pacing matching each provider's
// tolerance.
func Default() *Config {
	return &Config{
		Store: StoreFile,
		Sources: map[string]Source{
			SourcePyPI: {
				StalenessWindowDays:  DefaultStalenessWindowDays,
				MaxRequestsPerSecond: 10,
			},
			SourceGitHub: {
				StalenessWindowDays:  DefaultStalenessWindowDays,
				MaxRequestsPerSecond: 1,
				TokenEnv:             "GITHUB_TOKEN",
			},
			SourcePyPIStats: {
				StalenessWindowDays:  DefaultStalenessWindowDays,
				MaxRequestsPerSecond: 1,
			},
		},
	}
}

// Load reads the TOML file at path and overlays it on the defaults. An
// empty path tries the default location; a missing file at either location
// yields the defaults. Unset fields keep their default values, so a source
// section may override just one knob.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return cfg, nil
		}
	}

	var file Config
	meta, err := toml.DecodeFile(path, &file)
	if os.IsNotExist(err) {
		if explicit {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0])
	}

	cfg.merge(&file)
	return cfg, nil
}

func (c *Config) merge(file *Config) {
	if file.CacheDir != "" {
		c.CacheDir = file.CacheDir
	}
	if file.Store != "" {
		c.Store = file.Store
	}
	if file.RedisURL != "" {
		c.RedisURL = file.RedisURL
	}
	for name, override := range file.Sources {
		merged := c.Source(name)
		if override.StalenessWindowDays != 0 {
			merged.StalenessWindowDays = override.StalenessWindowDays
		}
		if override.MaxRequestsPerSecond != 0 {
			merged.MaxRequestsPerSecond = override.MaxRequestsPerSecond
		}
		if override.Token != "" {
			merged.Token = override.Token
		}
		if override.TokenEnv != "" {
			merged.TokenEnv = override.TokenEnv
		}
		c.Sources[name] = merged
	}
}

// Source returns the configuration for a named source, falling back to the
// defaults for sources the file does not mention.
func (c *Config) Source(name string) Source {
	if s, ok := c.Sources[name]; ok {
		return s
	}
	if s, ok := Default().Sources[name]; ok {
		return s
	}
	return Source{StalenessWindowDays: DefaultStalenessWindowDays}
}

// DefaultPath returns the default config file location
// (~/.config/repute/config.toml, honoring XDG_CONFIG_HOME).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "repute", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "repute", "config.toml"), nil
}
