// Package cli implements the repute command-line interface.
//
// The main command reads a pinned requirements file, fetches reputation
// signals for every package from PyPI, GitHub and pypistats.org (each
// behind its own cache and request-rate budget), and writes a
// package-indexed CSV report. Raw responses are cached on disk, so repeated
// runs are cheap and interrupted runs lose little work.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/repute/pkg/buildinfo"
	"github.com/matzehuels/repute/pkg/config"
	"github.com/matzehuels/repute/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "repute"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Repute reports reputation signals for pinned Python dependencies",
		Long:         `Repute reads a fully pinned requirements file, gathers release metadata, GitHub popularity and download counts for every package, and writes a package-indexed CSV report.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.reportCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// cacheDir returns the record store root using the XDG standard
// (~/.cache/repute/), with one subdirectory per source.
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// newSourceStore builds the record store for one source based on the
// configured backend. File stores get a per-source directory; the Redis
// backend scopes keys with a per-source prefix instead.
func newSourceStore(cfg *config.Config, noCache bool, source, dir string) (store.Store, error) {
	if noCache || cfg.Store == config.StoreNone {
		return store.NewNullStore(), nil
	}
	switch cfg.Store {
	case config.StoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("store %q requires redis_url in the config", cfg.Store)
		}
		return store.NewRedisStore(cfg.RedisURL, appName+":"+source+":")
	case config.StoreFile, "":
		return store.NewFileStore(dir), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
