// Package cli implements the depsync command-line interface.
//
// This package provides commands for scanning source trees, syncing
// discovered dependencies against package.json, managing the HTTP response
// cache, and running the HTTP API. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
//   - sync: Scan, resolve against the registry, and reconcile package.json
//   - scan: Discovery only, print the imported module names
//   - cache: Manage the HTTP response cache
//   - serve: Run the HTTP API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/buildinfo"
	"github.com/matzehuels/depsync/pkg/cache"
	"github.com/matzehuels/depsync/pkg/config"
	"github.com/matzehuels/depsync/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "depsync"

// Execute runs the depsync CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "depsync keeps package.json in step with the modules your code imports",
		Long:         `depsync scans a JavaScript or TypeScript source tree for imported modules, resolves each against the npm registry, and reconciles the result with package.json.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newSyncCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newServeCmd())

	return root.ExecuteContext(ctx)
}

// newRunner creates a pipeline runner for CLI use.
func newRunner(ctx context.Context, noCache bool) *pipeline.Runner {
	return pipeline.NewRunner(newCache(noCache), nil, loggerFromContext(ctx))
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return c
}

// cacheDir returns the cache directory using XDG standard (~/.cache/depsync/).
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

// applyConfig layers config file values under the flag values already set
// on opts. A bad config file fails the command; a missing one is fine.
func applyConfig(opts *pipeline.Options, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.Apply(opts)
	return nil
}
