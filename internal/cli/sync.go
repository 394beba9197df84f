package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/pkg/errors"
	"github.com/matzehuels/depsync/pkg/manifest"
	"github.com/matzehuels/depsync/pkg/pipeline"
	"github.com/matzehuels/depsync/pkg/reconcile"
)

// syncOpts holds the command-line flags for the sync command.
type syncOpts struct {
	manifestPath string
	registry     string
	configPath   string
	concurrency  int
	prefix       string
	strategy     string
	update       bool
	write        bool
	interactive  bool
	refresh      bool
	noCache      bool
	excludes     []string
	ignores      []string
}

// newSyncCmd creates the sync command, the tool's main entry point.
func newSyncCmd() *cobra.Command {
	var opts syncOpts

	cmd := &cobra.Command{
		Use:   "sync [dir]",
		Short: "Reconcile package.json with the modules your source imports",
		Long: `Scan a source tree for imported modules, resolve each against the npm
registry, and diff the outcome against package.json.

By default sync is a dry run: it reports what would change. Pass --write to
apply additions (and, with --update, version bumps) to the manifest.

Examples:
  depsync sync                        # dry run against the current directory
  depsync sync ./app --write          # add newly imported packages
  depsync sync --write --update       # also bump outdated declarations
  depsync sync --write -i --update    # pick the bumps interactively`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runSync(c.Context(), &opts, root)
		},
	}

	cmd.Flags().StringVarP(&opts.manifestPath, "manifest", "m", "", "path to package.json (default: <dir>/package.json)")
	cmd.Flags().StringVar(&opts.registry, "registry", "", "npm registry URL")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default: ~/.config/depsync/config.toml)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "registry lookup workers")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", `version prefix for merged entries (default "^")`)
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "reconcile strategy: range or exact")
	cmd.Flags().BoolVarP(&opts.update, "update", "u", false, "merge version bumps for outdated declarations")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write the merged manifest (default: dry run)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "review version bumps before writing")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached registry responses")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache entirely")
	cmd.Flags().StringSliceVar(&opts.excludes, "exclude", nil, "additional directory names to skip")
	cmd.Flags().StringSliceVar(&opts.ignores, "ignore", nil, "module names to ignore")

	return cmd
}

func runSync(ctx context.Context, o *syncOpts, root string) error {
	logger := loggerFromContext(ctx)

	manifestPath := o.manifestPath
	if manifestPath == "" {
		manifestPath = filepath.Join(root, manifest.Filename)
	}

	interactive := o.interactive && o.write && o.update
	popts := pipeline.Options{
		Root:           root,
		ManifestPath:   manifestPath,
		RegistryURL:    o.registry,
		Concurrency:    o.concurrency,
		Refresh:        o.refresh,
		Update:         o.update,
		Persist:        o.write && !interactive,
		Strategy:       reconcile.Strategy(o.strategy),
		Prefix:         o.prefix,
		ExcludeDirs:    o.excludes,
		IgnorePackages: o.ignores,
		Logger:         logger,
	}
	if err := applyConfig(&popts, o.configPath); err != nil {
		return err
	}
	if popts.Prefix == "" {
		popts.Prefix = pipeline.DefaultPrefix
	}

	runner := newRunner(ctx, o.noCache)
	defer runner.Close()

	sp := newSpinnerWithContext(ctx, "Resolving against registry...")
	sp.Start()
	prog := newProgress(logger)
	result, err := runner.Execute(ctx, popts)
	sp.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Resolved %d of %d modules", len(result.Resolved), len(result.Modules)))

	printReport(result)

	if interactive {
		return applyReviewed(popts, result)
	}

	switch {
	case result.ManifestWritten:
		printSuccess("Wrote %s", popts.ManifestPath)
	case o.write:
		printWarning("Nothing written, manifest was not readable")
	default:
		printInfo("Dry run, pass --write to apply")
	}
	return nil
}

// printReport renders the reconciliation outcome.
func printReport(result *pipeline.Result) {
	fmt.Println()
	fmt.Print(renderVersions("Added", result.Report.Added, "nothing new"))
	fmt.Print(renderUpdates("Updates available", result.Report.Updated))
	fmt.Print(renderVersions("Up to date", result.Report.Unchanged, "nothing declared yet"))
	fmt.Println()

	for _, f := range result.Failures {
		printWarning("%s: %s", f.Name, errors.UserMessage(f.Err))
	}
}

// applyReviewed runs the interactive update review and writes the manifest
// with the additions plus whichever bumps the user kept. With no bumps
// pending there is nothing to review and the additions are written directly.
func applyReviewed(popts pipeline.Options, result *pipeline.Result) error {
	chosen := map[string]string{}
	if len(result.Report.Updated) > 0 {
		reviewed, accepted, err := reviewUpdates(result.Report.Updated)
		if err != nil {
			return err
		}
		if !accepted {
			printInfo("Review cancelled, nothing written")
			return nil
		}
		chosen = reviewed
	}

	m, err := manifest.Load(popts.ManifestPath)
	if err != nil {
		return err
	}
	m.Merge(result.Report.Added, popts.Prefix, false)
	m.Merge(chosen, popts.Prefix, true)
	if err := m.Save(popts.ManifestPath); err != nil {
		return err
	}

	printSuccess("Wrote %s (%d added, %d updated)", popts.ManifestPath, len(result.Report.Added), len(chosen))
	return nil
}
