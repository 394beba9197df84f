package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depsync/pkg/cache"
	"github.com/matzehuels/depsync/pkg/errors"
	"github.com/matzehuels/depsync/pkg/manifest"
	"github.com/matzehuels/depsync/pkg/observability"
	"github.com/matzehuels/depsync/pkg/reconcile"
	"github.com/matzehuels/depsync/pkg/registry/npm"
	"github.com/matzehuels/depsync/pkg/resolve"
	"github.com/matzehuels/depsync/pkg/scan"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete scan → resolve → reconcile pipeline.
//
// A scanner failure is fatal and aborts before any registry traffic. An
// unreadable manifest is not: the run reconciles against an empty declared
// set and skips persistence. Cancellation mid-run returns the context
// error and leaves the manifest untouched.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Scan
	scanStart := time.Now()
	observability.Pipeline().OnScanStart(ctx, opts.Root)
	modules, err := scan.Scan(opts.Root, scan.Options{
		ExcludeDirs: opts.ExcludeDirs,
		Ignore:      opts.IgnorePackages,
		Logger:      func(format string, args ...any) { opts.Logger.Warnf(format, args...) },
	})
	result.Stats.ScanTime = time.Since(scanStart)
	observability.Pipeline().OnScanComplete(ctx, opts.Root, len(modules), result.Stats.ScanTime, err)
	if err != nil {
		return nil, err
	}
	result.Modules = modules
	result.Stats.ModuleCount = len(modules)
	opts.emit(Progress{Milestone: MilestoneScanComplete, Modules: modules})

	opts.Logger.Info("scanned source tree",
		"modules", len(modules),
		"duration", result.Stats.ScanTime)

	m, declared, manifestOK := r.loadManifest(opts)

	// Stage 2: Resolve
	resolveStart := time.Now()
	observability.Pipeline().OnResolveStart(ctx, opts.RegistryURL, len(modules))
	res, resolveHit, err := r.ResolveWithCacheInfo(ctx, modules, opts)
	result.Stats.ResolveTime = time.Since(resolveStart)
	if err != nil {
		observability.Pipeline().OnResolveComplete(ctx, opts.RegistryURL, 0, 0, result.Stats.ResolveTime, err)
		return nil, err
	}
	result.CacheInfo.ResolveHit = resolveHit

	resolved, selectFailures := resolve.Select(res.Candidates)
	result.Resolved = resolved
	result.Failures = append(res.Failures, selectFailures...)
	observability.Pipeline().OnResolveComplete(ctx, opts.RegistryURL,
		len(resolved), len(result.Failures), result.Stats.ResolveTime, nil)
	opts.emit(Progress{Milestone: MilestoneResolveComplete, Candidates: res.Candidates})

	opts.Logger.Info("resolved against registry",
		"resolved", len(resolved),
		"failed", len(result.Failures),
		"cached", resolveHit,
		"duration", result.Stats.ResolveTime)

	// Stage 3: Reconcile
	reconcileStart := time.Now()
	report := reconcile.Reconcile(resolved, declared, opts.Strategy)
	result.Report = report
	result.Stats.ReconcileTime = time.Since(reconcileStart)
	observability.Pipeline().OnReconcileComplete(ctx,
		len(report.Added), len(report.Updated), len(report.Unchanged), result.Stats.ReconcileTime)
	opts.emit(Progress{Milestone: MilestoneReconcileComplete, Report: report})

	opts.Logger.Info("reconciled manifest",
		"added", len(report.Added),
		"updated", len(report.Updated),
		"unchanged", len(report.Unchanged))

	if !manifestOK {
		if opts.Persist {
			opts.Logger.Warn("manifest unreadable, skipping persist", "path", opts.ManifestPath)
		}
		return result, nil
	}

	m.Merge(report.Added, opts.Prefix, false)
	if opts.Update {
		updates := make(map[string]string, len(report.Updated))
		for name, change := range report.Updated {
			updates[name] = change.Resolved
		}
		m.Merge(updates, opts.Prefix, true)
	}
	result.Merged = m.Declared()

	if opts.Persist {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := m.Save(opts.ManifestPath); err != nil {
			return nil, err
		}
		result.ManifestWritten = true
		opts.Logger.Info("wrote manifest", "path", opts.ManifestPath)
	}
	return result, nil
}

// loadManifest reads the manifest, tolerating a missing or malformed file.
// In that case the pipeline reconciles against an empty declared set.
func (r *Runner) loadManifest(opts Options) (*manifest.Manifest, map[string]string, bool) {
	m, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		opts.Logger.Warn("manifest unavailable", "path", opts.ManifestPath, "reason", errors.UserMessage(err))
		return nil, map[string]string{}, false
	}
	return m, m.Declared(), true
}

// ResolveWithCacheInfo resolves modules with candidate-set caching and
// reports whether the result came from cache. Only fully successful
// resolutions are cached; a run with failures is retried from scratch
// next time.
func (r *Runner) ResolveWithCacheInfo(ctx context.Context, modules []string, opts Options) (*resolve.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	key := r.Keyer.ResolveKey(cache.Hash([]byte(strings.Join(modules, "\n"))), cache.ResolveKeyOpts{
		Registry:    opts.RegistryURL,
		Concurrency: opts.Concurrency,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var candidates []resolve.Candidate
			if err := json.Unmarshal(data, &candidates); err == nil {
				observability.Cache().OnCacheHit(ctx, "resolve")
				return &resolve.Result{Candidates: candidates}, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "resolve")
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		client, err := npm.NewClient(opts.RegistryURL, opts.CacheTTL)
		if err != nil {
			return nil, false, err
		}
		fetcher = client
	}

	res, err := resolve.Resolve(ctx, modules, fetcher, resolve.Options{
		Concurrency: opts.Concurrency,
		Refresh:     opts.Refresh,
		Logger:      func(format string, args ...any) { opts.Logger.Warnf(format, args...) },
	})
	if err != nil {
		return nil, false, err
	}

	if len(res.Failures) == 0 {
		if data, err := json.Marshal(res.Candidates); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.TTLResolve); err == nil {
				observability.Cache().OnCacheSet(ctx, "resolve", len(data))
			}
		}
	}
	return res, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
