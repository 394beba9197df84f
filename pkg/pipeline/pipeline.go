// Package pipeline runs the complete scan → resolve → reconcile flow.
//
// This package implements the orchestration shared by the CLI and the HTTP
// API: walk a source tree, look every discovered module up in the registry,
// pick the best version for each, and diff the outcome against the
// project's manifest. Centralizing it here keeps both entry points on
// identical behavior.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Root: "./app", Persist: true}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(result.Report.Added), "new dependencies")
package pipeline

import (
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depsync/pkg/errors"
	"github.com/matzehuels/depsync/pkg/manifest"
	"github.com/matzehuels/depsync/pkg/reconcile"
	"github.com/matzehuels/depsync/pkg/registry/npm"
	"github.com/matzehuels/depsync/pkg/resolve"
)

const (
	// DefaultConcurrency is the registry lookup worker pool size.
	// Matches resolve.DefaultConcurrency so CLI and API agree.
	DefaultConcurrency = resolve.DefaultConcurrency

	// DefaultCacheTTL is how long registry HTTP responses stay cached.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultPrefix is the version range prefix applied when merging
	// resolved versions into the manifest ("^1.2.3").
	DefaultPrefix = "^"
)

// DefaultStrategy is the reconciliation strategy applied when none is set.
const DefaultStrategy = reconcile.StrategyRange

// Milestone identifies one of the pipeline's three completion events.
// Milestones always fire in this order.
type Milestone string

const (
	MilestoneScanComplete      Milestone = "scan_complete"
	MilestoneResolveComplete   Milestone = "resolve_complete"
	MilestoneReconcileComplete Milestone = "reconcile_complete"
)

// Progress is the payload delivered to the Options.OnProgress callback at
// each milestone. Only the fields for the completed stage are populated.
type Progress struct {
	Milestone  Milestone
	Modules    []string            // scan_complete
	Candidates []resolve.Candidate // resolve_complete
	Report     *reconcile.Result   // reconcile_complete
}

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Root is the source tree to scan. Required.
	Root string `json:"root"`

	// ManifestPath locates package.json (default: Root/package.json).
	ManifestPath string `json:"manifest_path,omitempty"`

	// RegistryURL overrides the npm registry endpoint.
	RegistryURL string `json:"registry_url,omitempty"`

	Concurrency int           `json:"concurrency,omitempty"`
	CacheTTL    time.Duration `json:"cache_ttl,omitempty"`
	Refresh     bool          `json:"refresh,omitempty"`

	// Update merges the Updated bucket into the manifest as well.
	// Without it, updates are detected and reported but not applied.
	Update bool `json:"update,omitempty"`

	// Persist writes the merged manifest back. False means dry-run.
	Persist bool `json:"persist,omitempty"`

	Strategy reconcile.Strategy `json:"strategy,omitempty"`
	Prefix   string             `json:"prefix,omitempty"`

	// Scan tuning.
	ExcludeDirs    []string `json:"exclude_dirs,omitempty"`
	IgnorePackages []string `json:"ignore_packages,omitempty"`

	// Runtime options (not serialized)
	Logger     *log.Logger     `json:"-"`
	OnProgress func(Progress)  `json:"-"`
	Fetcher    resolve.Fetcher `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Root == "" {
		return errors.New(errors.ErrCodeInvalidInput, "root is required")
	}
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if !o.Strategy.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "unknown strategy %q (must be range or exact)", o.Strategy)
	}

	if o.ManifestPath == "" {
		o.ManifestPath = filepath.Join(o.Root, manifest.Filename)
	}
	if o.RegistryURL == "" {
		o.RegistryURL = npm.DefaultBaseURL
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// emit delivers a progress event when a callback is registered.
func (o *Options) emit(p Progress) {
	if o.OnProgress != nil {
		o.OnProgress(p)
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Modules is the sorted set of discovered module names.
	Modules []string

	// Resolved maps each resolvable module to its selected version.
	Resolved map[string]string

	// Failures lists modules that could not be resolved to a version.
	Failures []resolve.Failure

	// Report is the reconciliation against the declared dependencies.
	Report *reconcile.Result

	// Merged is the dependency mapping after applying the report, or nil
	// when the manifest was unreadable.
	Merged map[string]string

	// ManifestWritten reports whether package.json was rewritten.
	ManifestWritten bool

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution timings.
type Stats struct {
	ModuleCount   int
	ScanTime      time.Duration
	ResolveTime   time.Duration
	ReconcileTime time.Duration
}

// CacheInfo tracks cache hits for the run.
type CacheInfo struct {
	ResolveHit bool // Whether the candidate set came from cache
}
