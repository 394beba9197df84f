// Package resolve turns discovered module names into registry version
// candidates and picks the best release for each.
//
// Resolution fans a set of names out over a bounded worker pool, one
// registry lookup per distinct name. Selection is a pure pass over the
// collected candidates. The two halves are separate so selection can be
// re-run (or tested) without touching the network.
package resolve

const DefaultConcurrency = 8 // Default worker pool size for registry lookups

// Candidate is the published version set for one module name. A name that
// the registry does not know keeps an empty Versions slice; selection
// reports it as a failure rather than dropping it.
type Candidate struct {
	Name     string
	Versions []string
}

// Failure records a name that could not be resolved, with the terminal
// error after retries.
type Failure struct {
	Name string
	Err  error
}

// Options configures resolution behavior.
type Options struct {
	Concurrency int                  // Worker pool size (default: 8)
	Refresh     bool                 // Bypass cached registry responses
	Logger      func(string, ...any) // Progress/error callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}
