package resolve

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/depsync/pkg/registry"
)

// Fetcher retrieves the published versions of a package from a registry.
type Fetcher interface {
	// Versions returns every published version of the named package. If
	// refresh is true, cached data is bypassed.
	Versions(ctx context.Context, name string, refresh bool) ([]string, error)
}

// Result holds the outcome of a resolution pass. Every input name lands in
// exactly one of the two slices, both sorted by name.
type Result struct {
	Candidates []Candidate
	Failures   []Failure
}

type outcome struct {
	name     string
	versions []string
	err      error
}

// Resolve looks up every name against the registry using a bounded worker
// pool. Lookups run concurrently and complete in arbitrary order; Resolve
// returns only once each name has a terminal outcome.
//
// A name the registry does not know becomes a Candidate with no versions.
// A lookup that still fails after retries becomes a Failure; other names
// are unaffected. Context cancellation abandons in-flight lookups and
// returns the context error with no partial result.
func Resolve(ctx context.Context, names []string, fetcher Fetcher, opts Options) (*Result, error) {
	opts = opts.WithDefaults()

	unique := slices.Clone(names)
	slices.Sort(unique)
	unique = slices.Compact(unique)
	if len(unique) == 0 {
		return &Result{}, nil
	}

	jobs := make(chan string, len(unique))
	outcomes := make(chan outcome, len(unique))

	var wg sync.WaitGroup
	workers := min(opts.Concurrency, len(unique))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				if ctx.Err() != nil {
					continue
				}
				versions, err := fetcher.Versions(ctx, name, opts.Refresh)
				outcomes <- outcome{name: name, versions: versions, err: err}
			}
		}()
	}

	for _, name := range unique {
		jobs <- name
	}
	close(jobs)

	res := &Result{}
	for range unique {
		select {
		case o := <-outcomes:
			// An outcome can land in the same instant the context expires.
			// Cancellation wins, whichever branch the select picked.
			if ctx.Err() != nil {
				wg.Wait()
				return nil, ctx.Err()
			}
			switch {
			case o.err == nil:
				res.Candidates = append(res.Candidates, Candidate{Name: o.name, Versions: o.versions})
			case errors.Is(o.err, registry.ErrNotFound):
				opts.Logger("not in registry: %s", o.name)
				res.Candidates = append(res.Candidates, Candidate{Name: o.name})
			default:
				opts.Logger("lookup failed: %s: %v", o.name, o.err)
				res.Failures = append(res.Failures, Failure{Name: o.name, Err: o.err})
			}
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	wg.Wait()

	slices.SortFunc(res.Candidates, func(a, b Candidate) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(res.Failures, func(a, b Failure) int { return strings.Compare(a.Name, b.Name) })
	return res, nil
}
