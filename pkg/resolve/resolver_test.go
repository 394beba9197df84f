package resolve

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/depsync/pkg/registry"
)

type mockFetcher struct {
	mu       sync.Mutex
	versions map[string][]string
	errs     map[string]error
	calls    map[string]int
	delay    time.Duration
}

func (m *mockFetcher) Versions(ctx context.Context, name string, refresh bool) ([]string, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := m.errs[name]; ok {
		return nil, err
	}
	return m.versions[name], nil
}

func TestResolve(t *testing.T) {
	f := &mockFetcher{versions: map[string][]string{
		"express": {"4.17.0", "4.18.2"},
		"lodash":  {"4.17.21"},
	}}

	res, err := Resolve(context.Background(), []string{"lodash", "express"}, f, Options{})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(res.Candidates) != 2 || len(res.Failures) != 0 {
		t.Fatalf("got %d candidates, %d failures", len(res.Candidates), len(res.Failures))
	}
	if res.Candidates[0].Name != "express" || res.Candidates[1].Name != "lodash" {
		t.Errorf("candidates not sorted by name: %v", res.Candidates)
	}
	if len(res.Candidates[0].Versions) != 2 {
		t.Errorf("express versions = %v", res.Candidates[0].Versions)
	}
}

func TestResolveDeduplicatesNames(t *testing.T) {
	f := &mockFetcher{versions: map[string][]string{"react": {"18.2.0"}}}

	res, err := Resolve(context.Background(), []string{"react", "react", "react"}, f, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if f.calls["react"] != 1 {
		t.Errorf("lookup count = %d, want 1", f.calls["react"])
	}
	if len(res.Candidates) != 1 {
		t.Errorf("candidates = %v, want one entry", res.Candidates)
	}
}

func TestResolveNotFoundKeepsEmptyCandidate(t *testing.T) {
	f := &mockFetcher{
		versions: map[string][]string{"left-pad": {"1.3.0"}},
		errs:     map[string]error{"no-such-pkg": registry.ErrNotFound},
	}

	res, err := Resolve(context.Background(), []string{"left-pad", "no-such-pkg"}, f, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("candidates = %v, want both names", res.Candidates)
	}
	if len(res.Failures) != 0 {
		t.Errorf("failures = %v, want none for a missing package", res.Failures)
	}
	if got := res.Candidates[1]; got.Name != "no-such-pkg" || len(got.Versions) != 0 {
		t.Errorf("missing package candidate = %+v, want empty version set", got)
	}
}

func TestResolveIsolatesFailures(t *testing.T) {
	f := &mockFetcher{
		versions: map[string][]string{"good": {"1.0.0"}},
		errs:     map[string]error{"flaky": registry.ErrNetwork},
	}

	res, err := Resolve(context.Background(), []string{"good", "flaky"}, f, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].Name != "good" {
		t.Errorf("candidates = %v, want only the healthy name", res.Candidates)
	}
	if len(res.Failures) != 1 || res.Failures[0].Name != "flaky" {
		t.Errorf("failures = %v, want only the failing name", res.Failures)
	}
}

func TestResolveEmptyInput(t *testing.T) {
	res, err := Resolve(context.Background(), nil, &mockFetcher{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Candidates) != 0 || len(res.Failures) != 0 {
		t.Errorf("got %+v, want empty result", res)
	}
}

func TestResolveCancellation(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f"}
	f := &mockFetcher{versions: map[string][]string{}, delay: 100 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res, err := Resolve(ctx, names, f, Options{Concurrency: 2})
	if err == nil {
		t.Fatal("Resolve() error = nil, want context error")
	}
	if res != nil {
		t.Errorf("result = %+v, want nil on cancellation", res)
	}
}

func TestResolveDeadlineWinsOverLateOutcome(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// The fetcher only returns once the deadline has fired, so its outcome
	// and the expired context race in the collector. The run must end with
	// the context error, never with the outcome counted as a failure.
	f := fetcherFunc(func(ctx context.Context, name string, refresh bool) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	res, err := Resolve(ctx, []string{"express"}, f, Options{})
	if err != context.DeadlineExceeded {
		t.Fatalf("Resolve() error = %v, want context.DeadlineExceeded", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil on an expired context", res)
	}
}

func TestResolvePassesRefresh(t *testing.T) {
	var sawRefresh bool
	f := fetcherFunc(func(ctx context.Context, name string, refresh bool) ([]string, error) {
		sawRefresh = refresh
		return []string{"1.0.0"}, nil
	})

	if _, err := Resolve(context.Background(), []string{"x"}, f, Options{Refresh: true}); err != nil {
		t.Fatal(err)
	}
	if !sawRefresh {
		t.Error("refresh flag not forwarded to fetcher")
	}
}

type fetcherFunc func(context.Context, string, bool) ([]string, error)

func (f fetcherFunc) Versions(ctx context.Context, name string, refresh bool) ([]string, error) {
	return f(ctx, name, refresh)
}
