package store

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/depsync/pkg/errors"
	"github.com/matzehuels/depsync/pkg/pipeline"
	"github.com/matzehuels/depsync/pkg/reconcile"
	"github.com/matzehuels/depsync/pkg/resolve"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	run := New(Params{Root: "/tmp/app", Persist: true})
	if run.ID == "" || run.Status != StatusRunning {
		t.Fatalf("New() = %+v, want running run with id", run)
	}
	if err := s.Put(ctx, run); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Params.Root != "/tmp/app" || got.Status != StatusRunning {
		t.Errorf("Get() = %+v", got)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, errors.ErrCodeRunNotFound) {
		t.Errorf("error code = %v, want RUN_NOT_FOUND", errors.GetCode(err))
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	run := New(Params{Root: "/a"})
	if err := s.Put(ctx, run); err != nil {
		t.Fatal(err)
	}
	run.Status = StatusFailed

	got, err := s.Get(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusRunning {
		t.Error("stored run aliased the caller's copy")
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i, root := range []string{"/old", "/mid", "/new"} {
		run := New(Params{Root: root})
		run.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		if err := s.Put(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("List() returned %d runs, want 2", len(runs))
	}
	if runs[0].Params.Root != "/new" || runs[1].Params.Root != "/mid" {
		t.Errorf("List() order = %q, %q, want newest first", runs[0].Params.Root, runs[1].Params.Root)
	}
}

func TestRunLifecycle(t *testing.T) {
	run := New(Params{Root: "/a"})

	run.Finish(&Report{Modules: []string{"react"}})
	if run.Status != StatusSucceeded || run.Report == nil {
		t.Errorf("Finish() = %+v", run)
	}

	failed := New(Params{Root: "/b"})
	failed.Fail(errors.New(errors.ErrCodeScanFailed, "walk failed"))
	if failed.Status != StatusFailed || failed.Error == "" {
		t.Errorf("Fail() = %+v", failed)
	}
}

func TestNewReport(t *testing.T) {
	res := &pipeline.Result{
		Modules:  []string{"express", "ghost"},
		Resolved: map[string]string{"express": "4.18.2"},
		Failures: []resolve.Failure{
			{Name: "ghost", Err: errors.New(errors.ErrCodePackageNotFound, "no published versions for ghost")},
		},
		Report: &reconcile.Result{
			Added:     map[string]string{"express": "4.18.2"},
			Updated:   map[string]reconcile.Change{},
			Unchanged: map[string]string{},
		},
		ManifestWritten: true,
	}

	report := NewReport(res)
	if report.Resolved["express"] != "4.18.2" || !report.ManifestWritten {
		t.Errorf("NewReport() = %+v", report)
	}
	if report.Failures["ghost"] == "" {
		t.Error("failure message not flattened")
	}
}

func TestParamsOptions(t *testing.T) {
	p := Params{Root: "/app", Registry: "https://r.example", Update: true, Strategy: "exact"}
	opts := p.Options()
	if opts.Root != "/app" || opts.RegistryURL != "https://r.example" || !opts.Update {
		t.Errorf("Options() = %+v", opts)
	}
	if opts.Strategy != reconcile.StrategyExact {
		t.Errorf("Strategy = %q", opts.Strategy)
	}
}
