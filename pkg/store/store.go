// Package store persists pipeline run reports.
//
// The HTTP API runs pipelines asynchronously and hands the caller a run ID;
// this package is where those runs live between submission and retrieval.
// Two backends are provided:
//   - memory: in-memory storage for development/testing and single instances
//   - mongo: MongoDB-backed storage for deployments that need durability
//
// Runs hold a serializable snapshot of the request parameters and the
// outcome, never live pipeline state.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/depsync/pkg/pipeline"
	"github.com/matzehuels/depsync/pkg/reconcile"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Params is the serializable subset of pipeline options a run was started
// with. Runtime-only fields (logger, callbacks) are deliberately absent.
type Params struct {
	Root         string `json:"root" bson:"root"`
	ManifestPath string `json:"manifest_path,omitempty" bson:"manifest_path,omitempty"`
	Registry     string `json:"registry,omitempty" bson:"registry,omitempty"`
	Concurrency  int    `json:"concurrency,omitempty" bson:"concurrency,omitempty"`
	Update       bool   `json:"update,omitempty" bson:"update,omitempty"`
	Persist      bool   `json:"persist,omitempty" bson:"persist,omitempty"`
	Refresh      bool   `json:"refresh,omitempty" bson:"refresh,omitempty"`
	Strategy     string `json:"strategy,omitempty" bson:"strategy,omitempty"`
}

// Options converts the stored parameters back into pipeline options.
func (p Params) Options() pipeline.Options {
	return pipeline.Options{
		Root:         p.Root,
		ManifestPath: p.ManifestPath,
		RegistryURL:  p.Registry,
		Concurrency:  p.Concurrency,
		Update:       p.Update,
		Persist:      p.Persist,
		Refresh:      p.Refresh,
		Strategy:     reconcile.Strategy(p.Strategy),
	}
}

// Report is the serializable outcome of a finished run.
type Report struct {
	Modules         []string                    `json:"modules" bson:"modules"`
	Resolved        map[string]string           `json:"resolved" bson:"resolved"`
	Failures        map[string]string           `json:"failures,omitempty" bson:"failures,omitempty"`
	Added           map[string]string           `json:"added" bson:"added"`
	Updated         map[string]reconcile.Change `json:"updated" bson:"updated"`
	Unchanged       map[string]string           `json:"unchanged" bson:"unchanged"`
	ManifestWritten bool                        `json:"manifest_written" bson:"manifest_written"`
}

// NewReport snapshots a pipeline result into its storable form. Failure
// errors are flattened to messages.
func NewReport(res *pipeline.Result) *Report {
	r := &Report{
		Modules:         res.Modules,
		Resolved:        res.Resolved,
		Added:           res.Report.Added,
		Updated:         res.Report.Updated,
		Unchanged:       res.Report.Unchanged,
		ManifestWritten: res.ManifestWritten,
	}
	if len(res.Failures) > 0 {
		r.Failures = make(map[string]string, len(res.Failures))
		for _, f := range res.Failures {
			r.Failures[f.Name] = f.Err.Error()
		}
	}
	return r
}

// Run is one pipeline execution tracked by the API.
type Run struct {
	ID        string    `json:"id" bson:"_id"`
	Status    Status    `json:"status" bson:"status"`
	Params    Params    `json:"params" bson:"params"`
	Report    *Report   `json:"report,omitempty" bson:"report,omitempty"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// New creates a running Run with a fresh ID.
func New(params Params) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:        uuid.NewString(),
		Status:    StatusRunning,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Finish marks the run succeeded with its report.
func (r *Run) Finish(report *Report) {
	r.Status = StatusSucceeded
	r.Report = report
	r.UpdatedAt = time.Now().UTC()
}

// Fail marks the run failed with the terminal error.
func (r *Run) Fail(err error) {
	r.Status = StatusFailed
	r.Error = err.Error()
	r.UpdatedAt = time.Now().UTC()
}

// Store is the interface for run storage backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put inserts or replaces a run.
	Put(ctx context.Context, run *Run) error

	// Get retrieves a run by ID. A missing run is reported with code
	// RUN_NOT_FOUND.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns the most recent runs, newest first, capped at limit.
	List(ctx context.Context, limit int) ([]*Run, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
