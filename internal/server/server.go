// Package server exposes the sync pipeline over a small HTTP API.
//
// Runs are asynchronous: POST /v1/runs starts a pipeline in the background
// and returns a run ID, GET /v1/runs/{id} reports progress and, once
// finished, the reconciliation report. Reports live in a [store.Store].
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/depsync/pkg/buildinfo"
	"github.com/matzehuels/depsync/pkg/cache"
	"github.com/matzehuels/depsync/pkg/errors"
	"github.com/matzehuels/depsync/pkg/pipeline"
	"github.com/matzehuels/depsync/pkg/resolve"
	"github.com/matzehuels/depsync/pkg/store"
)

const (
	defaultListLimit = 20

	// runTimeout bounds a background pipeline run.
	runTimeout = 10 * time.Minute

	// storeTimeout bounds the write recording a run's outcome.
	storeTimeout = 30 * time.Second
)

// Server wires the pipeline runner and run store into an HTTP handler.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger

	// Fetcher overrides the registry client on every run. Used by tests
	// to avoid real registry traffic.
	Fetcher resolve.Fetcher

	// Timeout bounds a background pipeline run. Zero means runTimeout.
	Timeout time.Duration
}

// New creates a server around the given runner and store.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: st, logger: logger}
}

// Router builds the chi route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/runs", s.handleCreateRun)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var params store.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "request body is not valid JSON"))
		return
	}
	if params.Root == "" {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "root is required"))
		return
	}

	run := store.New(params)
	if err := s.store.Put(r.Context(), run); err != nil {
		writeError(w, err)
		return
	}

	go s.execute(run)
	writeJSON(w, http.StatusAccepted, run)
}

// execute runs the pipeline for a submitted run and records the outcome.
// Detached from the request context so the run survives the response.
func (s *Server) execute(run *store.Run) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = runTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opts := run.Params.Options()
	opts.Logger = s.logger.With("run", run.ID)
	opts.Fetcher = s.Fetcher

	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		run.Fail(err)
		s.logger.Error("run failed", "run", run.ID, "err", err)
	} else {
		run.Finish(store.NewReport(result))
	}

	// The run context may already be past its deadline, most likely when the
	// run failed for exactly that reason. The outcome write gets its own.
	putCtx, putCancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer putCancel()
	if err := s.store.Put(putCtx, run); err != nil {
		s.logger.Error("storing run outcome failed", "run", run.ID, "err", err)
	}
	s.cacheRun(putCtx, run)
}

// cacheRun keeps a copy of the finished run in the cache so status polls
// can be answered without a store round trip. Finished runs never change,
// which makes them safe to serve from cache until the TTL lapses.
func (s *Server) cacheRun(ctx context.Context, run *store.Run) {
	data, err := json.Marshal(run)
	if err != nil {
		return
	}
	if err := s.runner.Cache.Set(ctx, s.runner.Keyer.RunKey(run.ID), data, cache.TTLRun); err != nil {
		s.logger.Debug("caching run failed", "run", run.ID, "err", err)
	}
}

func (s *Server) cachedRun(ctx context.Context, id string) (*store.Run, bool) {
	data, hit, err := s.runner.Cache.Get(ctx, s.runner.Keyer.RunKey(id))
	if err != nil || !hit {
		return nil, false
	}
	var run store.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, false
	}
	return &run, true
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if run, ok := s.cachedRun(r.Context(), id); ok {
		writeJSON(w, http.StatusOK, run)
		return
	}
	run, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}

// statusFor maps structured error codes onto HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidManifest, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeRunNotFound,
		errors.ErrCodePackageNotFound, errors.ErrCodeManifestNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNetwork, errors.ErrCodeTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
