package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depsync/internal/server"
	"github.com/matzehuels/depsync/pkg/cache"
	"github.com/matzehuels/depsync/pkg/pipeline"
	"github.com/matzehuels/depsync/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	mongoURI  string
	redisAddr string
	noCache   bool
}

// newServeCmd creates the serve command running the HTTP API.
func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the depsync HTTP API",
		Long: `Serve the sync pipeline over HTTP. Runs are started with POST /v1/runs
and polled with GET /v1/runs/{id}.

Run reports are held in memory unless --mongo-uri points at a MongoDB
instance. With --redis-addr, resolution results are cached in Redis so
multiple instances share one cache.`,
		RunE: func(c *cobra.Command, args []string) error {
			return runServe(c.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "MongoDB connection string for durable run storage")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "Redis address for shared resolution caching")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable resolution caching")
	return cmd
}

func runServe(ctx context.Context, o *serveOpts) error {
	logger := loggerFromContext(ctx)

	runStore, err := newRunStore(ctx, o)
	if err != nil {
		return err
	}
	defer runStore.Close(context.Background())

	c, err := newServeCache(ctx, o)
	if err != nil {
		return err
	}
	var keyer cache.Keyer
	if o.redisAddr != "" {
		// A shared Redis may serve more than this tool; keep our keys in
		// their own namespace.
		keyer = cache.NewScopedKeyer(nil, appName+":")
	}
	runner := pipeline.NewRunner(c, keyer, logger)
	defer runner.Close()

	srv := &http.Server{
		Addr:    o.addr,
		Handler: server.New(runner, runStore, logger).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", o.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRunStore(ctx context.Context, o *serveOpts) (store.Store, error) {
	if o.mongoURI == "" {
		return store.NewMemoryStore(), nil
	}
	return store.NewMongoStore(ctx, store.MongoConfig{URI: o.mongoURI})
}

func newServeCache(ctx context.Context, o *serveOpts) (cache.Cache, error) {
	if o.noCache {
		return cache.NewNullCache(), nil
	}
	if o.redisAddr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: o.redisAddr})
	}
	return newCache(false), nil
}
