package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tracetower/internal/server"
	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/store"
)

const defaultListen = ":8080"

// serveCommand creates the serve command exposing the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen   string
		redisURL string
		mongoURI string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the processing pipeline over HTTP",
		Long: `Serve the processing pipeline over HTTP.

The API accepts trace documents on POST /api/process and returns
rendered artifacts. POST /api/traces additionally persists the document
and its layout for later retrieval.

With --redis, layouts and artifacts are cached in Redis so replicas
share one cache; otherwise the local file cache is used. With --mongo,
the trace history is stored in MongoDB; otherwise it lives in memory
and is lost on restart. Both can also be set in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = c.Config.Serve.Listen
			}
			if listen == "" {
				listen = defaultListen
			}
			if redisURL == "" {
				redisURL = c.Config.Serve.RedisURL
			}
			if mongoURI == "" {
				mongoURI = c.Config.Serve.MongoURI
			}
			return c.runServe(cmd.Context(), listen, redisURL, mongoURI)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&redisURL, "redis", "", "Redis URL for the shared cache")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB URI for the trace history")

	return cmd
}

// runServe assembles cache, store, and router, then serves until the
// context is cancelled.
func (c *CLI) runServe(ctx context.Context, listen, redisURL, mongoURI string) error {
	cch, err := c.serveCache(ctx, redisURL)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer cch.Close()

	st, err := c.serveStore(ctx, mongoURI)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close(context.Background())

	runner := pipeline.NewRunner(cch, nil, c.Logger)
	srv := server.New(runner, st, c.Logger)

	httpServer := &http.Server{
		Addr:              listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("serving", "addr", listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// serveCache picks Redis when configured, the local file cache
// otherwise.
func (c *CLI) serveCache(ctx context.Context, redisURL string) (cache.Cache, error) {
	if redisURL != "" {
		c.Logger.Info("using redis cache")
		return cache.NewRedisCache(ctx, redisURL)
	}
	return newCache(false)
}

// serveStore picks MongoDB when configured, memory otherwise.
func (c *CLI) serveStore(ctx context.Context, mongoURI string) (store.Store, error) {
	if mongoURI != "" {
		c.Logger.Info("using mongodb store")
		return store.NewMongoStore(ctx, mongoURI)
	}
	c.Logger.Warn("no --mongo given; trace history is in-memory only")
	return store.NewMemoryStore(), nil
}
