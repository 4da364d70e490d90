package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/flatmol/flatmol/internal/server"
	"github.com/flatmol/flatmol/pkg/cache"
	"github.com/flatmol/flatmol/pkg/session"
)

// shutdownGrace bounds how long in-flight requests get on shutdown.
const shutdownGrace = 10 * time.Second

// newServeCmd creates the serve command: the live viewer HTTP server.
func newServeCmd() *cobra.Command {
	var (
		addr     string
		redisURL string
		mongoURI string
		ttlHours int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live viewer HTTP server",
		Long: `Run the live viewer HTTP server.

Sessions live in memory by default; pass --mongo to persist them
across restarts. Pass --redis to share rendered artifacts between
replicas.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			store, err := newSessionStore(ctx, mongoURI)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			opts := []server.Option{server.WithTTL(time.Duration(ttlHours) * time.Hour)}
			if redisURL != "" {
				artifacts, err := cache.NewRedisCache(ctx, redisURL)
				if err != nil {
					return err
				}
				defer artifacts.Close()
				opts = append(opts, server.WithArtifactCache(artifacts))
			}
			if cfg, err := loadRenderConfig(); err == nil {
				opts = append(opts, server.WithConfig(cfg))
			}

			srv := server.New(store, logger, opts...)
			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				if err := httpSrv.Shutdown(shutdownCtx); err != nil {
					return err
				}
				return ctx.Err()
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisURL, "redis", "", "redis URL for the shared artifact cache")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "mongodb URI for persistent sessions")
	cmd.Flags().IntVar(&ttlHours, "ttl", 24, "session lifetime in hours")

	return cmd
}

// newSessionStore opens the mongo store when a URI is given, otherwise
// sessions stay in memory.
func newSessionStore(ctx context.Context, mongoURI string) (session.Store, error) {
	if mongoURI == "" {
		return session.NewMemoryStore(), nil
	}
	return session.NewMongoStore(ctx, mongoURI, "")
}
