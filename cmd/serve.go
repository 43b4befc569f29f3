package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/clock"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/config"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/database"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/handler"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/metrics"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/repository"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/service"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/telemetry"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	*globalOptions
	host    string
	port    int
	migrate bool
}

func newServeCommand(global *globalOptions) *cobra.Command {
	opts := &serveOptions{globalOptions: global}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server and begin accepting API requests.

Examples:
  # Start with configuration from the environment
  event-registration-api serve

  # Apply pending migrations first, then listen on port 9090
  event-registration-api serve --migrate --port 9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "server port (default: 8080)")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServer(ctx context.Context, opts *serveOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("environment", cfg.Environment).
		Msg("starting event registration API")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown failed")
		}
	}()

	if opts.migrate {
		if err := database.MigrateUp(cfg.Database.DatabaseURL()); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info().Int32("max_conns", pool.Config().MaxConns).Msg("connected to PostgreSQL")

	if err := metrics.RegisterPool(pool); err != nil {
		return fmt.Errorf("pool metrics: %w", err)
	}

	store := repository.NewStore(pool, repository.WithLockTimeout(cfg.Database.LockTimeout))
	svc := service.NewEventService(store, clock.NewSystem(), logger)

	limiter := handler.NewRateLimiter(cfg.RateLimit)
	defer limiter.Stop()

	server := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: handler.NewRouter(handler.RouterConfig{
			Service:     svc,
			DB:          store,
			Logger:      logger,
			CORS:        cfg.CORS,
			RateLimiter: limiter,
			Version:     Version,
		}),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
