/*
serve.go - HTTP server command

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags) and validate it
  2. Open the store (memory or SQLite)
  3. Optionally seed a built-in scenario
  4. Load the planning session
  5. Start the router and the rollover scheduler

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler
  4. Close the store

EXAMPLES:
  planner serve
  planner serve --backend sqlite --db ./data/budget.db
  planner serve --seed credit-card-crunch --port 3000
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/api"
	"github.com/warp/budget-engine/config"
	"github.com/warp/budget-engine/factory"
	"github.com/warp/budget-engine/logging"
	"github.com/warp/budget-engine/metrics"
	"github.com/warp/budget-engine/planning"
	"github.com/warp/budget-engine/planning/store"
	"github.com/warp/budget-engine/store/sqlite"
)

const shutdownTimeout = 30 * time.Second

type serveOptions struct {
	*rootOptions
	port    string
	backend string
	dbPath  string
	seed    string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planner HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.port, "port", "", "HTTP port; overrides PORT")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Data backend (memory, sqlite); overrides DATA_BACKEND")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database path; overrides SQLITE_DB_PATH")
	cmd.Flags().StringVar(&opts.seed, "seed", "", "Seed a built-in scenario before serving")
	return cmd
}

func (o *serveOptions) config() *config.Config {
	cfg := o.loadConfig()
	if o.port != "" {
		cfg.Port = o.port
	}
	if o.backend != "" {
		cfg.DataBackend = o.backend
	}
	if o.dbPath != "" {
		cfg.SQLiteDBPath = o.dbPath
	}
	return cfg
}

func runServe(ctx context.Context, opts *serveOptions) error {
	cfg := opts.config()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg, logging.ComponentApp)

	backend, closer, err := openBackend(cfg, logging.WithComponent(logger, logging.ComponentStore))
	if err != nil {
		return err
	}
	defer closer.Close()

	clock := planning.SystemClock{}
	if opts.seed != "" {
		sc, ok := factory.Preset(opts.seed)
		if !ok {
			return fmt.Errorf("unknown scenario %q", opts.seed)
		}
		if err := sc.Seed(ctx, backend, clock.Now()); err != nil {
			return err
		}
		logger.Info("Scenario seeded", logging.FieldScenario, sc.ID)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	session := planning.NewSession(cfg.Session(), backend, backend,
		planning.WithClock(clock),
		planning.WithLogger(logging.WithComponent(logger, logging.ComponentSession)),
		planning.WithObserver(m))

	// A failed first load is not fatal: the API answers 503 until a reload
	// or the next rollover check succeeds.
	if _, err := session.Load(ctx); err != nil {
		logger.Error("Initial load failed", logging.FieldError, err)
	}

	handler := api.NewHandler(session, backend, clock, logging.WithComponent(logger, logging.ComponentHTTP))
	scheduler := api.NewRolloverScheduler(session, logging.WithComponent(logger, logging.ComponentScheduler))
	scheduler.CheckInterval = cfg.RolloverInterval
	handler.Scheduler = scheduler

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.CORSOrigins,
		Metrics:        m.Handler(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			logging.FieldAddr, server.Addr,
			logging.FieldBackend, cfg.DataBackend,
			"months", fmt.Sprintf("%d+1+%d", cfg.HistoricalMonths, cfg.FutureMonths))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	scheduler.Start()
	defer scheduler.Stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// openBackend opens the configured store. The returned closer is never nil.
func openBackend(cfg *config.Config, logger *slog.Logger) (api.Backend, io.Closer, error) {
	switch cfg.DataBackend {
	case config.BackendSQLite:
		if err := cfg.EnsureDataDir(); err != nil {
			return nil, nil, err
		}
		s, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.Info("SQLite store opened", "path", cfg.SQLiteDBPath)
		return s, s, nil
	default:
		logger.Info("Using in-memory store")
		return store.NewMemory(), nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
