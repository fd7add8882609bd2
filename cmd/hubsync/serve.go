package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/hubsync/hubsync/internal/config"
	"github.com/hubsync/hubsync/internal/httpapi"
	"github.com/hubsync/hubsync/internal/hub"
	"github.com/hubsync/hubsync/internal/logging"
	"github.com/hubsync/hubsync/internal/managers"
	"github.com/hubsync/hubsync/internal/metrics"
	"github.com/hubsync/hubsync/internal/secrets"
	"github.com/hubsync/hubsync/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, background sync loop, and health monitor.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	logger, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: "serve"})
	if err != nil {
		return err
	}

	cfg, err := config.LoadOptionalDB()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	opts := hub.Options{SyncTimeout: cfg.SyncTimeout, SyncWorkers: cfg.SyncWorkers}
	if cfg.DatabaseURL != "" {
		pool, err = store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		st, err := store.New(pool)
		if err != nil {
			return err
		}
		opts.Store = st
	} else {
		logger.Warn("no DATABASE_URL configured, integrations are held in memory only")
	}

	h := hub.New(opts)
	(&hub.LogListener{Logger: logger}).Attach(h.Bus())

	deps := managers.Deps{}
	if cfg.VaultAddr != "" {
		resolver, err := secrets.NewVaultResolver(secrets.VaultOptions{
			Address:   cfg.VaultAddr,
			Token:     cfg.VaultToken,
			Namespace: cfg.VaultNamespace,
		})
		if err != nil {
			return err
		}
		deps.Resolver = resolver
	}
	if err := managers.Wire(h, deps); err != nil {
		return err
	}

	if opts.Store != nil {
		loaded, err := h.LoadFromStore(ctx)
		if err != nil {
			return err
		}
		logger.Info("loaded integrations from store", "count", loaded)
	}

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)
	metricsFailure := make(chan error, 1)
	if metricsErrCh != nil {
		go func() {
			if err := <-metricsErrCh; err != nil {
				slog.Error("metrics server failed", "err", err)
				metricsFailure <- err
				stop()
			}
		}()
	}

	syncScheduler := &hub.Scheduler{
		Name:     "sync",
		Interval: cfg.SyncInterval,
		Task: func(ctx context.Context) error {
			return runScheduledSync(ctx, h, pool)
		},
	}
	go syncScheduler.Run(ctx)

	healthScheduler := &hub.Scheduler{
		Name:     "health",
		Interval: cfg.HealthInterval,
		Task: func(ctx context.Context) error {
			_, err := h.HealthCheck(ctx, "")
			return err
		},
	}
	go healthScheduler.Run(ctx)

	if err := httpapi.NewServer(h).Start(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	select {
	case err := <-metricsFailure:
		return err
	default:
	}
	return nil
}

// runScheduledSync runs one bulk sync. With a shared database the run is
// gated by an advisory lock so replicas do not sync the same integrations
// at the same time; a held lock skips the round.
func runScheduledSync(ctx context.Context, h *hub.Hub, pool *pgxpool.Pool) error {
	if pool != nil {
		lock, err := store.TryAcquireSyncLock(ctx, pool)
		if errors.Is(err, store.ErrSyncAlreadyRunning) {
			slog.Info("sync already running elsewhere, skipping round")
			return nil
		}
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	report, err := h.SyncAll(ctx)
	if err != nil {
		return err
	}
	slog.Info("scheduled sync finished", "summary", report.Summary())
	return nil
}
