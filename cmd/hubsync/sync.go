package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/hubsync/hubsync/internal/config"
	"github.com/hubsync/hubsync/internal/hub"
	"github.com/hubsync/hubsync/internal/logging"
	"github.com/hubsync/hubsync/internal/managers"
	"github.com/hubsync/hubsync/internal/secrets"
	"github.com/hubsync/hubsync/internal/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync [integration-id]",
	Short: "Run a one-off sync of every enabled integration, or a single one by id.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return runSyncCommand(id)
	},
}

func runSyncCommand(id string) error {
	logger, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: "sync"})
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	h, pool, err := buildHub(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	(&hub.LogListener{Logger: logger}).Attach(h.Bus())

	lock, err := store.AcquireSyncLock(ctx, pool)
	if err != nil {
		return wrapSyncErr(err)
	}
	defer lock.Release()

	if id != "" {
		result, err := h.SyncIntegration(ctx, id)
		if err != nil {
			return wrapSyncErr(err)
		}
		if !result.Success {
			return &exitError{code: 1, err: fmt.Errorf("sync of %s failed: %s", id, result.Error)}
		}
		logger.Info("sync finished", "integration_id", id, "items_synced", result.ItemsSynced)
		return nil
	}

	report, err := h.SyncAll(ctx)
	if err != nil {
		return wrapSyncErr(err)
	}
	logger.Info("sync finished", "summary", report.Summary())
	if report.Failed > 0 {
		return &exitError{code: 1, err: fmt.Errorf("%d of %d integrations failed to sync", report.Failed, report.Total)}
	}
	return nil
}

// buildHub loads persisted integrations into a fully wired hub backed by the
// configured database.
func buildHub(ctx context.Context, cfg config.Config) (*hub.Hub, *pgxpool.Pool, error) {
	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	h := hub.New(hub.Options{
		Store:       st,
		SyncTimeout: cfg.SyncTimeout,
		SyncWorkers: cfg.SyncWorkers,
	})

	deps := managers.Deps{}
	if cfg.VaultAddr != "" {
		resolver, err := secrets.NewVaultResolver(secrets.VaultOptions{
			Address:   cfg.VaultAddr,
			Token:     cfg.VaultToken,
			Namespace: cfg.VaultNamespace,
		})
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		deps.Resolver = resolver
	}
	if err := managers.Wire(h, deps); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if _, err := h.LoadFromStore(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return h, pool, nil
}

func wrapSyncErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return &exitError{code: 130, err: err, silent: true}
	}
	return err
}
