package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hubsync/hubsync/internal/config"
	"github.com/hubsync/hubsync/internal/logging"
)

var healthCmd = &cobra.Command{
	Use:   "health [integration-id]",
	Short: "Probe every configured integration, or a single one by id, and print the statuses.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return runHealthCommand(cmd, id)
	},
}

func runHealthCommand(cmd *cobra.Command, id string) error {
	if _, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: "health", Writer: cmd.ErrOrStderr()}); err != nil {
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

	statuses, err := h.HealthCheck(ctx, id)
	if err != nil {
		return wrapSyncErr(err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(statuses)
}
