package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hubsync/hubsync/internal/config"
	"github.com/hubsync/hubsync/internal/hub"
	"github.com/hubsync/hubsync/internal/logging"
	"github.com/hubsync/hubsync/internal/secrets"
)

var integrationsCmd = &cobra.Command{
	Use:   "integrations",
	Short: "Manage registered integrations.",
}

var integrationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered integrations.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrationsList(cmd)
	},
}

var integrationsRegisterCmd = &cobra.Command{
	Use:   "register -f config.json",
	Short: "Register an integration from a JSON config file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}
		return runIntegrationsRegister(cmd, file)
	},
}

var integrationsRemoveCmd = &cobra.Command{
	Use:   "remove <integration-id>",
	Short: "Remove a registered integration.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrationsRemove(cmd, args[0])
	},
}

func init() {
	integrationsRegisterCmd.Flags().StringP("file", "f", "", "path to the integration config JSON")
	_ = integrationsRegisterCmd.MarkFlagRequired("file")
	integrationsCmd.AddCommand(integrationsListCmd, integrationsRegisterCmd, integrationsRemoveCmd)
}

func runIntegrationsList(cmd *cobra.Command) error {
	if _, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: "integrations", Writer: cmd.ErrOrStderr()}); err != nil {
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

	configs, err := h.ListIntegrations(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tENABLED")
	for _, c := range configs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", c.ID, c.Name, c.Type, c.Enabled)
	}
	return w.Flush()
}

func runIntegrationsRegister(cmd *cobra.Command, file string) error {
	logger, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: "integrations", Writer: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var integration hub.IntegrationConfig
	if err := json.Unmarshal(raw, &integration); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}

	if err := fillSecretFromPrompt(cmd, &integration); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	h, pool, err := buildHub(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := h.RegisterIntegration(ctx, integration); err != nil {
		return err
	}
	logger.Info("integration registered", "integration_id", integration.ID, "type", string(integration.Type))
	return nil
}

// fillSecretFromPrompt asks for missing credential secrets interactively so
// config files checked into source control can omit them. Non-interactive
// runs must ship complete credentials.
func fillSecretFromPrompt(cmd *cobra.Command, integration *hub.IntegrationConfig) error {
	creds := integration.Credentials
	if creds == nil {
		return nil
	}

	var field *string
	var label string
	switch creds.AuthType {
	case secrets.AuthTypeBasic:
		field, label = &creds.Password, "Password"
	case secrets.AuthTypeAPIKey:
		field, label = &creds.APIKey, "API key"
	case secrets.AuthTypeOAuth:
		field, label = &creds.AccessToken, "Access token"
	default:
		return nil
	}
	if *field != "" {
		return nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("credentials.%s is empty and stdin is not a terminal", creds.AuthType)
	}

	cmd.Printf("%s: ", label)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return err
	}
	if len(secret) == 0 {
		return errors.New("secret is empty")
	}
	*field = string(secret)
	return nil
}

func runIntegrationsRemove(cmd *cobra.Command, id string) error {
	logger, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: "integrations", Writer: cmd.ErrOrStderr()})
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

	if err := h.RemoveIntegration(ctx, id); err != nil {
		return err
	}
	logger.Info("integration removed", "integration_id", id)
	return nil
}
