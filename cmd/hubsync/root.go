package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "hubsync",
	Short:         "HubSync dispatches configured third-party integrations and keeps them in sync.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, syncCmd, healthCmd, integrationsCmd, migrateCmd)
}
