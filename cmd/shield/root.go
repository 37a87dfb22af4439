package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shield",
	Short: "BLTZ Shield API - browser metadata intake",
	Long: `BLTZ Shield API accepts browser metadata on POST /metadata, guarded by a
shared secret in the X-API-Key header, and optionally stores it.

Configuration is read from SHIELD_* environment variables (and a .env file
when present). Only SHIELD_PRIMARY.ENV and SHIELD_AUTH.API_KEY are required.

Running shield without a subcommand starts the server.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
