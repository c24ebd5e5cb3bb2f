// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Hudumia CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hudumia",
		Short: "Hudumia - doctor registry credential service",
		Long: `Hudumia runs the authentication service for the clinic doctor
registry: sign-up, two-factor sign-in, sessions, and password resets.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
