// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/hudumia/hudumia/internal/store"
)

// databaseURLFromEnv returns the connection string for migration commands.
// Migrations are run from deploy jobs that rarely carry a full config file,
// so the URL comes straight from the environment.
func databaseURLFromEnv() (string, error) {
	url := os.Getenv("HUDUMIA_DATABASE_URL")
	if url == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("HUDUMIA_DATABASE_URL environment variable is required")
	}
	return url, nil
}

// withMigrator opens a migrator, runs fn, and always closes it.
func withMigrator(fn func(*store.Migrator) error) error {
	databaseURL, err := databaseURLFromEnv()
	if err != nil {
		return err
	}

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close migrator: %v\n", closeErr)
		}
	}()

	return fn(migrator)
}

// NewMigrateCmd creates the migrate subcommand and its actions.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  `Apply, roll back, and inspect schema migrations for the doctors database.`,
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStepsCmd())
	cmd.AddCommand(newMigrateVersionCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *store.Migrator) error {
				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					cmd.Println("No pending migrations")
					return nil
				}

				cmd.Printf("Applying %d migration(s)...\n", len(pending))
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations applied successfully")
				return nil
			})
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	cfg := struct{ yes bool }{}

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back ALL migrations (destructive)",
		Long:  `Roll back every migration, dropping the doctors table and all data.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cfg.yes {
				return oops.Code("CONFIRMATION_REQUIRED").
					Errorf("migrate down drops all data; re-run with --yes to confirm")
			}
			return withMigrator(func(m *store.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("All migrations rolled back")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&cfg.yes, "yes", false, "confirm the destructive rollback")
	return cmd
}

func newMigrateStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps <n>",
		Short: "Apply n migrations (negative rolls back)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("AUTH_INVALID_INPUT").With("steps", args[0]).
					Errorf("steps must be an integer")
			}
			return withMigrator(func(m *store.Migrator) error {
				if err := m.Steps(n); err != nil {
					return err
				}
				cmd.Printf("Applied %d step(s)\n", n)
				return nil
			})
		},
	}
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *store.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}

				if version == 0 {
					cmd.Println("No migrations applied")
					return nil
				}

				name, err := store.MigrationName(version)
				if err != nil {
					return err
				}
				if name == "" {
					name = "unknown"
				}

				cmd.Printf("Version: %d (%s)\n", version, name)
				if dirty {
					cmd.Println("State: DIRTY - manual intervention required")
				}
				return nil
			})
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Long: `Set the schema version record directly. Use only to recover from a
dirty state after fixing the database by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil || version < 0 {
				return oops.Code("INVALID_VERSION").With("version", args[0]).
					Errorf("version must be a non-negative integer")
			}
			return withMigrator(func(m *store.Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced version to %d\n", version)
				return nil
			})
		},
	}
}
