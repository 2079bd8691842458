// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/bioauth/bioauth/internal/store"
)

// migrator is the part of store.Migrator the migrate commands use.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Status() ([]store.Migration, error)
	Close() error
}

type migratorFactory func(databaseURL string) (migrator, error)

func defaultMigratorFactory(databaseURL string) (migrator, error) {
	return store.NewMigrator(databaseURL)
}

func newMigrateCmd(flags *globalFlags, factory migratorFactory) *cobra.Command {
	if factory == nil {
		factory = defaultMigratorFactory
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the credential database schema",
	}

	var steps int
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, flags, factory, func(m migrator) error {
				if steps > 0 {
					if err := m.Steps(steps); err != nil {
						return err
					}
				} else if err := m.Up(); err != nil {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	}
	up.Flags().IntVar(&steps, "steps", 0, "apply at most N migrations (0 applies all)")

	var downSteps int
	var all bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long: `Roll back the last migration, or N migrations with --steps.
--all rolls back every migration and drops the users table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, flags, factory, func(m migrator) error {
				var err error
				if all {
					err = m.Down()
				} else {
					if downSteps <= 0 {
						downSteps = 1
					}
					err = m.Steps(-downSteps)
				}
				if err != nil {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	}
	down.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")
	down.Flags().BoolVar(&all, "all", false, "roll back every migration")

	var jsonOutput bool
	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether each is applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, flags, factory, func(m migrator) error {
				migrations, err := m.Status()
				if err != nil {
					return err
				}
				_, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if jsonOutput {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
						"dirty":      dirty,
						"migrations": migrations,
					})
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
				for _, mig := range migrations {
					fmt.Fprintf(w, "%06d\t%s\t%t\n", mig.Version, mig.Name, mig.Applied)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				if dirty {
					cmd.Println("database is dirty: fix the failed migration, then run `bioauth migrate force <version>`")
				}
				return nil
			})
		},
	}
	status.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long:  `Mark VERSION as applied and clear the dirty flag. Use after repairing a failed migration by hand.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_VERSION").With("version", args[0]).Wrap(err)
			}
			return withMigrator(cmd, flags, factory, func(m migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				return printVersion(cmd, m)
			})
		},
	}

	cmd.AddCommand(up, down, status, force)
	return cmd
}

// withMigrator opens a migrator for the configured database, runs fn and
// closes it.
func withMigrator(cmd *cobra.Command, flags *globalFlags, factory migratorFactory, fn func(migrator) error) (err error) {
	cfg, err := flags.load(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").With("key", "database.url").Errorf("database.url is required")
	}

	m, err := factory(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(m)
}

func printVersion(cmd *cobra.Command, m migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	cmd.Printf("schema version %d (dirty: %t)\n", version, dirty)
	return nil
}
