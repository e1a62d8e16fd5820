package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"govcon/research/internal/migrations"
)

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or roll back the embedded schema migrations against DATABASE_URL.

Available subcommands:
  up     - Apply every pending migration
  down   - Roll back the most recent migration
  status - List migrations and whether they are applied`,
	}
	cmd.AddCommand(
		a.migrateStep("up", "Apply every pending migration", (*migrations.Migrator).Up),
		a.migrateStep("down", "Roll back the most recent migration", (*migrations.Migrator).Down),
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withMigrator(func(m *migrations.Migrator) error {
					statuses, err := m.Status(cmd.Context())
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "VERSION\tAPPLIED\tFILE")
					for _, s := range statuses {
						fmt.Fprintf(tw, "%d\t%t\t%s\n", s.Version, s.Applied, s.Path)
					}
					return tw.Flush()
				})
			},
		},
	)
	return cmd
}

func (a *app) migrateStep(use, short string, step func(*migrations.Migrator, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withMigrator(func(m *migrations.Migrator) error {
				return step(m, cmd.Context())
			})
		},
	}
}

func (a *app) withMigrator(fn func(*migrations.Migrator) error) error {
	if err := a.cfg.RequireDatabase(); err != nil {
		return err
	}
	m, err := migrations.Open(a.cfg.DatabaseURL, a.logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}
