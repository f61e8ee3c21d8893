package main

import (
	"github.com/jjckrbbt/stockdash/internal/migrations"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and apply the embedded migrations",
		Long: `Create the configured schema if needed and apply the embedded goose
migrations for the products and scraping_sessions tables. Intended for local
development databases and test fixtures.`,
		Args: cobra.NoArgs,
		RunE: runMigrateCmd,
	}
}

func runMigrateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printTarget(out, cfg)

	db, err := migrations.Open(cfg.DatabaseURL(), cfg.DBSchema)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := checkContext(cmd)
	defer cancel()

	if err := migrations.Apply(ctx, db, cfg.DBSchema, commandLogger(cmd)); err != nil {
		return err
	}
	ok(out, "schema '%s' is up to date", cfg.DBSchema)
	return nil
}
