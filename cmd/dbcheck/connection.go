package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/spf13/cobra"
)

// NewConnectionCmd creates the connection command.
func NewConnectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connection",
		Short: "Test the database connection, schema and products table",
		Long: `Connect to PostgreSQL, print the server version, then check that the
configured schema exists and its products table can be queried. A missing
scraping_sessions table is reported but is not a failure.`,
		Args: cobra.NoArgs,
		RunE: runConnectionCmd,
	}
}

func runConnectionCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printTarget(out, cfg)

	ctx, cancel := checkContext(cmd)
	defer cancel()

	db, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w (check your .env file and that PostgreSQL is running)", err)
	}
	ok(out, "database connection successful")

	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("querying server version: %w", err)
	}
	ok(out, "server version: %s", shortVersion(version))

	var schemaExists bool
	if err := db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)",
		cfg.DBSchema,
	).Scan(&schemaExists); err != nil {
		return fmt.Errorf("checking schema: %w", err)
	}
	if !schemaExists {
		return fmt.Errorf("schema '%s' not found", cfg.DBSchema)
	}
	ok(out, "schema '%s' found", cfg.DBSchema)

	products := qualified(cfg.DBSchema, "products")
	var one int
	err = db.QueryRowContext(ctx, "SELECT 1 FROM "+products+" LIMIT 1").Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		warn(out, "table %s is empty; has the scraper run?", products)
	case err != nil:
		return fmt.Errorf("failed to query table %s: %w", products, err)
	default:
		ok(out, "successfully queried table %s", products)
	}

	var hasSessions bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", qualified(cfg.DBSchema, "scraping_sessions")).Scan(&hasSessions); err != nil {
		return fmt.Errorf("checking scraping_sessions table: %w", err)
	}
	if hasSessions {
		ok(out, "table %s found", qualified(cfg.DBSchema, "scraping_sessions"))
	} else {
		warn(out, "table %s not found; the scraping status card will show no session data", qualified(cfg.DBSchema, "scraping_sessions"))
	}

	return nil
}

func qualified(schema, table string) string {
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}
