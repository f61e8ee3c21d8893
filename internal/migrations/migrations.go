// Package migrations holds the products/scraping_sessions schema the scraper
// writes, for local development databases and integration tests. The
// dashboard itself never migrates.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedded embed.FS

// Open connects with lib/pq and pins search_path to the quoted schema, so the
// unqualified table names in the migrations land in that schema.
func Open(databaseURL, schema string) (*sql.DB, error) {
	dsn, err := withSearchPath(databaseURL, schema)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	return db, nil
}

func withSearchPath(databaseURL, schema string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing database URL: %w", err)
	}
	q := u.Query()
	q.Set("search_path", pq.QuoteIdentifier(schema))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Apply creates schema if needed and runs every pending migration.
func Apply(ctx context.Context, db *sql.DB, schema string, logger *slog.Logger) error {
	if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(schema)); err != nil {
		return fmt.Errorf("creating schema %s: %w", schema, err)
	}

	fsys, err := fs.Sub(embedded, "sql")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("Applied migration", "schema", schema, "version", r.Source.Version, "duration", r.Duration)
	}
	if len(results) == 0 {
		logger.Info("Schema already up to date", "schema", schema)
	}
	return nil
}
