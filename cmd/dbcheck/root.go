package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jjckrbbt/stockdash/internal/config"
	"github.com/spf13/cobra"
)

const separator = "--------------------------------------------------"

// NewRootCmd creates the root command for dbcheck.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dbcheck",
		Short: "Check the dashboard's database connection and data",
		Long: `dbcheck verifies that the dashboard can reach its PostgreSQL database,
that the configured schema and products table exist, and that every dashboard
query runs against the current data.

The migrate command creates the schema and tables for local development
databases. Never run it against the scraper's production database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("schema", "", "Override DB_SCHEMA")
	cmd.PersistentFlags().Duration("timeout", 15*time.Second, "Timeout for each check")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewConnectionCmd())
	cmd.AddCommand(NewDataCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "FAIL", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the environment configuration and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	schema, err := cmd.Flags().GetString("schema")
	if err != nil {
		return nil, err
	}
	if schema != "" {
		if err := config.ValidateSchema(schema); err != nil {
			return nil, fmt.Errorf("--schema: %w", err)
		}
		cfg.DBSchema = schema
	}
	return cfg, nil
}

func commandLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func checkContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
	}
	return context.WithTimeout(cmd.Context(), timeout)
}

func printTarget(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Host:     %s\n", cfg.DBHost)
	fmt.Fprintf(w, "Port:     %d\n", cfg.DBPort)
	fmt.Fprintf(w, "Database: %s\n", cfg.DBName)
	fmt.Fprintf(w, "User:     %s\n", cfg.DBUser)
	fmt.Fprintf(w, "Schema:   %s\n", cfg.DBSchema)
	fmt.Fprintln(w, separator)
}

func ok(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "OK   "+format+"\n", args...)
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "WARN "+format+"\n", args...)
}

// shortVersion trims "PostgreSQL 16.2 on x86_64-pc-linux-gnu, compiled by ..." to its first clause.
func shortVersion(v string) string {
	if i := strings.Index(v, ","); i >= 0 {
		return v[:i]
	}
	return v
}
