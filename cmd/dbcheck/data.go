package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jjckrbbt/stockdash/internal/connections"
	"github.com/jjckrbbt/stockdash/internal/dashboard"
	"github.com/jjckrbbt/stockdash/internal/repository"
	"github.com/spf13/cobra"
)

// NewDataCmd creates the data command.
func NewDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Run every dashboard query once and report what it returned",
		Args:  cobra.NoArgs,
		RunE:  runDataCmd,
	}
	cmd.Flags().String("config", "", "Dashboard settings file (defaults to DASHBOARD_CONFIG)")
	return cmd
}

func runDataCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	settingsPath, _ := cmd.Flags().GetString("config")
	if settingsPath == "" {
		settingsPath = cfg.DashboardConfig
	}
	settings, err := dashboard.LoadSettings(settingsPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printTarget(out, cfg)

	logger := commandLogger(cmd)
	client, err := connections.ConnectDB(cfg.DatabaseURL(), logger)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := checkContext(cmd)
	defer cancel()

	if err := reportQueries(ctx, out, repository.New(client.Pool, cfg.DBSchema), settings); err != nil {
		return err
	}

	d, err := dashboard.NewService(repository.New(client.Pool, cfg.DBSchema), settings, 0, logger).Refresh(ctx)
	if err != nil {
		return err
	}
	ok(out, "dashboard refresh: %d products, %d categories, insight %q with %d items",
		d.KPIs.TotalProducts, d.KPIs.Categories, d.Insight.Title, len(d.Insight.Items))
	return nil
}

// reportQueries runs each query on q and prints its row count. The first
// failing query stops the report.
func reportQueries(ctx context.Context, out io.Writer, q repository.Querier, settings dashboard.Settings) error {
	if err := q.Ping(ctx); err != nil {
		return err
	}
	ok(out, "read-only pool connected")

	snapshots, err := q.CountSnapshots(ctx)
	if err != nil {
		return err
	}
	ok(out, "snapshots: %d", snapshots)
	if snapshots == 0 {
		warn(out, "the products table is empty")
	}

	products, err := q.ListLatestProducts(ctx)
	if err != nil {
		return err
	}
	ok(out, "latest snapshot products: %d", len(products))

	levels, err := q.ListCategoryStockLevels(ctx)
	if err != nil {
		return err
	}
	ok(out, "category/stock status groups: %d", len(levels))

	history, err := q.ListSnapshotStockCounts(ctx, int32(settings.HistoryLimit))
	if err != nil {
		return err
	}
	ok(out, "stock history rows: %d", len(history))

	buckets, err := q.ListPriceHistogram(ctx, int32(settings.PriceBins))
	if err != nil {
		return err
	}
	ok(out, "non-empty price buckets: %d", len(buckets))

	if snapshots >= 2 {
		transitions, err := q.ListStockTransitions(ctx)
		if err != nil {
			return err
		}
		ok(out, "products in both latest snapshots: %d", len(transitions))
	} else {
		warn(out, "fewer than two snapshots; the insight panel falls back to the out-of-stock list")
	}

	session, err := q.GetLatestScrapingSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		warn(out, "no scraping session found")
	} else {
		ok(out, "latest scraping session: %s (%s)", session.ID, session.Status)
	}

	fmt.Fprintln(out, separator)
	return nil
}
