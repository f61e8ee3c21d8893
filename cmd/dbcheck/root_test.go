package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jjckrbbt/stockdash/internal/dashboard"
	"github.com/jjckrbbt/stockdash/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "dbcheck", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	names := []string{}
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"connection", "data", "migrate"}, names)

	timeout := cmd.PersistentFlags().Lookup("timeout")
	require.NotNil(t, timeout)
	assert.Equal(t, "15s", timeout.DefValue)
	require.NotNil(t, cmd.PersistentFlags().Lookup("schema"))
}

func TestSubcommandsRejectArgs(t *testing.T) {
	for _, name := range []string{"connection", "data", "migrate"} {
		t.Run(name, func(t *testing.T) {
			cmd := NewRootCmd()
			cmd.SetArgs([]string{name, "extra"})
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unknown command")
		})
	}
}

func TestDataCmdHasConfigFlag(t *testing.T) {
	cmd := NewDataCmd()
	flag := cmd.Flags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestShortVersion(t *testing.T) {
	assert.Equal(t, "PostgreSQL 16.2 on x86_64-pc-linux-gnu",
		shortVersion("PostgreSQL 16.2 on x86_64-pc-linux-gnu, compiled by gcc 12.2.0, 64-bit"))
	assert.Equal(t, "PostgreSQL 16.2", shortVersion("PostgreSQL 16.2"))
}

func TestQualified(t *testing.T) {
	assert.Equal(t, `"agilite"."products"`, qualified("agilite", "products"))
	assert.Equal(t, `"we""ird"."products"`, qualified(`we"ird`, "products"))
}

type fakeQuerier struct {
	repository.Querier
	snapshots int64
	session   *repository.ScrapingSession
	failOn    string
}

func (f *fakeQuerier) fail(name string) error {
	if f.failOn == name {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeQuerier) Ping(context.Context) error {
	return f.fail("Ping")
}

func (f *fakeQuerier) CountSnapshots(context.Context) (int64, error) {
	return f.snapshots, f.fail("CountSnapshots")
}

func (f *fakeQuerier) ListLatestProducts(context.Context) ([]repository.Product, error) {
	return make([]repository.Product, 3), f.fail("ListLatestProducts")
}

func (f *fakeQuerier) ListCategoryStockLevels(context.Context) ([]repository.CategoryStockLevel, error) {
	return make([]repository.CategoryStockLevel, 2), f.fail("ListCategoryStockLevels")
}

func (f *fakeQuerier) ListSnapshotStockCounts(context.Context, int32) ([]repository.SnapshotStockCount, error) {
	return make([]repository.SnapshotStockCount, int(f.snapshots)), f.fail("ListSnapshotStockCounts")
}

func (f *fakeQuerier) ListPriceHistogram(context.Context, int32) ([]repository.PriceBucket, error) {
	return make([]repository.PriceBucket, 4), f.fail("ListPriceHistogram")
}

func (f *fakeQuerier) ListStockTransitions(context.Context) ([]repository.StockTransition, error) {
	return make([]repository.StockTransition, 3), f.fail("ListStockTransitions")
}

func (f *fakeQuerier) GetLatestScrapingSession(context.Context) (*repository.ScrapingSession, error) {
	return f.session, f.fail("GetLatestScrapingSession")
}

func TestReportQueries(t *testing.T) {
	q := &fakeQuerier{
		snapshots: 2,
		session: &repository.ScrapingSession{
			ID:           "42",
			Status:       "completed",
			SessionStart: pgtype.Timestamptz{Time: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), Valid: true},
		},
	}
	var out bytes.Buffer

	require.NoError(t, reportQueries(context.Background(), &out, q, dashboard.DefaultSettings()))

	text := out.String()
	assert.Contains(t, text, "OK   read-only pool connected")
	assert.Contains(t, text, "OK   snapshots: 2")
	assert.Contains(t, text, "OK   latest snapshot products: 3")
	assert.Contains(t, text, "OK   category/stock status groups: 2")
	assert.Contains(t, text, "OK   stock history rows: 2")
	assert.Contains(t, text, "OK   non-empty price buckets: 4")
	assert.Contains(t, text, "OK   products in both latest snapshots: 3")
	assert.Contains(t, text, "OK   latest scraping session: 42 (completed)")
	assert.NotContains(t, text, "WARN")
}

func TestReportQueriesSingleSnapshot(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, reportQueries(context.Background(), &out, &fakeQuerier{snapshots: 1}, dashboard.DefaultSettings()))

	text := out.String()
	assert.NotContains(t, text, "products in both latest snapshots")
	assert.Contains(t, text, "WARN fewer than two snapshots")
	assert.Contains(t, text, "WARN no scraping session found")
}

func TestReportQueriesStopsOnError(t *testing.T) {
	var out bytes.Buffer
	q := &fakeQuerier{snapshots: 2, failOn: "ListPriceHistogram"}

	err := reportQueries(context.Background(), &out, q, dashboard.DefaultSettings())

	require.EqualError(t, err, "ListPriceHistogram failed")
	assert.Contains(t, out.String(), "stock history rows")
	assert.NotContains(t, out.String(), "products in both latest snapshots")
}

func TestSchemaFlagIsValidated(t *testing.T) {
	for _, name := range []string{"connection", "data", "migrate"} {
		t.Run(name, func(t *testing.T) {
			cmd := NewRootCmd()
			cmd.SetArgs([]string{name, "--schema", "agilite; DROP TABLE products"})
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "--schema")
			assert.Contains(t, err.Error(), "not a plain identifier")
			assert.Empty(t, out.String())
		})
	}
}
