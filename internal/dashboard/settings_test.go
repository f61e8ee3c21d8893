package dashboard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadSettings_OverridesDefaults(t *testing.T) {
	path := writeSettings(t, `
title: Stock Watch
refresh_interval: 90s
price_bins: 8
layout:
  - [kpis]
`)
	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "Stock Watch", s.Title)
	assert.Equal(t, 90*time.Second, s.RefreshInterval)
	assert.Equal(t, 8, s.PriceBins)
	assert.Equal(t, [][]string{{"kpis"}}, s.Layout)
	// untouched keys keep their defaults
	assert.Equal(t, 10, s.TopProducts)
	assert.Equal(t, DefaultSettings().StockStatus, s.StockStatus)
}

func TestLoadSettings_Invalid(t *testing.T) {
	testCases := []struct {
		name          string
		body          string
		errorContains string
	}{
		{name: "bad yaml", body: "title: [unclosed", errorContains: "failed to parse YAML"},
		{name: "fast refresh", body: "refresh_interval: 1s", errorContains: "refresh_interval"},
		{name: "zero bins", body: "price_bins: 0", errorContains: "price_bins"},
		{name: "empty layout row", body: "layout:\n  - []", errorContains: "layout row 1 is empty"},
		{
			name:          "conflicting status",
			body:          "stock_status:\n  in_stock: [Available]\n  out_of_stock: [available]",
			errorContains: "both in and out of stock",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadSettings(writeSettings(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errorContains)
		})
	}
}

func TestShippedSettingsFileMatchesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join("..", "..", "configs", "dashboard.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestClassifier(t *testing.T) {
	c := NewClassifier(DefaultSettings().StockStatus)

	assert.Equal(t, StockIn, c.Classify("In Stock"))
	assert.Equal(t, StockIn, c.Classify("  in stock "))
	assert.Equal(t, StockOut, c.Classify("SOLD OUT"))
	assert.Equal(t, StockOut, c.Classify("Unavailable"))
	assert.Equal(t, StockOther, c.Classify("Pre-order"))
	assert.Equal(t, StockOther, c.Classify(""))
	assert.Equal(t, "out_of_stock", StockOut.String())
}
