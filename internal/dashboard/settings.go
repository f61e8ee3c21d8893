package dashboard

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StockStatusRules lists the stock_status values that count as in or out of stock.
// Matching is case-insensitive and ignores surrounding whitespace.
type StockStatusRules struct {
	InStock    []string `yaml:"in_stock"`
	OutOfStock []string `yaml:"out_of_stock"`
}

// Settings is the dashboard's YAML configuration: what to show and how to classify it.
type Settings struct {
	Title           string           `yaml:"title"`
	RefreshInterval time.Duration    `yaml:"refresh_interval"`
	CurrencySymbol  string           `yaml:"currency_symbol"`
	PriceBins       int              `yaml:"price_bins"`
	TopProducts     int              `yaml:"top_products"`
	InsightLimit    int              `yaml:"insight_limit"`
	HistoryLimit    int              `yaml:"history_limit"`
	StockStatus     StockStatusRules `yaml:"stock_status"`
	Layout          [][]string       `yaml:"layout"`
}

// DefaultSettings mirrors configs/dashboard.yaml.
func DefaultSettings() Settings {
	return Settings{
		Title:           "Agilite Sales Intelligence Dashboard",
		RefreshInterval: 5 * time.Minute,
		CurrencySymbol:  "₪",
		PriceBins:       20,
		TopProducts:     10,
		InsightLimit:    10,
		HistoryLimit:    60,
		StockStatus: StockStatusRules{
			InStock:    []string{"In Stock"},
			OutOfStock: []string{"Out of Stock", "Sold Out", "Unavailable"},
		},
		Layout: [][]string{
			{"database_status", "scraping_status"},
			{"kpis"},
			{"insight", "category_stock"},
			{"category_distribution", "stock_status"},
			{"variant_distribution", "price_distribution"},
			{"top_products"},
			{"stock_out_trend"},
			{"stock_history", "category_stock_history"},
		},
	}
}

// Validate checks the settings are usable.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("settings validation failed: title is required")
	}
	if s.RefreshInterval < 10*time.Second {
		return fmt.Errorf("settings validation failed: refresh_interval must be at least 10s, got %s", s.RefreshInterval)
	}
	if s.PriceBins < 1 || s.PriceBins > 200 {
		return fmt.Errorf("settings validation failed: price_bins must be between 1 and 200, got %d", s.PriceBins)
	}
	if s.TopProducts < 1 {
		return fmt.Errorf("settings validation failed: top_products must be positive")
	}
	if s.InsightLimit < 1 {
		return fmt.Errorf("settings validation failed: insight_limit must be positive")
	}
	if s.HistoryLimit < 2 {
		return fmt.Errorf("settings validation failed: history_limit must be at least 2")
	}
	if len(s.StockStatus.OutOfStock) == 0 {
		return fmt.Errorf("settings validation failed: stock_status.out_of_stock must list at least one status")
	}

	seen := make(map[string]string)
	for _, status := range s.StockStatus.InStock {
		seen[normalizeStatus(status)] = "in_stock"
	}
	for _, status := range s.StockStatus.OutOfStock {
		if seen[normalizeStatus(status)] == "in_stock" {
			return fmt.Errorf("settings validation failed: stock status '%s' is listed as both in and out of stock", status)
		}
	}

	if len(s.Layout) == 0 {
		return fmt.Errorf("settings validation failed: layout must have at least one row")
	}
	for i, row := range s.Layout {
		if len(row) == 0 {
			return fmt.Errorf("settings validation failed: layout row %d is empty", i+1)
		}
	}
	return nil
}

// LoadSettings reads the YAML file at path over the defaults. A missing file
// yields the defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Dashboard settings file not found, using defaults", "path", path)
			return settings, nil
		}
		return Settings{}, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	slog.Info("Loading dashboard settings", "file", path)

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse YAML for %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("validation failed for %s: %w", path, err)
	}
	return settings, nil
}
