package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Product is one row of a products snapshot. Missing text columns are empty strings.
type Product struct {
	ID                  int64
	Title               string
	Price               decimal.NullDecimal
	URL                 string
	StockStatus         string
	VariantCount        pgtype.Int4
	Category            string
	ProcessingTimestamp time.Time
	SessionID           string
}

// CategoryStockLevel counts the rows of one (category, stock_status) pair in the latest snapshot.
type CategoryStockLevel struct {
	Category    string
	StockStatus string
	Count       int64
}

// SnapshotStockCount counts the rows of one (category, stock_status) pair within a snapshot.
type SnapshotStockCount struct {
	SnapshotKey string
	TakenAt     time.Time
	Category    string
	StockStatus string
	Count       int64
}

// PriceBucket is one width_bucket of the latest snapshot's prices.
// Low and High are the overall price bounds, identical on every row.
type PriceBucket struct {
	Bucket int32
	Low    decimal.Decimal
	High   decimal.Decimal
	Count  int64
}

// StockTransition pairs a product's state in the latest snapshot with the one before it.
type StockTransition struct {
	Title                string
	URL                  string
	Category             string
	Price                decimal.NullDecimal
	PreviousStockStatus  string
	CurrentStockStatus   string
	PreviousVariantCount pgtype.Int4
	CurrentVariantCount  pgtype.Int4
}

// ScrapingSession is a row of the scraper's scraping_sessions table.
type ScrapingSession struct {
	ID                string
	Status            string
	SessionStart      pgtype.Timestamptz
	SessionEnd        pgtype.Timestamptz
	ProductsScraped   int64
	ProductsProcessed int64
	ErrorMessage      string
}
