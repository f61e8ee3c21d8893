package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Querier is the read surface the dashboard refresh depends on.
type Querier interface {
	CountSnapshots(ctx context.Context) (int64, error)
	ListLatestProducts(ctx context.Context) ([]Product, error)
	ListCategoryStockLevels(ctx context.Context) ([]CategoryStockLevel, error)
	ListSnapshotStockCounts(ctx context.Context, limit int32) ([]SnapshotStockCount, error)
	ListPriceHistogram(ctx context.Context, bins int32) ([]PriceBucket, error)
	ListStockTransitions(ctx context.Context) ([]StockTransition, error)
	GetLatestScrapingSession(ctx context.Context) (*ScrapingSession, error)
	Ping(ctx context.Context) error
}

var _ Querier = (*Queries)(nil)

// SQLSTATE undefined_table.
const undefinedTable = "42P01"

func (q *Queries) CountSnapshots(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRow(ctx, q.stmts.countSnapshots).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting snapshots: %w", err)
	}
	return n, nil
}

func (q *Queries) ListLatestProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, q.stmts.listLatestProducts)
	if err != nil {
		return nil, fmt.Errorf("listing latest products: %w", err)
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		var i Product
		var price pgtype.Numeric
		if err := rows.Scan(
			&i.ID,
			&i.Title,
			&price,
			&i.URL,
			&i.StockStatus,
			&i.VariantCount,
			&i.Category,
			&i.ProcessingTimestamp,
			&i.SessionID,
		); err != nil {
			return nil, fmt.Errorf("scanning latest product: %w", err)
		}
		i.Price = numericToDecimal(price)
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing latest products: %w", err)
	}
	return items, nil
}

func (q *Queries) ListCategoryStockLevels(ctx context.Context) ([]CategoryStockLevel, error) {
	rows, err := q.db.Query(ctx, q.stmts.listCategoryStockLevels)
	if err != nil {
		return nil, fmt.Errorf("listing category stock levels: %w", err)
	}
	defer rows.Close()

	var items []CategoryStockLevel
	for rows.Next() {
		var i CategoryStockLevel
		if err := rows.Scan(&i.Category, &i.StockStatus, &i.Count); err != nil {
			return nil, fmt.Errorf("scanning category stock level: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing category stock levels: %w", err)
	}
	return items, nil
}

func (q *Queries) ListSnapshotStockCounts(ctx context.Context, limit int32) ([]SnapshotStockCount, error) {
	rows, err := q.db.Query(ctx, q.stmts.listSnapshotStockCounts, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot stock counts: %w", err)
	}
	defer rows.Close()

	var items []SnapshotStockCount
	for rows.Next() {
		var i SnapshotStockCount
		if err := rows.Scan(&i.SnapshotKey, &i.TakenAt, &i.Category, &i.StockStatus, &i.Count); err != nil {
			return nil, fmt.Errorf("scanning snapshot stock count: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing snapshot stock counts: %w", err)
	}
	return items, nil
}

func (q *Queries) ListPriceHistogram(ctx context.Context, bins int32) ([]PriceBucket, error) {
	rows, err := q.db.Query(ctx, q.stmts.listPriceHistogram, bins)
	if err != nil {
		return nil, fmt.Errorf("listing price histogram: %w", err)
	}
	defer rows.Close()

	var items []PriceBucket
	for rows.Next() {
		var i PriceBucket
		var lo, hi pgtype.Numeric
		if err := rows.Scan(&i.Bucket, &lo, &hi, &i.Count); err != nil {
			return nil, fmt.Errorf("scanning price bucket: %w", err)
		}
		i.Low = numericToDecimal(lo).Decimal
		i.High = numericToDecimal(hi).Decimal
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing price histogram: %w", err)
	}
	return items, nil
}

func (q *Queries) ListStockTransitions(ctx context.Context) ([]StockTransition, error) {
	rows, err := q.db.Query(ctx, q.stmts.listStockTransitions)
	if err != nil {
		return nil, fmt.Errorf("listing stock transitions: %w", err)
	}
	defer rows.Close()

	var items []StockTransition
	for rows.Next() {
		var i StockTransition
		var price pgtype.Numeric
		if err := rows.Scan(
			&i.Title,
			&i.URL,
			&i.Category,
			&price,
			&i.PreviousStockStatus,
			&i.CurrentStockStatus,
			&i.PreviousVariantCount,
			&i.CurrentVariantCount,
		); err != nil {
			return nil, fmt.Errorf("scanning stock transition: %w", err)
		}
		i.Price = numericToDecimal(price)
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing stock transitions: %w", err)
	}
	return items, nil
}

// GetLatestScrapingSession returns nil when there is no session row or when
// the scraper never created the sessions table.
func (q *Queries) GetLatestScrapingSession(ctx context.Context) (*ScrapingSession, error) {
	var s ScrapingSession
	err := q.db.QueryRow(ctx, q.stmts.getLatestSession).Scan(
		&s.ID,
		&s.Status,
		&s.SessionStart,
		&s.SessionEnd,
		&s.ProductsScraped,
		&s.ProductsProcessed,
		&s.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || IsUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading latest scraping session: %w", err)
	}
	return &s, nil
}

// Ping runs a trivial query through the bound connection.
func (q *Queries) Ping(ctx context.Context) error {
	var one int
	if err := q.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// IsUndefinedTable reports whether err is Postgres' "relation does not exist".
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}

func numericToDecimal(n pgtype.Numeric) decimal.NullDecimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromBigInt(n.Int, n.Exp), Valid: true}
}
