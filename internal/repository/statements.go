package repository

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

type statements struct {
	countSnapshots          string
	listLatestProducts      string
	listCategoryStockLevels string
	listSnapshotStockCounts string
	listPriceHistogram      string
	listStockTransitions    string
	getLatestSession        string
}

// snapshotKey identifies the scrape run a row belongs to. Rows without a
// session_id fall back to their processing timestamp.
func snapshotKey(alias string) string {
	return fmt.Sprintf("COALESCE(%[1]s.session_id::text, %[1]s.processing_timestamp::text)", alias)
}

func buildStatements(schema string) statements {
	products := pgx.Identifier{schema, "products"}.Sanitize()
	sessions := pgx.Identifier{schema, "scraping_sessions"}.Sanitize()
	key := snapshotKey("p")

	latest := fmt.Sprintf(`WITH latest AS (
    SELECT %[2]s AS snapshot_key
    FROM %[1]s p
    GROUP BY 1
    ORDER BY MIN(p.processing_timestamp) DESC, 1 DESC
    LIMIT 1
)`, products, key)

	return statements{
		countSnapshots: fmt.Sprintf(`SELECT COUNT(DISTINCT %[2]s)
FROM %[1]s p`, products, key),

		listLatestProducts: fmt.Sprintf(`%[3]s
SELECT p.id,
       COALESCE(p.title, ''),
       p.price,
       COALESCE(p.url, ''),
       COALESCE(p.stock_status, ''),
       p.variant_count,
       COALESCE(p.category, ''),
       p.processing_timestamp,
       COALESCE(p.session_id::text, '')
FROM %[1]s p
JOIN latest l ON %[2]s = l.snapshot_key
ORDER BY p.category NULLS LAST, p.title, p.id`, products, key, latest),

		listCategoryStockLevels: fmt.Sprintf(`%[3]s
SELECT COALESCE(p.category, ''), COALESCE(p.stock_status, ''), COUNT(*)
FROM %[1]s p
JOIN latest l ON %[2]s = l.snapshot_key
GROUP BY 1, 2
ORDER BY 1, 2`, products, key, latest),

		listSnapshotStockCounts: fmt.Sprintf(`WITH snapshots AS (
    SELECT %[2]s AS snapshot_key, MIN(p.processing_timestamp) AS taken_at
    FROM %[1]s p
    GROUP BY 1
    ORDER BY 2 DESC, 1 DESC
    LIMIT $1
)
SELECT s.snapshot_key, s.taken_at, COALESCE(p.category, ''), COALESCE(p.stock_status, ''), COUNT(*)
FROM %[1]s p
JOIN snapshots s ON %[2]s = s.snapshot_key
GROUP BY 1, 2, 3, 4
ORDER BY 2, 1, 3, 4`, products, key),

		// width_bucket puts the maximum into bucket bins+1, LEAST folds it back.
		listPriceHistogram: fmt.Sprintf(`%[3]s,
priced AS (
    SELECT p.price
    FROM %[1]s p
    JOIN latest l ON %[2]s = l.snapshot_key
    WHERE p.price IS NOT NULL
),
bounds AS (
    SELECT MIN(price) AS lo, MAX(price) AS hi FROM priced
)
SELECT CASE WHEN b.hi = b.lo THEN 1
            ELSE LEAST(width_bucket(pr.price, b.lo, b.hi, $1::int), $1::int)
       END AS bucket,
       b.lo,
       b.hi,
       COUNT(*)
FROM priced pr
CROSS JOIN bounds b
GROUP BY 1, 2, 3
ORDER BY 1`, products, key, latest),

		// Products pair by url; a NULL or empty url falls back to the title.
		listStockTransitions: fmt.Sprintf(`WITH ranked AS (
    SELECT %[2]s AS snapshot_key,
           ROW_NUMBER() OVER (ORDER BY MIN(p.processing_timestamp) DESC, %[2]s DESC) AS rn
    FROM %[1]s p
    GROUP BY 1
),
cur AS (
    SELECT p.* FROM %[1]s p JOIN ranked r ON %[2]s = r.snapshot_key WHERE r.rn = 1
),
prev AS (
    SELECT p.* FROM %[1]s p JOIN ranked r ON %[2]s = r.snapshot_key WHERE r.rn = 2
)
SELECT COALESCE(c.title, ''),
       COALESCE(c.url, ''),
       COALESCE(c.category, ''),
       c.price,
       COALESCE(pv.stock_status, ''),
       COALESCE(c.stock_status, ''),
       pv.variant_count,
       c.variant_count
FROM cur c
JOIN prev pv ON COALESCE(NULLIF(c.url, ''), c.title) = COALESCE(NULLIF(pv.url, ''), pv.title)
ORDER BY c.category NULLS LAST, c.title, c.id, pv.id`, products, key),

		getLatestSession: fmt.Sprintf(`SELECT s.id::text,
       COALESCE(s.status, ''),
       s.session_start,
       s.session_end,
       COALESCE(s.products_scraped, 0)::bigint,
       COALESCE(s.products_processed, 0)::bigint,
       COALESCE(s.error_message, '')
FROM %[1]s s
ORDER BY s.session_start DESC NULLS LAST
LIMIT 1`, sessions),
	}
}
