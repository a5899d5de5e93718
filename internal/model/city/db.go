package city

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/qgram"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/errors"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Rows is the cursor surface scanRows needs; *sql.Rows satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// SelectQuery returns the statement LoadFromDB runs against table. A NULL
// relevance falls back to DefaultRelevance.
func SelectQuery(table string) string {
	return fmt.Sprintf(
		"SELECT id, name, COALESCE(relevance, %d), latitude, longitude FROM %s ORDER BY id",
		DefaultRelevance, pq.QuoteIdentifier(table),
	)
}

// LoadFromDB reads every city of table.
func LoadFromDB(ctx context.Context, db Querier, table string, grams *qgram.Provider) (*record.Set, error) {
	rows, err := db.QueryContext(ctx, SelectQuery(table))
	if err != nil {
		return nil, fmt.Errorf("querying cities: %w", err)
	}
	defer rows.Close()
	return scanRows(rows, grams)
}

func scanRows(rows Rows, grams *qgram.Provider) (*record.Set, error) {
	cities := record.NewSet()
	row := 0
	for rows.Next() {
		row++
		var (
			id        int
			name      string
			relevance int
			lat, long float64
		)
		if err := rows.Scan(&id, &name, &relevance, &lat, &long); err != nil {
			return nil, apperrors.Malformed("city row", row, "%v", err)
		}
		cities.Add(New(id, name, relevance, lat, long, grams))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating city rows: %w", err)
	}
	return cities, nil
}
