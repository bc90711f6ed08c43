package driven

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

// SalesStore provides read access to the sales transaction table and
// aggregate rollups for the metrics engine. The table is read-mostly;
// InsertTransactions exists only for the one-time bootstrap.
type SalesStore interface {
	// TotalsByPeriod sums amounts per month or quarter for a year,
	// optionally restricted to one category. Periods with no rows are
	// absent from the map, never zero.
	TotalsByPeriod(ctx context.Context, year int, g domain.Granularity, category string) (map[int]decimal.Decimal, error)

	// TotalsByCategory sums amounts per category for one period of a
	// year. periodNumber of 0 means the whole year.
	TotalsByCategory(ctx context.Context, year int, g domain.Granularity, periodNumber int) (map[string]decimal.Decimal, error)

	// YearsWithData lists years that have at least one transaction.
	YearsWithData(ctx context.Context) ([]int, error)

	// ExecuteSelect runs an already-validated read-only statement with
	// a row cap. Callers must guard the statement first; the store
	// additionally enforces the cap and the context deadline.
	ExecuteSelect(ctx context.Context, query string, maxRows int) (*domain.RowSet, error)

	// InsertTransactions writes ledger rows, used by the bootstrap.
	InsertTransactions(ctx context.Context, txs []domain.Transaction) error
}
