package driving

import (
	"context"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

// SalesAnalyst exposes the structured-data capabilities: guarded SQL
// over the sales table and derived metric calculation.
type SalesAnalyst interface {
	// QuerySales validates and executes a read-only SQL statement
	// against the sales table. Unsafe statements fail with
	// domain.ErrUnsafeQuery before touching the database.
	QuerySales(ctx context.Context, query string) (*domain.RowSet, error)

	// CalculateMetrics computes variance, year-over-year, growth or
	// aggregate rollups per the typed request.
	CalculateMetrics(ctx context.Context, req domain.MetricRequest) (*domain.MetricResult, error)
}
