package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledger-labs/salescope/internal/core/domain"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
)

// Ensure SalesStore implements the interface.
var _ driven.SalesStore = (*SalesStore)(nil)

// SalesStore provides read and seed access to the sales ledger. Totals
// are folded in Go with decimal arithmetic so periods without rows stay
// absent rather than coming back as zero.
type SalesStore struct {
	db *sql.DB
}

// TotalsByPeriod sums amounts for a year keyed by period number
// (1..12 monthly, 1..4 quarterly). Periods with no rows have no key.
func (s *SalesStore) TotalsByPeriod(ctx context.Context, year int, granularity domain.Granularity, category string) (map[int]decimal.Decimal, error) {
	query := `SELECT month, amount FROM sales WHERE year = ?`
	args := []any{year}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[int]decimal.Decimal)
	for rows.Next() {
		var (
			month  int
			amount float64
		)
		if err := rows.Scan(&month, &amount); err != nil {
			return nil, fmt.Errorf("scan sales row: %w", err)
		}

		period := month
		if granularity == domain.GranularityQuarterly {
			period = (month-1)/3 + 1
		}
		totals[period] = totals[period].Add(decimal.NewFromFloat(amount))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales rows: %w", err)
	}
	return totals, nil
}

// TotalsByCategory sums amounts for a year keyed by category, optionally
// restricted to a single period of the given granularity.
func (s *SalesStore) TotalsByCategory(ctx context.Context, year int, granularity domain.Granularity, periodNumber int) (map[string]decimal.Decimal, error) {
	query := `SELECT category, month, amount FROM sales WHERE year = ?`
	rows, err := s.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("query category totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			category sql.NullString
			month    int
			amount   float64
		)
		if err := rows.Scan(&category, &month, &amount); err != nil {
			return nil, fmt.Errorf("scan sales row: %w", err)
		}

		if periodNumber > 0 {
			period := month
			if granularity == domain.GranularityQuarterly {
				period = (month-1)/3 + 1
			}
			if period != periodNumber {
				continue
			}
		}

		name := category.String
		if name == "" {
			name = "uncategorized"
		}
		totals[name] = totals[name].Add(decimal.NewFromFloat(amount))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales rows: %w", err)
	}
	return totals, nil
}

// YearsWithData returns the years that have at least one sales row,
// ascending.
func (s *SalesStore) YearsWithData(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT year FROM sales ORDER BY year`)
	if err != nil {
		return nil, fmt.Errorf("query years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, year)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate years: %w", err)
	}
	return years, nil
}

// ExecuteSelect runs an already-validated read-only query and returns at
// most maxRows rows, flagging truncation. Driver errors are sanitized
// behind domain.ErrQueryFailed so raw SQL details never reach users.
func (s *SalesStore) ExecuteSelect(ctx context.Context, query string, maxRows int) (*domain.RowSet, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, sanitizeSQLError(err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: read columns", domain.ErrQueryFailed)
	}

	result := &domain.RowSet{Columns: columns}
	for rows.Next() {
		if len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("%w: scan row", domain.ErrQueryFailed)
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, sanitizeSQLError(err))
	}
	return result, nil
}

// InsertTransactions appends ledger rows in a single transaction. Amounts
// are bound as their canonical decimal string so the NUMERIC column keeps
// cent precision.
func (s *SalesStore) InsertTransactions(ctx context.Context, transactions []domain.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales (date, year, month, category, amount)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, txn := range transactions {
		_, err := stmt.ExecContext(ctx,
			txn.Date.Format(time.DateOnly),
			txn.Year,
			txn.Month,
			txn.Category,
			txn.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// sanitizeSQLError keeps the driver message but strips anything that
// looks like an absolute path.
func sanitizeSQLError(err error) string {
	if err == nil {
		return "unknown error"
	}
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
