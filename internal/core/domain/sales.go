package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single sales ledger record. Year and month are
// derivable from Date and must stay consistent with it. Amount may be
// negative (returns and adjustments).
type Transaction struct {
	ID       int64
	Date     time.Time
	Year     int
	Month    int
	Category string
	Amount   decimal.Decimal
}

// RowSet is the tabular result of a raw SQL query: ordered columns and
// ordered rows. Truncated is set when the row cap was reached.
type RowSet struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
}

// MetricKind selects the calculation performed by the metrics engine.
type MetricKind string

const (
	// MetricForecastComparison compares actuals against forecast values:
	// variance = actual - forecast, variance_pct = variance / forecast.
	MetricForecastComparison MetricKind = "forecast_comparison"

	// MetricYoYComparison compares a year against a prior year:
	// delta = current - prior, growth = delta / prior.
	MetricYoYComparison MetricKind = "yoy_comparison"

	// MetricGrowth computes period-over-period growth within one year.
	MetricGrowth MetricKind = "growth"

	// MetricAggregate rolls sales up by category for a period.
	MetricAggregate MetricKind = "aggregate"
)

// Granularity is the time bucket for period metrics.
type Granularity string

const (
	// GranularityMonthly buckets a year into 12 months.
	GranularityMonthly Granularity = "monthly"

	// GranularityQuarterly buckets a year into 4 quarters.
	GranularityQuarterly Granularity = "quarterly"
)

// Periods returns the number of buckets in a year for the granularity.
func (g Granularity) Periods() int {
	if g == GranularityQuarterly {
		return 4
	}
	return 12
}

// MetricRequest is the typed argument schema for the metrics engine.
type MetricRequest struct {
	Kind MetricKind `json:"metric_type"`

	// Year is the primary year to analyse.
	Year int `json:"year"`

	// Granularity defaults to monthly.
	Granularity Granularity `json:"period,omitempty"`

	// PeriodNumber restricts the calculation to one month (1-12) or
	// quarter (1-4). Required for aggregate, optional otherwise.
	PeriodNumber int `json:"period_number,omitempty"`

	// Category restricts period totals to one category.
	Category string `json:"category,omitempty"`

	// Forecast maps period numbers to forecast amounts. Required for
	// forecast comparison.
	Forecast map[int]decimal.Decimal `json:"forecast_values,omitempty"`

	// CompareYear is the baseline year. Required for YoY comparison.
	CompareYear int `json:"compare_year,omitempty"`
}

// MetricRow is one period (or category) of a metric result. Pointer
// fields are nil when the underlying value is undefined: a missing
// period is "no data", never zero, and a ratio over a zero baseline has
// no value.
type MetricRow struct {
	// PeriodLabel is "January".."December", "Q1".."Q4", or a category
	// name for aggregates.
	PeriodLabel  string `json:"period_label"`
	PeriodNumber int    `json:"period_number,omitempty"`

	// Actual is the measured value for the period.
	Actual *decimal.Decimal `json:"actual,omitempty"`

	// Basis is the comparison value: forecast, prior-year, or previous
	// period depending on the metric kind.
	Basis *decimal.Decimal `json:"basis,omitempty"`

	// Value is the primary derived value: variance, YoY delta, or the
	// aggregate amount.
	Value *decimal.Decimal `json:"value,omitempty"`

	// Pct is the derived ratio (variance_pct, growth rate, share of
	// total), nil when the baseline is zero or data is missing.
	Pct *decimal.Decimal `json:"pct,omitempty"`

	// Caveat flags results that are technically defined but misleading,
	// e.g. a growth rate computed against a negative baseline.
	Caveat string `json:"caveat,omitempty"`
}

// MetricSummary totals a metric result across its rows.
type MetricSummary struct {
	TotalActual *decimal.Decimal `json:"total_actual,omitempty"`
	TotalBasis  *decimal.Decimal `json:"total_basis,omitempty"`
	TotalValue  *decimal.Decimal `json:"total_value,omitempty"`
	TotalPct    *decimal.Decimal `json:"total_pct,omitempty"`
	Caveat      string           `json:"caveat,omitempty"`
}

// MetricResult is the outcome of one metrics calculation.
type MetricResult struct {
	Kind        MetricKind    `json:"metric_type"`
	Year        int           `json:"year"`
	Granularity Granularity   `json:"period"`
	CompareYear int           `json:"compare_year,omitempty"`
	Rows        []MetricRow   `json:"results"`
	Summary     MetricSummary `json:"summary"`

	// MissingYears lists requested years with no ledger data at all.
	MissingYears []int `json:"data_missing_for,omitempty"`
}
