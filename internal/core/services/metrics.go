package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledger-labs/salescope/internal/core/domain"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
	"github.com/ledger-labs/salescope/internal/logger"
)

// negativeBaselineCaveat flags ratios computed against a negative
// baseline, which are defined but easy to misread.
const negativeBaselineCaveat = "baseline is negative; percentage may be misleading"

// MetricsEngine computes derived sales metrics with exact decimal
// arithmetic. Absent data stays absent: a period without transactions
// produces nil values, never zero, and a ratio over a zero baseline is
// undefined rather than infinite.
type MetricsEngine struct {
	store driven.SalesStore
}

// NewMetricsEngine creates a new metrics engine.
func NewMetricsEngine(store driven.SalesStore) *MetricsEngine {
	return &MetricsEngine{store: store}
}

// Calculate runs the metric described by req.
func (e *MetricsEngine) Calculate(ctx context.Context, req domain.MetricRequest) (*domain.MetricResult, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	logger.Section("Metrics")
	logger.Debug("kind=%s year=%d granularity=%s", req.Kind, req.Year, req.Granularity)

	switch req.Kind {
	case domain.MetricForecastComparison:
		return e.forecastComparison(ctx, req)
	case domain.MetricYoYComparison:
		return e.yoyComparison(ctx, req)
	case domain.MetricGrowth:
		return e.growth(ctx, req)
	case domain.MetricAggregate:
		return e.aggregate(ctx, req)
	}
	return nil, fmt.Errorf("%w: unknown metric type %q", domain.ErrInvalidInput, req.Kind)
}

// validateRequest normalises defaults and rejects malformed requests
// before any data access.
func validateRequest(req *domain.MetricRequest) error {
	if !knownKind(req.Kind) {
		return fmt.Errorf("%w: unknown metric type %q", domain.ErrInvalidInput, req.Kind)
	}
	if req.Year <= 0 {
		return fmt.Errorf("%w: year is required", domain.ErrInvalidInput)
	}

	if req.Granularity == "" {
		req.Granularity = domain.GranularityMonthly
	}
	if req.Granularity != domain.GranularityMonthly && req.Granularity != domain.GranularityQuarterly {
		return fmt.Errorf("%w: unknown granularity %q", domain.ErrInvalidInput, req.Granularity)
	}

	if req.PeriodNumber < 0 || req.PeriodNumber > req.Granularity.Periods() {
		return fmt.Errorf("%w: period number %d out of range for %s granularity",
			domain.ErrInvalidInput, req.PeriodNumber, req.Granularity)
	}

	switch req.Kind {
	case domain.MetricForecastComparison:
		if len(req.Forecast) == 0 {
			return fmt.Errorf("%w: forecast values are required for forecast comparison", domain.ErrInvalidInput)
		}
	case domain.MetricYoYComparison:
		if req.CompareYear <= 0 {
			return fmt.Errorf("%w: compare year is required for year-over-year comparison", domain.ErrInvalidInput)
		}
		if req.CompareYear == req.Year {
			return fmt.Errorf("%w: compare year must differ from year", domain.ErrInvalidInput)
		}
	}
	return nil
}

func knownKind(kind domain.MetricKind) bool {
	switch kind {
	case domain.MetricForecastComparison, domain.MetricYoYComparison,
		domain.MetricGrowth, domain.MetricAggregate:
		return true
	}
	return false
}

// forecastComparison computes variance = actual - forecast per period.
func (e *MetricsEngine) forecastComparison(ctx context.Context, req domain.MetricRequest) (*domain.MetricResult, error) {
	actuals, err := e.store.TotalsByPeriod(ctx, req.Year, req.Granularity, req.Category)
	if err != nil {
		return nil, err
	}

	result := newResult(req)
	if len(actuals) == 0 {
		result.MissingYears = append(result.MissingYears, req.Year)
	}

	for _, p := range requestedPeriods(req) {
		actual, hasActual := actuals[p]
		forecast, hasForecast := req.Forecast[p]
		if !hasActual && !hasForecast {
			continue
		}

		row := domain.MetricRow{
			PeriodLabel:  periodLabel(req.Granularity, p),
			PeriodNumber: p,
		}
		if hasActual {
			row.Actual = ptr(actual)
		}
		if hasForecast {
			row.Basis = ptr(forecast)
		}
		if hasActual && hasForecast {
			variance := actual.Sub(forecast)
			row.Value = ptr(variance)
			row.Pct, row.Caveat = safeRatio(variance, forecast)
		}
		result.Rows = append(result.Rows, row)
	}

	result.Summary = summarize(result.Rows)
	return result, nil
}

// yoyComparison compares each period of Year against CompareYear.
func (e *MetricsEngine) yoyComparison(ctx context.Context, req domain.MetricRequest) (*domain.MetricResult, error) {
	current, err := e.store.TotalsByPeriod(ctx, req.Year, req.Granularity, req.Category)
	if err != nil {
		return nil, err
	}
	prior, err := e.store.TotalsByPeriod(ctx, req.CompareYear, req.Granularity, req.Category)
	if err != nil {
		return nil, err
	}

	result := newResult(req)
	if len(current) == 0 {
		result.MissingYears = append(result.MissingYears, req.Year)
	}
	if len(prior) == 0 {
		result.MissingYears = append(result.MissingYears, req.CompareYear)
	}

	for _, p := range requestedPeriods(req) {
		cur, hasCur := current[p]
		base, hasBase := prior[p]
		if !hasCur && !hasBase {
			continue
		}

		row := domain.MetricRow{
			PeriodLabel:  periodLabel(req.Granularity, p),
			PeriodNumber: p,
		}
		if hasCur {
			row.Actual = ptr(cur)
		}
		if hasBase {
			row.Basis = ptr(base)
		}
		if hasCur && hasBase {
			delta := cur.Sub(base)
			row.Value = ptr(delta)
			row.Pct, row.Caveat = safeRatio(delta, base)
		}
		result.Rows = append(result.Rows, row)
	}

	result.Summary = summarize(result.Rows)
	return result, nil
}

// growth computes period-over-period change within one year. The first
// period with data has no predecessor and so no growth value.
func (e *MetricsEngine) growth(ctx context.Context, req domain.MetricRequest) (*domain.MetricResult, error) {
	totals, err := e.store.TotalsByPeriod(ctx, req.Year, req.Granularity, req.Category)
	if err != nil {
		return nil, err
	}

	result := newResult(req)
	if len(totals) == 0 {
		result.MissingYears = append(result.MissingYears, req.Year)
		return result, nil
	}

	var prev *decimal.Decimal
	for p := 1; p <= req.Granularity.Periods(); p++ {
		total, ok := totals[p]
		if !ok {
			// A gap breaks the chain: growth against a non-adjacent
			// period would be misleading.
			prev = nil
			continue
		}

		row := domain.MetricRow{
			PeriodLabel:  periodLabel(req.Granularity, p),
			PeriodNumber: p,
			Actual:       ptr(total),
		}
		if prev != nil {
			delta := total.Sub(*prev)
			row.Basis = prev
			row.Value = ptr(delta)
			row.Pct, row.Caveat = safeRatio(delta, *prev)
		}
		result.Rows = append(result.Rows, row)
		prev = ptr(total)
	}

	result.Summary = summarize(result.Rows)
	return result, nil
}

// aggregate rolls sales up by category for a year or one period of it,
// descending by amount, with each category's share of the total.
func (e *MetricsEngine) aggregate(ctx context.Context, req domain.MetricRequest) (*domain.MetricResult, error) {
	totals, err := e.store.TotalsByCategory(ctx, req.Year, req.Granularity, req.PeriodNumber)
	if err != nil {
		return nil, err
	}

	result := newResult(req)
	if len(totals) == 0 {
		result.MissingYears = append(result.MissingYears, req.Year)
		return result, nil
	}

	categories := make([]string, 0, len(totals))
	grand := decimal.Zero
	for category, amount := range totals {
		categories = append(categories, category)
		grand = grand.Add(amount)
	}
	sort.Slice(categories, func(i, j int) bool {
		a, b := totals[categories[i]], totals[categories[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return categories[i] < categories[j]
	})

	for _, category := range categories {
		amount := totals[category]
		row := domain.MetricRow{
			PeriodLabel: category,
			Actual:      ptr(amount),
			Value:       ptr(amount),
		}
		row.Pct, row.Caveat = safeRatio(amount, grand)
		result.Rows = append(result.Rows, row)
	}

	result.Summary = domain.MetricSummary{
		TotalActual: ptr(grand),
		TotalValue:  ptr(grand),
	}
	return result, nil
}

// requestedPeriods returns either the single requested period or all
// periods of the granularity.
func requestedPeriods(req domain.MetricRequest) []int {
	if req.PeriodNumber > 0 {
		return []int{req.PeriodNumber}
	}
	periods := make([]int, req.Granularity.Periods())
	for i := range periods {
		periods[i] = i + 1
	}
	return periods
}

// safeRatio divides value by basis, returning nil for a zero basis and
// a caveat for a negative one.
func safeRatio(value, basis decimal.Decimal) (*decimal.Decimal, string) {
	if basis.IsZero() {
		return nil, ""
	}
	ratio := value.DivRound(basis, 6)
	if basis.IsNegative() {
		return ptr(ratio), negativeBaselineCaveat
	}
	return ptr(ratio), ""
}

// summarize totals rows and derives the overall ratio from the totals,
// not from averaging the per-row ratios.
func summarize(rows []domain.MetricRow) domain.MetricSummary {
	var summary domain.MetricSummary
	var actual, basis, value decimal.Decimal
	var hasActual, hasBasis, hasValue bool

	for _, row := range rows {
		if row.Actual != nil {
			actual = actual.Add(*row.Actual)
			hasActual = true
		}
		if row.Basis != nil {
			basis = basis.Add(*row.Basis)
			hasBasis = true
		}
		if row.Value != nil {
			value = value.Add(*row.Value)
			hasValue = true
		}
	}

	if hasActual {
		summary.TotalActual = ptr(actual)
	}
	if hasBasis {
		summary.TotalBasis = ptr(basis)
	}
	if hasValue {
		summary.TotalValue = ptr(value)
	}
	if hasValue && hasBasis {
		summary.TotalPct, summary.Caveat = safeRatio(value, basis)
	}
	return summary
}

// newResult initialises a result carrying the request's shape.
func newResult(req domain.MetricRequest) *domain.MetricResult {
	return &domain.MetricResult{
		Kind:        req.Kind,
		Year:        req.Year,
		Granularity: req.Granularity,
		CompareYear: req.CompareYear,
	}
}

// periodLabel renders "January".."December" or "Q1".."Q4".
func periodLabel(g domain.Granularity, period int) string {
	if g == domain.GranularityQuarterly {
		return fmt.Sprintf("Q%d", period)
	}
	return time.Month(period).String()
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }
