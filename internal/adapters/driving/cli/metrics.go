package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

var (
	metricsType     string
	metricsYear     int
	metricsPeriod   string
	metricsPeriodNo int
	metricsCategory string
	metricsCompare  int
	metricsForecast string
	metricsJSON     bool
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Calculate derived sales metrics",
	Long: `Calculate sales metrics from the ledger.

Types:
  forecast_comparison  actuals vs forecast (--forecast required)
  yoy_comparison       year vs prior year (--compare-year required)
  growth               period-over-period growth within a year
  aggregate            rollup by category

The forecast is a JSON object mapping period numbers to amounts,
e.g. --forecast '{"1": 30000, "2": 32000}'.`,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().StringVarP(&metricsType, "type", "t", "aggregate", "metric type")
	metricsCmd.Flags().IntVarP(&metricsYear, "year", "y", 0, "year to analyse (required)")
	metricsCmd.Flags().StringVarP(&metricsPeriod, "period", "p", "monthly", "granularity: monthly or quarterly")
	metricsCmd.Flags().IntVar(&metricsPeriodNo, "period-number", 0, "restrict to one month (1-12) or quarter (1-4)")
	metricsCmd.Flags().StringVarP(&metricsCategory, "category", "c", "", "restrict to one category")
	metricsCmd.Flags().IntVar(&metricsCompare, "compare-year", 0, "baseline year for yoy_comparison")
	metricsCmd.Flags().StringVarP(&metricsForecast, "forecast", "f", "", "forecast values as JSON")
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "output the result as JSON")
	_ = metricsCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	if services == nil || services.Analyst == nil {
		return errors.New("sales analyst not configured")
	}

	req := domain.MetricRequest{
		Kind:         domain.MetricKind(metricsType),
		Year:         metricsYear,
		Granularity:  domain.Granularity(metricsPeriod),
		PeriodNumber: metricsPeriodNo,
		Category:     metricsCategory,
		CompareYear:  metricsCompare,
	}

	if metricsForecast != "" {
		if err := json.Unmarshal([]byte(metricsForecast), &req.Forecast); err != nil {
			return fmt.Errorf("parse --forecast: %w", err)
		}
	}

	result, err := services.Analyst.CalculateMetrics(cmd.Context(), req)
	if err != nil {
		return err
	}

	if metricsJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printMetrics(cmd, result)
	return nil
}

func printMetrics(cmd *cobra.Command, result *domain.MetricResult) {
	cmd.Printf("%s for %d", result.Kind, result.Year)
	if result.CompareYear > 0 {
		cmd.Printf(" vs %d", result.CompareYear)
	}
	cmd.Println()

	for _, row := range result.Rows {
		cmd.Printf("  %-12s", row.PeriodLabel)
		if row.Actual != nil {
			cmd.Printf("  actual %12s", row.Actual.StringFixed(2))
		}
		if row.Basis != nil {
			cmd.Printf("  basis %12s", row.Basis.StringFixed(2))
		}
		if row.Value != nil {
			cmd.Printf("  value %12s", row.Value.StringFixed(2))
		}
		if row.Pct != nil {
			cmd.Printf("  (%s%%)", row.Pct.Mul(decimal.NewFromInt(100)).StringFixed(1))
		} else if row.Value != nil {
			cmd.Print("  (n/a)")
		}
		if row.Caveat != "" {
			cmd.Printf("  [%s]", row.Caveat)
		}
		cmd.Println()
	}

	summary := result.Summary
	if summary.TotalValue != nil || summary.TotalActual != nil {
		cmd.Print("  total       ")
		if summary.TotalActual != nil {
			cmd.Printf("  actual %12s", summary.TotalActual.StringFixed(2))
		}
		if summary.TotalBasis != nil {
			cmd.Printf("  basis %12s", summary.TotalBasis.StringFixed(2))
		}
		if summary.TotalValue != nil {
			cmd.Printf("  value %12s", summary.TotalValue.StringFixed(2))
		}
		if summary.TotalPct != nil {
			cmd.Printf("  (%s%%)", summary.TotalPct.Mul(decimal.NewFromInt(100)).StringFixed(1))
		}
		cmd.Println()
	}

	if len(result.MissingYears) > 0 {
		cmd.Printf("  No ledger data for: %v\n", result.MissingYears)
	}
}
