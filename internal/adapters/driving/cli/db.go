package cli

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Sales ledger commands",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Seed the sales ledger with the 2025 sample data",
	Long: `Populate an empty sales ledger with a full year of 2025 sample
transactions across three categories. Refuses to run if the ledger
already contains 2025 data.`,
	RunE: runDBInit,
}

func init() {
	dbCmd.AddCommand(dbInitCmd)
	rootCmd.AddCommand(dbCmd)
}

func runDBInit(cmd *cobra.Command, _ []string) error {
	if services == nil || services.SalesStore == nil {
		return errors.New("sales store not configured")
	}

	ctx := cmd.Context()
	years, err := services.SalesStore.YearsWithData(ctx)
	if err != nil {
		return fmt.Errorf("check ledger: %w", err)
	}
	if slices.Contains(years, 2025) {
		return errors.New("ledger already contains 2025 data")
	}

	transactions := sampleLedger()
	if err := services.SalesStore.InsertTransactions(ctx, transactions); err != nil {
		return fmt.Errorf("seed ledger: %w", err)
	}

	total := decimal.Zero
	for _, txn := range transactions {
		total = total.Add(txn.Amount)
	}
	cmd.Printf("Seeded %d transactions for 2025 (total %s)\n", len(transactions), total.StringFixed(2))
	return nil
}

// sampleLedger returns a complete 2025 year of monthly sales across
// three categories, shaped to make variance analysis interesting.
func sampleLedger() []domain.Transaction {
	rows := []struct {
		month    int
		category string
		amount   string
	}{
		{1, "Electronics", "28500.00"},
		{1, "Clothing", "15200.00"},
		{1, "Home & Garden", "8300.00"},
		{2, "Electronics", "31200.00"},
		{2, "Clothing", "14800.00"},
		{2, "Home & Garden", "9100.00"},
		{3, "Electronics", "35600.00"},
		{3, "Clothing", "18900.00"},
		{3, "Home & Garden", "12500.00"},
		{4, "Electronics", "33200.00"},
		{4, "Clothing", "21500.00"},
		{4, "Home & Garden", "15800.00"},
		{5, "Electronics", "38900.00"},
		{5, "Clothing", "24300.00"},
		{5, "Home & Garden", "18200.00"},
		{6, "Electronics", "42100.00"},
		{6, "Clothing", "22800.00"},
		{6, "Home & Garden", "16500.00"},
		{7, "Electronics", "39800.00"},
		{7, "Clothing", "19200.00"},
		{7, "Home & Garden", "14300.00"},
		{8, "Electronics", "44500.00"},
		{8, "Clothing", "21100.00"},
		{8, "Home & Garden", "13800.00"},
		{9, "Electronics", "41200.00"},
		{9, "Clothing", "25600.00"},
		{9, "Home & Garden", "11900.00"},
		{10, "Electronics", "48700.00"},
		{10, "Clothing", "28900.00"},
		{10, "Home & Garden", "14500.00"},
		{11, "Electronics", "62300.00"},
		{11, "Clothing", "38500.00"},
		{11, "Home & Garden", "19200.00"},
		{12, "Electronics", "71200.00"},
		{12, "Clothing", "45600.00"},
		{12, "Home & Garden", "22800.00"},
	}

	transactions := make([]domain.Transaction, len(rows))
	for i, row := range rows {
		transactions[i] = domain.Transaction{
			Date:     time.Date(2025, time.Month(row.month), 15, 0, 0, 0, 0, time.UTC),
			Year:     2025,
			Month:    row.month,
			Category: row.category,
			Amount:   decimal.RequireFromString(row.amount),
		}
	}
	return transactions
}
