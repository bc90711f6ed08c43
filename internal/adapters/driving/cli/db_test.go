package cli

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleLedger(t *testing.T) {
	transactions := sampleLedger()
	require.Len(t, transactions, 36)

	categories := make(map[string]int)
	months := make(map[int]int)
	total := decimal.Zero

	for _, txn := range transactions {
		assert.Equal(t, 2025, txn.Year)
		assert.Equal(t, int(txn.Date.Month()), txn.Month)
		assert.True(t, txn.Amount.IsPositive())
		categories[txn.Category]++
		months[txn.Month]++
		total = total.Add(txn.Amount)
	}

	// Three categories, each with a full year of data.
	require.Len(t, categories, 3)
	for category, count := range categories {
		assert.Equal(t, 12, count, category)
	}
	require.Len(t, months, 12)

	assert.True(t, total.Equal(decimal.RequireFromString("990500.00")), "total was %s", total)
}
