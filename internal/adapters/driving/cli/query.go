package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Run a read-only SQL query against the sales table",
	Long: `Run a single SELECT statement against the sales table. Write
statements, other tables and multi-statement input are rejected.

Columns: id, date, year, month, category, amount.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output rows as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if services == nil || services.Analyst == nil {
		return errors.New("sales analyst not configured")
	}

	result, err := services.Analyst.QuerySales(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if queryJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal rows: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printRowSet(cmd, result)
	return nil
}

func printRowSet(cmd *cobra.Command, result *domain.RowSet) {
	if len(result.Rows) == 0 {
		cmd.Println("No rows.")
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()

	cmd.Printf("%d rows", len(result.Rows))
	if result.Truncated {
		cmd.Print(" (truncated)")
	}
	cmd.Println()
}
