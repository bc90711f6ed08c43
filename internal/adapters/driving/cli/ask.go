package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the sales analysis assistant",
	Long: `Ask a natural language question. The assistant decides which tools to
use: document search, the sales ledger, metric calculations or report
export. Tool failures are reported alongside the answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if services == nil || services.Assistant == nil {
		return errors.New("assistant not configured")
	}

	result, err := services.Assistant.Ask(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	cmd.Println(result.Answer)

	if len(result.Citations) > 0 {
		cmd.Println("\nSources:")
		for i, citation := range result.Citations {
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, citation.Source, citation.Score)
		}
	}

	for _, notice := range result.Notices {
		cmd.Printf("\nNote: %s\n", notice)
	}
	return nil
}
