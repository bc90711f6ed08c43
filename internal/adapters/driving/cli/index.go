package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

var indexWatch bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index documents for semantic search",
	Long: `Index a document file or a directory of documents. Supported formats
are .txt, .md and .pdf. Re-indexing a file replaces its previous chunks.

With --watch the command keeps running after the initial pass and
re-indexes files as they change.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "watch the directory and re-index on change")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if services == nil || services.Indexer == nil {
		return errors.New("indexer not configured")
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	ctx := cmd.Context()

	if !info.IsDir() {
		count, err := services.Indexer.IndexDocument(ctx, path)
		if err != nil {
			return fmt.Errorf("index %s: %w", path, err)
		}
		cmd.Printf("Indexed %s: %d chunks\n", path, count)
		return nil
	}

	report, err := services.Indexer.IndexDirectory(ctx, path)
	if err != nil {
		return fmt.Errorf("index directory %s: %w", path, err)
	}
	printReport(cmd, report)

	if indexWatch {
		if services.Watcher == nil {
			return errors.New("watcher not configured")
		}
		cmd.Printf("Watching %s for changes (Ctrl-C to stop)...\n", path)
		if err := services.Watcher.Watch(ctx, path); err != nil && !errors.Is(err, ctx.Err()) {
			return err
		}
	}
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IndexReport) {
	sources := make([]string, 0, len(report.Indexed))
	for source := range report.Indexed {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		cmd.Printf("  %s: %d chunks\n", source, report.Indexed[source])
	}

	failed := make([]string, 0, len(report.Failed))
	for source := range report.Failed {
		failed = append(failed, source)
	}
	sort.Strings(failed)

	for _, source := range failed {
		cmd.Printf("  %s: FAILED (%v)\n", source, report.Failed[source])
	}

	cmd.Printf("Indexed %d documents (%d chunks), %d failed\n",
		len(report.Indexed), report.TotalChunks(), len(report.Failed))
}

var deleteCmd = &cobra.Command{
	Use:   "delete [source]",
	Short: "Remove a document from the index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if services == nil || services.Indexer == nil {
			return errors.New("indexer not configured")
		}
		if err := services.Indexer.DeleteDocument(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Deleted %s from the index\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
