// Package cli implements the salescope command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ledger-labs/salescope/internal/adapters/driven/config/file"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
	"github.com/ledger-labs/salescope/internal/core/ports/driving"
	"github.com/ledger-labs/salescope/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// DocumentWatcher re-indexes documents as they change on disk.
type DocumentWatcher interface {
	Watch(ctx context.Context, dir string) error
}

// Services aggregates everything the CLI commands need. main wires the
// concrete implementations and injects them before Execute.
type Services struct {
	Indexer    driving.Indexer
	Retriever  driving.Retriever
	Analyst    driving.SalesAnalyst
	Assistant  driving.Assistant
	Watcher    DocumentWatcher
	Exporter   driven.ReportExporter
	SalesStore driven.SalesStore
	ChunkStore driven.ChunkStore
	Config     file.Config
	ConfigDir  string
}

var services *Services

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "salescope",
	Short: "Sales analysis assistant over your documents and ledger",
	Long: `Salescope answers sales questions by combining semantic search over
your indexed documents with guarded SQL and derived metrics over the
sales ledger.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	// Running with no subcommand opens the interactive chat.
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose diagnostics on stderr")
}

// SetServices injects the service dependencies.
func SetServices(s *Services) {
	services = s
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
