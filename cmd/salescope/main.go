// Command salescope is the sales analysis assistant CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/ledger-labs/salescope/internal/adapters/driven/config/file"
	ollamaembed "github.com/ledger-labs/salescope/internal/adapters/driven/embedding/ollama"
	"github.com/ledger-labs/salescope/internal/adapters/driven/export/markdown"
	"github.com/ledger-labs/salescope/internal/adapters/driven/extract"
	ollamallm "github.com/ledger-labs/salescope/internal/adapters/driven/llm/ollama"
	openaillm "github.com/ledger-labs/salescope/internal/adapters/driven/llm/openai"
	"github.com/ledger-labs/salescope/internal/adapters/driven/storage/sqlite"
	"github.com/ledger-labs/salescope/internal/adapters/driving/cli"
	"github.com/ledger-labs/salescope/internal/chunker"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
	"github.com/ledger-labs/salescope/internal/core/services"
	"github.com/ledger-labs/salescope/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "salescope: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configDir, err := file.DefaultConfigDir()
	if err != nil {
		return err
	}

	// Secrets come from dotenv files; a missing file is fine.
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	cfg, err := file.Load(configDir)
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder := ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:           cfg.Embedding.BaseURL,
		Model:             cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		Timeout:           time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})

	llm := buildLLM(cfg)

	ch, err := chunker.New(
		chunker.WithChunkSize(cfg.Documents.ChunkSize),
		chunker.WithOverlap(cfg.Documents.ChunkOverlap),
	)
	if err != nil {
		return err
	}

	extractor := extract.NewExtractor()
	exporter := markdown.NewExporter(cfg.Export.Dir)

	indexer := services.NewIndexingService(extractor, ch, embedder, store.ChunkStore())
	retriever := services.NewRetrievalService(embedder, store.ChunkStore(), llm, services.RetrievalConfig{
		TopK:          cfg.Retrieval.TopK,
		MinSimilarity: cfg.Retrieval.MinSimilarity,
		ContextBudget: cfg.Retrieval.ContextBudget,
	})
	analyst := services.NewSalesQueryService(store.SalesStore(), services.SQLConfig{
		MaxRows: cfg.SQL.MaxRows,
		Timeout: time.Duration(cfg.SQL.TimeoutSeconds) * time.Second,
	})
	assistant := services.NewAssistantService(retriever, analyst, exporter, llm)
	watcher := services.NewWatcher(indexer, extractor)

	cli.SetServices(&cli.Services{
		Indexer:    indexer,
		Retriever:  retriever,
		Analyst:    analyst,
		Assistant:  assistant,
		Watcher:    watcher,
		Exporter:   exporter,
		SalesStore: store.SalesStore(),
		ChunkStore: store.ChunkStore(),
		Config:     cfg,
		ConfigDir:  configDir,
	})

	return cli.Execute()
}

// buildLLM constructs the configured LLM provider. A missing API key is
// not fatal: the assistant degrades to heuristic dispatch without a
// model, and the CLI says how to fix it.
func buildLLM(cfg file.Config) driven.LLMService {
	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second

	switch cfg.LLM.Provider {
	case "ollama":
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: timeout,
		})
	default:
		apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
		if apiKey == "" {
			logger.Warn("%s is not set; running without a language model (use 'salescope config set-key')", cfg.LLM.APIKeyEnv)
			return nil
		}
		svc, err := openaillm.NewLLMService(openaillm.Config{
			APIKey:  apiKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: timeout,
		})
		if err != nil {
			logger.Warn("LLM setup failed: %v; running without a language model", err)
			return nil
		}
		return svc
	}
}
