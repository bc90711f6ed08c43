// Package file provides TOML-backed application configuration stored in
// the salescope home directory.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/ledger-labs/salescope/internal/core/domain"
)

// ConfigFileName is the configuration file name inside the config dir.
const ConfigFileName = "config.toml"

// Config is the full application configuration.
type Config struct {
	DataDir   string          `toml:"data_dir"`
	Documents DocumentsConfig `toml:"documents"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	SQL       SQLConfig       `toml:"sql"`
	Export    ExportConfig    `toml:"export"`
}

// DocumentsConfig controls document ingestion.
type DocumentsConfig struct {
	Dir          string `toml:"dir"`
	ChunkSize    int    `toml:"chunk_size"`
	ChunkOverlap int    `toml:"chunk_overlap"`
}

// EmbeddingConfig controls the embedding service.
type EmbeddingConfig struct {
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	Dimensions        int     `toml:"dimensions"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LLMConfig controls the LLM provider.
type LLMConfig struct {
	// Provider is either "ollama" or "openai".
	Provider       string `toml:"provider"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	APIKeyEnv      string `toml:"api_key_env"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// RetrievalConfig controls document retrieval.
type RetrievalConfig struct {
	TopK          int     `toml:"top_k"`
	MinSimilarity float64 `toml:"min_similarity"`
	ContextBudget int     `toml:"context_budget"`
}

// SQLConfig controls the restricted sales query tool.
type SQLConfig struct {
	MaxRows        int `toml:"max_rows"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// ExportConfig controls report export.
type ExportConfig struct {
	Dir string `toml:"dir"`
}

// DefaultConfigDir returns ~/.salescope.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".salescope"), nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig(configDir string) Config {
	return Config{
		DataDir: filepath.Join(configDir, "data"),
		Documents: DocumentsConfig{
			Dir:          "docs",
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		Embedding: EmbeddingConfig{
			BaseURL:           "http://localhost:11434",
			Model:             "granite-embedding:30m",
			Dimensions:        384,
			TimeoutSeconds:    30,
			RequestsPerSecond: 20,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			BaseURL:        "https://openrouter.ai/api/v1",
			Model:          "nvidia/nemotron-3-nano-30b-a3b:free",
			APIKeyEnv:      "OPENROUTER_API_KEY",
			TimeoutSeconds: 120,
		},
		Retrieval: RetrievalConfig{
			TopK:          5,
			MinSimilarity: 0.3,
			ContextBudget: 6000,
		},
		SQL: SQLConfig{
			MaxRows:        500,
			TimeoutSeconds: 5,
		},
		Export: ExportConfig{
			Dir: filepath.Join(configDir, "exports"),
		},
	}
}

// Load reads the config file from configDir, falling back to defaults for
// a missing file and for any zero-valued field.
func Load(configDir string) (Config, error) {
	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return Config{}, err
		}
		configDir = dir
	}

	cfg := DefaultConfig(configDir)

	data, err := os.ReadFile(filepath.Join(configDir, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse config: %v", domain.ErrInvalidConfig, err)
	}

	fillDefaults(&cfg, configDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the config file with restricted permissions.
func Save(configDir string, cfg Config) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, ConfigFileName), data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// fillDefaults replaces zero values with defaults so a sparse file works.
func fillDefaults(cfg *Config, configDir string) {
	defaults := DefaultConfig(configDir)
	if cfg.DataDir == "" {
		cfg.DataDir = defaults.DataDir
	}
	if cfg.Documents.Dir == "" {
		cfg.Documents.Dir = defaults.Documents.Dir
	}
	if cfg.Documents.ChunkSize == 0 {
		cfg.Documents.ChunkSize = defaults.Documents.ChunkSize
	}
	if cfg.Documents.ChunkOverlap == 0 {
		cfg.Documents.ChunkOverlap = defaults.Documents.ChunkOverlap
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = defaults.Embedding.BaseURL
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaults.Embedding.Model
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = defaults.Embedding.Dimensions
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = defaults.Embedding.TimeoutSeconds
	}
	if cfg.Embedding.RequestsPerSecond == 0 {
		cfg.Embedding.RequestsPerSecond = defaults.Embedding.RequestsPerSecond
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaults.LLM.Provider
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = defaults.LLM.BaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaults.LLM.Model
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = defaults.LLM.APIKeyEnv
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = defaults.LLM.TimeoutSeconds
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = defaults.Retrieval.TopK
	}
	if cfg.Retrieval.MinSimilarity == 0 {
		cfg.Retrieval.MinSimilarity = defaults.Retrieval.MinSimilarity
	}
	if cfg.Retrieval.ContextBudget == 0 {
		cfg.Retrieval.ContextBudget = defaults.Retrieval.ContextBudget
	}
	if cfg.SQL.MaxRows == 0 {
		cfg.SQL.MaxRows = defaults.SQL.MaxRows
	}
	if cfg.SQL.TimeoutSeconds == 0 {
		cfg.SQL.TimeoutSeconds = defaults.SQL.TimeoutSeconds
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = defaults.Export.Dir
	}
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Documents.ChunkOverlap < 0 || c.Documents.ChunkOverlap >= c.Documents.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size)", domain.ErrInvalidConfig)
	}
	if c.LLM.Provider != "ollama" && c.LLM.Provider != "openai" {
		return fmt.Errorf("%w: unknown llm provider %q", domain.ErrInvalidConfig, c.LLM.Provider)
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("%w: retrieval top_k must be positive", domain.ErrInvalidConfig)
	}
	if c.Retrieval.MinSimilarity < 0 || c.Retrieval.MinSimilarity > 1 {
		return fmt.Errorf("%w: min_similarity must be in [0, 1]", domain.ErrInvalidConfig)
	}
	if c.SQL.MaxRows < 1 {
		return fmt.Errorf("%w: sql max_rows must be positive", domain.ErrInvalidConfig)
	}
	return nil
}
