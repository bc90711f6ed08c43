package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ledger-labs/salescope/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if services == nil {
			return errors.New("services not configured")
		}
		cfg := services.Config
		cmd.Printf("config dir:   %s\n", services.ConfigDir)
		cmd.Printf("data dir:     %s\n", cfg.DataDir)
		cmd.Printf("documents:    %s (chunk %d, overlap %d)\n",
			cfg.Documents.Dir, cfg.Documents.ChunkSize, cfg.Documents.ChunkOverlap)
		cmd.Printf("embedding:    %s (%s, %d dims)\n",
			cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		cmd.Printf("llm:          %s (%s via %s)\n",
			cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.BaseURL)
		cmd.Printf("retrieval:    top_k %d, min_similarity %.2f\n",
			cfg.Retrieval.TopK, cfg.Retrieval.MinSimilarity)
		cmd.Printf("sql:          max_rows %d, timeout %ds\n",
			cfg.SQL.MaxRows, cfg.SQL.TimeoutSeconds)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if services == nil {
			return errors.New("services not configured")
		}
		if err := file.Save(services.ConfigDir, services.Config); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", filepath.Join(services.ConfigDir, file.ConfigFileName))
		return nil
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the LLM API key",
	Long: `Prompt for the LLM API key without echoing it and store it in the
.env file in the config directory. The key is read from the environment
variable named by llm.api_key_env at startup.`,
	RunE: runConfigSetKey,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetKeyCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSetKey(cmd *cobra.Command, _ []string) error {
	if services == nil {
		return errors.New("services not configured")
	}

	keyEnv := services.Config.LLM.APIKeyEnv
	cmd.Printf("Enter value for %s: ", keyEnv)

	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	cmd.Println()
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	if len(key) == 0 {
		return errors.New("key must not be empty")
	}

	return writeEnvKey(filepath.Join(services.ConfigDir, ".env"), keyEnv, string(key))
}

// writeEnvKey sets or replaces one key in a dotenv file, preserving the
// other lines.
func writeEnvKey(path, key, value string) error {
	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	entry := key + "=" + value
	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(line, key+"=") {
			lines[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, entry)
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
