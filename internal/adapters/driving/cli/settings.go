package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agora-labs/agora-cli/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure retrieval and model settings.

Settings live in a TOML file under the data directory; values outside
their accepted range are clamped at load time.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value by dotted key, for example:

  agora settings set retrieval.top_k 12
  agora settings set embedding.model text-embedding-3-large
  agora settings set llm.model claude-3-5-sonnet-latest`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	s := services.ResolveSettings(configStore)

	cmd.Println(headerStyle.Render("Current Settings"))
	cmd.Println()
	cmd.Println("[Embedding]")
	cmd.Printf("  Model: %s\n", s.EmbeddingModel)
	cmd.Println()
	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", s.TopK)
	cmd.Printf("  Min score: %.2f\n", s.MinScore)
	cmd.Printf("  Max context chars: %d\n", s.MaxContextChars)
	cmd.Println()
	cmd.Println("[LLM]")
	cmd.Printf("  Models: %s\n", strings.Join(s.LLMModels, ", "))
	cmd.Printf("  Max tokens: %d\n", s.LLMMaxTokens)
	cmd.Printf("  Temperature: %.2f\n", s.LLMTemperature)
	cmd.Println()
	cmd.Printf("Config file: %s\n", configStore.Path())
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]

	// Store numbers and booleans natively so TOML round-trips them.
	var value any = raw
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		value = i
	} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
		value = f
	} else if b, err := strconv.ParseBool(raw); err == nil {
		value = b
	}

	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}

	cmd.Printf("Set %s = %v\n", key, value)
	return nil
}
