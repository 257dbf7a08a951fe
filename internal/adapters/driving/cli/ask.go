package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

var (
	askTopK    int
	askJSON    bool
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over your documents",
	Long: `Retrieves the sections most relevant to the question, packs them
into a character-budgeted context and asks the configured language
model for a grounded answer. Without a configured model the retrieved
sources are shown instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of sections to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the full source blocks")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	answer, err := queryService.Ask(context.Background(), args[0], domain.RetrievalOptions{
		TopK: askTopK,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println(headerStyle.Render("Sources"))
		for _, b := range answer.Sources {
			cmd.Printf("  [%d] %s %s\n", b.Index,
				pathStyle.Render(b.Path),
				dimStyle.Render(fmt.Sprintf("(pages %d-%d, score %.3f)", b.PageStart, b.PageEnd, b.Score)))
			if askSources {
				cmd.Printf("      %s\n", b.Text)
			}
		}
	}
	if answer.Model != "" {
		cmd.Println()
		cmd.Println(dimStyle.Render("Answered by " + answer.Model))
	}
	return nil
}
