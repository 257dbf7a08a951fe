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
	queryTopK     int
	queryMinScore float64
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve sections by similarity",
	Long: `Embeds the query and returns the most similar indexed sections,
ranked by cosine similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().Float64Var(&queryMinScore, "min-score", 0, "drop results scoring below this")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	results, err := queryService.Retrieve(context.Background(), args[0], domain.RetrievalOptions{
		TopK:     queryTopK,
		MinScore: queryMinScore,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(headerStyle.Render("Results"))
	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] %s %s\n", i+1,
			pathStyle.Render(r.Section.Path),
			dimStyle.Render(fmt.Sprintf("(pages %d-%d, score %.3f)", r.Section.PageStart, r.Section.PageEnd, r.Score)))
		cmd.Printf("      %s\n\n", snippet(r.Section.Text, 200))
	}
	return nil
}

// snippet returns the first line-ish of text, truncated on a rune
// boundary with an ellipsis.
func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
