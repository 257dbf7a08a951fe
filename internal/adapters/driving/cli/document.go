package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentJSON bool

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage ingested documents",
	Long:    `List, inspect, reprocess or delete ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentReprocessCmd = &cobra.Command{
	Use:   "reprocess [doc-id]",
	Short: "Re-run the pipeline for a document",
	Long: `Re-extracts, re-sections and re-embeds a document from its stored
raw bytes, replacing its structured index. Useful after changing the
embedding model or upgrading the extraction pipeline.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentReprocess,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentListCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentReprocessCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	docs, err := ingestService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested yet.")
		return nil
	}

	cmd.Println(headerStyle.Render("Documents"))
	cmd.Println()
	for i := range docs {
		doc := &docs[i]
		cmd.Printf("  %s  %s\n", dimStyle.Render(doc.ID[:8]), pathStyle.Render(doc.Filename))
		cmd.Printf("      Status: %s", renderStatus(doc.Status))
		if doc.SectionCount > 0 {
			cmd.Printf("  Sections: %d", doc.SectionCount)
		}
		cmd.Println()
		if doc.Error != "" {
			cmd.Printf("      Error: %s\n", doc.Error)
		}
		cmd.Printf("      Model: %s  Added: %s\n", doc.EmbeddingModel, doc.CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentReprocess(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	doc, err := ingestService.Reprocess(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("reprocess failed: %w", err)
	}

	cmd.Printf("Reprocessed %s: %s (%d sections)\n", doc.Filename, renderStatus(doc.Status), doc.SectionCount)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}
