package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest documents",
	Long: `Uploads one or more files (.pdf, .md, .txt), extracts their text,
builds sections and indexes them for retrieval. Files whose content is
already indexed are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()
	failed := 0

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.Printf("  %s: %v\n", path, err)
			failed++
			continue
		}

		doc, err := ingestService.Ingest(ctx, filepath.Base(path), content)
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			cmd.Printf("  %s: already indexed (doc %s)\n", path, doc.ID[:8])
		case err != nil:
			cmd.Printf("  %s: %s %v\n", path, renderStatus(domain.StatusFailed), err)
			failed++
		default:
			cmd.Printf("  %s: %s (%d sections, doc %s)\n",
				path, renderStatus(doc.Status), doc.SectionCount, doc.ID[:8])
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
