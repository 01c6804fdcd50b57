package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ragpipe/ragpipe/internal/core/domain"
)

var (
	ingestSourceID string
	ingestTitle    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Chunk, embed and index documents",
	Long: `Reads each file, splits it into chunks, embeds them and stores them
in the vector index. The file name becomes the source ID unless
--source-id is given (only valid with a single file). Re-ingesting the
same source ID replaces its chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSourceID, "source-id", "", "source ID for the document (single file only)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (single file only)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) > 1 && (ingestSourceID != "" || ingestTitle != "") {
		return fmt.Errorf("--source-id and --title require a single file")
	}

	a, err := buildApp(cmd.Context())
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer a.Close() //nolint:errcheck

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		sourceID := ingestSourceID
		if sourceID == "" {
			sourceID = filepath.Base(path)
		}
		title := ingestTitle
		if title == "" {
			title = filepath.Base(path)
		}

		summary, err := a.Ingest.Ingest(cmd.Context(), domain.Document{
			SourceID: sourceID,
			Title:    title,
			Text:     string(data),
		})
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}

		cmd.Printf("%s: %d/%d chunks indexed\n", sourceID, summary.Succeeded, summary.Attempted)
		for _, chunk := range summary.Chunks {
			if chunk.Error != "" {
				cmd.Printf("  chunk %d failed: %s\n", chunk.Ordinal, chunk.Error)
			}
		}
	}

	return nil
}
