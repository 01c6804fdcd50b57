package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ragpipe/ragpipe/internal/core/domain"
)

var (
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question from the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of passages to retrieve (0 = config default)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context())
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer a.Close() //nolint:errcheck

	topK := queryTopK
	if topK == 0 {
		topK = a.Config.Query.TopK
	}

	result, err := a.Answer.Answer(cmd.Context(), domain.AnswerRequest{
		Query:       strings.Join(args, " "),
		TopK:        topK,
		MaxTokens:   a.Config.Generation.MaxTokens,
		Temperature: a.Config.Generation.Temperature,
	})
	if err != nil {
		return fmt.Errorf("answering query: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(result.Answer)
	if len(result.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range result.Sources {
			cmd.Printf("  %s#%d (score %.4f)\n", src.Source, src.Ordinal, src.Score)
		}
	}
	return nil
}
