package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Destroy and re-create the vector index",
	Long: `Deletes every indexed chunk and re-creates the collection with the
configured vector dimension. This is irreversible, so it requires
--force.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "confirm destroying all indexed data")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetForce {
		return fmt.Errorf("reset destroys all indexed data; re-run with --force to confirm")
	}

	a, err := buildApp(cmd.Context())
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer a.Close() //nolint:errcheck

	if err := a.Index.Reset(cmd.Context(), a.Embedder.Dimensions()); err != nil {
		return fmt.Errorf("resetting index: %w", err)
	}

	cmd.Println("Index reset.")
	return nil
}
