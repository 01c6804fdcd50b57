package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragpipe/ragpipe/internal/adapters/driving/httpapi"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the HTTP API, exposing POST /ingest, POST /query and
GET /health. The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer a.Close() //nolint:errcheck

	addr := serveListen
	if addr == "" {
		addr = a.Config.Listen
	}

	server := httpapi.NewServer(a.Ingest, a.Answer)
	return server.Run(ctx, addr)
}
