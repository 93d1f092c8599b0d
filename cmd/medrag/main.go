// Command medrag is the operator CLI for the report pipeline: ingest files, ask
// questions and manage stored documents without running the HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iyunix/go-medrag/internal/app"
	"github.com/iyunix/go-medrag/internal/config"
	"github.com/iyunix/go-medrag/internal/handlers"
	"github.com/iyunix/go-medrag/internal/services"
	"github.com/iyunix/go-medrag/internal/services/extract"
	"github.com/iyunix/go-medrag/internal/services/vectorstore"
)

// searcher is the vector search used by bench.
type searcher interface {
	Search(ctx context.Context, query string, documentIDs []string, limit int) ([]vectorstore.Match, error)
}

// Set by initServices, or directly by tests.
var (
	pipeline    handlers.Pipeline
	extractor   extract.Extractor
	vectorIndex searcher
	closeApp    func()
)

var rootCmd = &cobra.Command{
	Use:               "medrag",
	Short:             "Medical report ingestion and question answering",
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
	PersistentPostRun: func(*cobra.Command, []string) {
		if closeApp != nil {
			closeApp()
		}
	},
}

func initServices(cmd *cobra.Command, _ []string) error {
	if pipeline != nil {
		return nil
	}

	cfg := config.Load()
	logger := services.NewProductionLogger("medrag-cli", os.Stderr, services.ParseLevel(os.Getenv("LOG_LEVEL")), false)

	application, err := app.InitializeApplication(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	pipeline = application.Documents
	extractor = application.Extractor
	vectorIndex = application.Store
	closeApp = application.Close
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd.SetOut(os.Stdout)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
