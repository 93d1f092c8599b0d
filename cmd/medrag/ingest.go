package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/iyunix/go-medrag/internal/services"
	"github.com/iyunix/go-medrag/internal/services/extract"
)

var (
	ingestName string
	ingestJSON bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a medical report",
	Long: `Extracts text from the file, parses lab values and entities, stores the document
and indexes its chunks for retrieval.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "document name (defaults to the file name)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if pipeline == nil || extractor == nil {
		return errors.New("ingestion pipeline not configured")
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	name := ingestName
	if name == "" {
		name = filepath.Base(path)
	}

	ctx := cmd.Context()
	text, err := extractor.Extract(ctx, name, extract.ResolveContentType(name, ""), f)
	if err != nil {
		return err
	}

	result, err := pipeline.Ingest(ctx, text, name)
	if err != nil {
		return err
	}

	if ingestJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printIngestResult(cmd, result)
	return nil
}

func printIngestResult(cmd *cobra.Command, result *services.IngestResult) {
	cmd.Printf("Document %s (%s)\n", result.DocumentID, result.FileName)
	cmd.Printf("  Chunks: %d\n", result.ChunkCount)
	if len(result.FailedChunks) > 0 {
		cmd.Printf("  Chunks not indexed: %v\n", result.FailedChunks)
	}

	if result.TestResults != nil {
		ordered := result.TestResults.Ordered()
		if len(ordered) > 0 {
			cmd.Println("  Test results:")
			for _, r := range ordered {
				cmd.Printf("    %s: %s %s (%s)\n", r.Name, formatValue(r.Value), r.Unit, r.Status)
			}
		}
		for _, ev := range result.TestResults.Compensations {
			cmd.Printf("  Compensation applied: %s\n", ev.Rule)
		}
	}

	cats := make([]string, 0, len(result.Entities.Categories))
	for c := range result.Entities.Categories {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		if names := result.Entities.Categories[c]; len(names) > 0 {
			cmd.Printf("  %s: %v\n", c, names)
		}
	}
}

func formatValue(v float64) string {
	return fmt.Sprintf("%g", v)
}
