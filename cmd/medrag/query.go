package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iyunix/go-medrag/internal/services/retrieval"
)

var (
	queryDocs []string
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about ingested reports",
	Long: `Answers from the given documents, or from the most recently ingested one when
--doc is not set. Falls back to substring and leading-chunk retrieval when semantic
search finds nothing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringSliceVarP(&queryDocs, "doc", "d", nil, "document id to query (repeatable)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if pipeline == nil {
		return errors.New("query pipeline not configured")
	}

	question := strings.Join(args, " ")
	answer, err := pipeline.Query(cmd.Context(), question, queryDocs)
	if errors.Is(err, retrieval.ErrNothingToAnswer) {
		cmd.Println("No relevant content found.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if answer.Degraded {
		cmd.Println()
		cmd.Println("(answer service unavailable; showing retrieved excerpts)")
	}
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Printf("Sources (%s):\n", answer.Tier)
		for i, s := range answer.Sources {
			score := "-"
			if s.Similarity != nil {
				score = fmt.Sprintf("%.2f", *s.Similarity)
			}
			cmd.Printf("  [%d] %s (%s) %s\n", i+1, s.DocumentID, score, s.Excerpt)
		}
	}
	return nil
}
