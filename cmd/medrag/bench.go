package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	benchRuns int
	benchTopK int
)

var benchCmd = &cobra.Command{
	Use:   "bench [query]",
	Short: "Measure vector search latency",
	Long: `Runs the query against the configured vector backend several times and reports
per-run and average latency, including the query embedding call.`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchRuns, "runs", "r", 5, "number of search runs")
	benchCmd.Flags().IntVarP(&benchTopK, "top-k", "k", 10, "matches per search")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	if vectorIndex == nil {
		return errors.New("vector store not configured")
	}
	if benchRuns < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", benchRuns)
	}

	var total time.Duration
	ok := 0
	for i := 1; i <= benchRuns; i++ {
		start := time.Now()
		matches, err := vectorIndex.Search(cmd.Context(), args[0], nil, benchTopK)
		elapsed := time.Since(start)
		if err != nil {
			cmd.Printf("  run #%d failed: %v\n", i, err)
			continue
		}
		ok++
		total += elapsed
		cmd.Printf("  run #%d: %s (%d matches)\n", i, elapsed.Round(time.Millisecond), len(matches))
	}

	if ok == 0 {
		return errors.New("every run failed")
	}
	cmd.Printf("Average latency over %d runs: %s\n", ok, (total / time.Duration(ok)).Round(time.Millisecond))
	return nil
}
