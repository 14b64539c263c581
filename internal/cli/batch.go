package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/pipeline"
	"github.com/ppiankov/realitycheck/internal/worker"
)

var (
	concurrency  int
	batchJSON    string
	batchXLSX    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check many topic/country pairs from a file in parallel",
	Long: `Batch runs checks for every line of an input file:
- One "topic | country" pair per line
- Blank lines and lines starting with # are skipped
- Duplicate pairs are checked once
- Results keep input order and are summarized at the end

Example:
  realitycheck batch queries.txt
  realitycheck batch queries.txt --concurrency 8 --json results.json
  realitycheck batch queries.txt --xlsx results.xlsx --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&batchJSON, "json", "", "write results and summary as JSON")
	batchCmd.Flags().StringVar(&batchXLSX, "xlsx", "", "write results as an Excel workbook")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record checks in history")
	addLookupFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLookupFlags(cmd, cfg)
	if noHistory {
		cfg.History.Enabled = false
	}
	if concurrency <= 0 {
		concurrency = cfg.Concurrency.Workers
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  RealityCheck Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "  Cache:        %v\n", cfg.Cache.Enabled)
	fmt.Fprintf(os.Stderr, "\n")

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	processor := worker.NewBatchProcessor(rt.pipeline, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Checking queries with %d workers...\n\n", concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	summary := worker.Summarize(results)
	out := cmd.OutOrStdout()
	printBatchResults(out, results)
	printBatchSummary(out, summary)

	if batchJSON != "" {
		if err := worker.WriteJSON(batchJSON, results); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ JSON results: %s\n", batchJSON)
	}
	if batchXLSX != "" {
		if err := worker.WriteXLSX(batchXLSX, results); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ XLSX results: %s\n", batchXLSX)
	}

	if summary.Total > 0 && summary.Succeeded == 0 {
		return fmt.Errorf("all %d checks failed", summary.Total)
	}
	return nil
}

func printBatchResults(w io.Writer, results []*worker.CheckResult) {
	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(w, "✗ %s: %v\n", r.Query, r.Error)
			continue
		}
		fRate, _ := pipeline.DisplayRate(r.Report.Flagship)
		sRate, _ := pipeline.DisplayRate(r.Report.Small)
		fmt.Fprintf(w, "✓ %s  flagship %s %s · small %s %s\n",
			r.Query, fRate, r.Report.Flagship.RiskLevel, sRate, r.Report.Small.RiskLevel)
	}
}

func printBatchSummary(w io.Writer, s worker.Summary) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Batch Complete\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Total:     %d queries\n", s.Total)
	fmt.Fprintf(w, "  Success:   %d\n", s.Succeeded)
	fmt.Fprintf(w, "  Failures:  %d\n", s.Failed)

	if s.Succeeded == 0 {
		fmt.Fprintf(w, "\n")
		return
	}

	fmt.Fprintf(w, "\n  %-10s %7s %7s %7s %7s %7s\n", "Model", "Mean", "Median", "P90", "Min", "Max")
	for _, row := range []struct {
		label string
		stats worker.RateStats
	}{
		{"Flagship", s.Flagship},
		{"Small", s.Small},
	} {
		fmt.Fprintf(w, "  %-10s %6.1f%% %6.1f%% %6.1f%% %6.1f%% %6.1f%%\n", row.label,
			row.stats.Mean*100, row.stats.Median*100, row.stats.P90*100, row.stats.Min*100, row.stats.Max*100)
	}

	fmt.Fprintf(w, "\n  %-10s %9s %6s\n", "Risk", "Flagship", "Small")
	for _, level := range model.RiskLevels() {
		fmt.Fprintf(w, "  %-10s %9d %6d\n", level, s.FlagshipRisk[level], s.SmallRisk[level])
	}
	fmt.Fprintf(w, "\n")
}
