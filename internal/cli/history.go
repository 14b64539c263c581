package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/realitycheck/internal/history"
	"github.com/ppiankov/realitycheck/internal/model"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent checks",
	Long: `History lists checks recorded in the local history database, newest first.

Example:
  realitycheck history
  realitycheck history --limit 50`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of checks to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled (history.enabled: false)")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(context.Background(), historyLimit)
	if err != nil {
		return err
	}

	printHistory(cmd.OutOrStdout(), entries)
	return nil
}

func printHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No checks recorded yet.")
		return
	}

	fmt.Fprintf(w, "%-20s %-30s %-18s %-18s %s\n", "Checked", "Topic", "Country", "Flagship", "Small")
	for _, e := range entries {
		fmt.Fprintf(w, "%-20s %-30s %-18s %-18s %s\n",
			e.CheckedAt.Local().Format("2006-01-02 15:04"),
			truncate(e.Topic, 30),
			truncate(e.Country, 18),
			rateCell(e.FlagshipRate, e.FlagshipRisk),
			rateCell(e.SmallRate, e.SmallRisk),
		)
	}
}

func rateCell(rate float64, risk model.RiskLevel) string {
	return fmt.Sprintf("%3.0f%% %s", rate*100, risk)
}

// truncate shortens s to n runes, marking the cut with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
