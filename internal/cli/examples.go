package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/realitycheck/internal/model"
)

// examplesCmd represents the examples command
var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "List example topic/country checks",
	Long:  `Print example checks spanning the risk range, ready to paste.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, ex := range model.Examples() {
			fmt.Fprintf(out, "%-10s realitycheck check %q %q\n", ex.Hint, ex.Topic, ex.Country)
		}
	},
}

func init() {
	rootCmd.AddCommand(examplesCmd)
}
