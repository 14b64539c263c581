package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/pipeline"
)

var (
	topicCount   int64
	countryCount int64
	smallOnly    bool
	predictJSON  bool
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run the model on known literature counts (no lookups)",
	Long: `Predict evaluates the regression model directly on literature counts you
supply, without contacting OpenAlex. Counts below 1 are treated as 1.

Both model classes are shown unless --small is given explicitly.

Example:
  realitycheck predict --topic-count 1000 --country-count 1000000
  realitycheck predict --topic-count 50 --country-count 20000 --small
  realitycheck predict --topic-count 50 --country-count 20000 --small=false --json`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().Int64Var(&topicCount, "topic-count", 0, "works matching topic and country")
	predictCmd.Flags().Int64Var(&countryCount, "country-count", 0, "works matching the country")
	predictCmd.Flags().BoolVar(&smallOnly, "small", false, "predict only the small model class (false: only flagship)")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "print results as JSON")
	_ = predictCmd.MarkFlagRequired("topic-count")
	_ = predictCmd.MarkFlagRequired("country-count")
}

func runPredict(cmd *cobra.Command, args []string) error {
	if topicCount < 0 || countryCount < 0 {
		return fmt.Errorf("counts must be non-negative")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scorer, source, err := buildScorer(cfg)
	if err != nil {
		return err
	}

	in := model.PredictionInput{TopicVolume: topicCount, CountryVolume: countryCount}
	classes := []bool{false, true}
	if cmd.Flags().Changed("small") {
		classes = []bool{smallOnly}
	}

	results := make(map[string]model.PredictionResult, len(classes))
	for _, small := range classes {
		in.IsSmallModel = small
		results[classKey(small)] = scorer.Calculate(in)
	}

	out := cmd.OutOrStdout()
	if predictJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	info := model.ModelInfo{
		SampleSize: scorer.Model().SampleSize,
		RSquared:   scorer.Model().RSquared,
		Source:     source,
	}
	renderer := pipeline.NewRenderer(false)

	fmt.Fprintf(out, "\nTopic works: %s · Country works: %s\n\n",
		pipeline.FormatCount(topicCount), pipeline.FormatCount(countryCount))
	for i, small := range classes {
		if i == len(classes)-1 {
			renderer = pipeline.NewRenderer(cfg.Output.IncludeFooter)
		}
		if err := renderer.RenderPrediction(out, results[classKey(small)], small, info); err != nil {
			return err
		}
	}
	return nil
}

func classKey(small bool) string {
	if small {
		return "small"
	}
	return "flagship"
}
