package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/pipeline"
)

var (
	outJSON     string
	outMD       string
	outHTML     string
	timeout     time.Duration
	mailto      string
	noCache     bool
	noFooter    bool
	noHistory   bool
	insecureTLS bool
	httpProxy   string
	httpsProxy  string
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <topic> <country>",
	Short: "Estimate citation error risk for a topic in a country",
	Long: `Check looks up two literature counts in OpenAlex:
- Works matching the topic together with the country
- Works matching the country alone

Both counts feed the regression model, which predicts the citation error
rate, its 95% confidence margin, the outcome breakdown and a risk level for
flagship and small model classes.

Example:
  realitycheck check "malaria prevention" Nigeria
  realitycheck check "machine learning" "United States" --json report.json --md report.md
  realitycheck check "maternal health" Rwanda --llm --llm-provider ollama --llm-model llama3.1`,
	Args: cobra.ExactArgs(2),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Output flags
	checkCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().StringVar(&outHTML, "html", "", "output HTML path (optional)")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "omit the model footer from reports")

	addLookupFlags(checkCmd)
	checkCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall check timeout")
	checkCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record this check in history")

	// LLM flags
	checkCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM narrative summary")
	checkCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	checkCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// addLookupFlags registers the OpenAlex lookup flags shared by check, batch and serve
func addLookupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&mailto, "mailto", "", "contact email for the OpenAlex polite pool")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable count cache (force fresh lookups)")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	topic, country := args[0], args[1]

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLookupFlags(cmd, cfg)
	if cmd.Flags().Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if noHistory {
		cfg.History.Enabled = false
	}
	if llmEnabled {
		if err := applyLLMFlags(cmd, cfg); err != nil {
			return err
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s in %s\n", topic, country)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Looking up literature counts...\n")
	}

	report, err := rt.pipeline.Check(ctx, topic, country)
	if errors.Is(err, pipeline.ErrDataSourceUnavailable) {
		if verbose {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		}
		return pipeline.ErrDataSourceUnavailable
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Topic works: %d\n", report.TopicCount)
		fmt.Fprintf(os.Stderr, "✓ Country works: %d\n", report.CountryCount)
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM summary using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	if err := rt.pipeline.RenderReport(report, outJSON, outMD, outHTML, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// applyLookupFlags overrides configuration with explicitly set lookup flags
func applyLookupFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("mailto") {
		cfg.OpenAlex.Mailto = mailto
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
}

// applyLLMFlags enables the narrative summary for the selected provider
func applyLLMFlags(cmd *cobra.Command, cfg *model.Config) error {
	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	if llmProvider == "ollama" && !cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model = "" // provider default
	}

	switch llmProvider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	default:
		return fmt.Errorf("unknown LLM provider: %s", llmProvider)
	}
	return nil
}
