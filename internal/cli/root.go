package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/realitycheck/internal/model"
)

// Version is the CLI version, overridable at link time
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "realitycheck",
	Short: "RealityCheck - Citation hallucination risk estimates (non-normative)",
	Long: `RealityCheck estimates how likely an LLM is to get its references wrong
when writing about a topic in a given country.

It looks up how much literature exists for the topic in that country and
for the country overall, then applies a regression fitted on verified
LLM-generated citations to predict the error rate for flagship and small
model classes.

RealityCheck predicts risk. It does not check individual references.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of RealityCheck.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "realitycheck v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.realitycheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".realitycheck"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// REALITYCHECK_OPENALEX_MAILTO overrides openalex.mailto, and so on
	viper.SetEnvPrefix("REALITYCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig overlays the config file and environment on the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	bindEnvKeys()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.Provider == "ollama" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	return cfg, nil
}

// bindEnvKeys registers every config key with viper so AutomaticEnv
// values reach Unmarshal even when no config file sets them
func bindEnvKeys() {
	for _, key := range []string{
		"http.timeout", "http.user_agent", "http.max_body_bytes", "http.max_retries",
		"http.insecure_tls", "http.http_proxy", "http.https_proxy", "http.no_proxy",
		"openalex.base_url", "openalex.mailto", "openalex.respect_robots",
		"cache.enabled", "cache.dir", "cache.memory_ttl", "cache.disk_ttl",
		"concurrency.workers",
		"rate_limiting.requests_per_second", "rate_limiting.burst_size",
		"model.coefficients_file",
		"history.enabled", "history.path",
		"llm.provider", "llm.model", "llm.api_key", "llm.base_url", "llm.timeout", "llm.max_tokens",
		"server.addr", "server.read_timeout", "server.write_timeout",
		"output.include_footer",
	} {
		_ = viper.BindEnv(key)
	}
}
