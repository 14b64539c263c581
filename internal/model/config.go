package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete runtime configuration.
// Field tags serve both viper (mapstructure) and `config show/init` (yaml).
type Config struct {
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	OpenAlex     OpenAlexConfig    `yaml:"openalex" mapstructure:"openalex"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Model        ModelConfig       `yaml:"model" mapstructure:"model"`
	Advisories   map[string]string `yaml:"advisories,omitempty" mapstructure:"advisories"`
	History      HistoryConfig     `yaml:"history" mapstructure:"history"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
}

// HTTPConfig configures outbound requests to the scholarly index
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// OpenAlexConfig configures the works-count lookup
type OpenAlexConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	Mailto        string `yaml:"mailto,omitempty" mapstructure:"mailto"` // Joins the OpenAlex polite pool
	RespectRobots bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig configures the count cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig configures batch workers
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig configures per-host request throttling
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ModelConfig selects the coefficient table
type ModelConfig struct {
	CoefficientsFile string `yaml:"coefficients_file,omitempty" mapstructure:"coefficients_file"` // Empty = built-in fit
}

// HistoryConfig configures the local check history
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LLMConfig configures the optional narrative summary
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai", "ollama", "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig configures `realitycheck serve`
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// OutputConfig configures rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".realitycheck")

	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "RealityCheck/0.1 (+https://github.com/ppiankov/realitycheck)",
			MaxBodyBytes: 1 << 20,
			MaxRetries:   3,
		},
		OpenAlex: OpenAlexConfig{
			BaseURL:       "https://api.openalex.org",
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(base, "cache"),
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			// OpenAlex allows 10 req/s; stay under it
			RequestsPerSecond: 8,
			BurstSize:         4,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(base, "history.db"),
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 600,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
