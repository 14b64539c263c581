package llm

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize writes a short narrative for a report
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	Report model.Report

	// AllowedFigures are the only percentages the narrative may quote
	AllowedFigures []float64

	// Prompt overrides the default prompt when set
	Prompt string

	// Model is the provider-specific model name
	Model string

	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	Summary string

	// QuotedFigures are the percentages found in Summary
	QuotedFigures []float64

	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string
	Model    string
	APIKey   string

	// BaseURL for OpenAI-compatible endpoints (Ollama, proxies)
	BaseURL string

	Timeout int // seconds

	// StrictNumbers rejects narratives quoting figures absent from the report
	StrictNumbers bool

	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:       30,
		StrictNumbers: true,
		MaxTokens:     600,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = c.Provider
	cfg.Model = c.Model
	cfg.APIKey = c.APIKey
	cfg.BaseURL = c.BaseURL
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	if c.MaxTokens > 0 {
		cfg.MaxTokens = c.MaxTokens
	}
	return cfg
}

// ReportFigures lists every percentage a narrative may quote for the report:
// both rates, both margins and all category shares.
func ReportFigures(r model.Report) []float64 {
	var figures []float64
	for _, p := range []model.PredictionResult{r.Flagship, r.Small} {
		figures = append(figures,
			p.Rate*100,
			p.Margin*100,
			p.Categories.Verified,
			p.Categories.VerifiedWithError,
			p.Categories.NeedsReview,
			p.Categories.Unverified,
		)
	}
	return figures
}

// BuildPrompt constructs the default prompt for a report
func BuildPrompt(r model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are summarizing a citation reliability estimate. The estimate predicts how often an AI model's references on a topic are likely to be wrong. It is a statistical prediction from literature volume, not a verdict on any specific reference.

CRITICAL RULES:
1. Quote ONLY the percentages listed below. Do not compute or invent new figures.
2. Do not name specific papers, authors or URLs.
3. State uncertainty plainly when the margin is wide.

Query:
- Topic: %s
- Country: %s
- Works matching topic in country: %d
- Works mentioning country: %d

`, r.Topic, r.Country, r.TopicCount, r.CountryCount)

	writeResult(&b, "Flagship models", r.Flagship)
	writeResult(&b, "Small models", r.Small)

	b.WriteString("\nProvide a 3-4 sentence summary for a researcher deciding how much to trust AI-generated references on this topic.")

	return b.String()
}

func writeResult(b *strings.Builder, label string, p model.PredictionResult) {
	fmt.Fprintf(b, "%s:\n", label)
	fmt.Fprintf(b, "- Predicted error rate: %.1f%% (±%.1f%%)\n", p.Rate*100, p.Margin*100)
	fmt.Fprintf(b, "- Risk level: %s (%s)\n", p.RiskLevel, p.Advisory)
	fmt.Fprintf(b, "- Verified: %.1f%%, verified with errors: %.1f%%, needs review: %.1f%%, unverified: %.1f%%\n",
		p.Categories.Verified, p.Categories.VerifiedWithError, p.Categories.NeedsReview, p.Categories.Unverified)
}

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// extractPercents returns every "N%" figure in text
func extractPercents(text string) []float64 {
	var figures []float64
	for _, m := range percentPattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		figures = append(figures, v)
	}
	return figures
}

// figureTolerance accepts a quoted figure rounded to the nearest whole percent
const figureTolerance = 0.51

// unsupportedFigure returns the first quoted figure not close to any allowed one
func unsupportedFigure(quoted, allowed []float64) (float64, bool) {
	for _, q := range quoted {
		found := false
		for _, a := range allowed {
			if math.Abs(q-a) <= figureTolerance {
				found = true
				break
			}
		}
		if !found {
			return q, true
		}
	}
	return 0, false
}
