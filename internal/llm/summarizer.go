package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
)

// Summarizer attaches an optional narrative to a finished report.
// It runs after scoring and never changes any number.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer builds a summarizer; a disabled config yields one with no provider
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// NewSummarizerWithProvider wraps an existing provider
func NewSummarizerWithProvider(p Provider, config Config) *Summarizer {
	return &Summarizer{provider: p, config: config}
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the provider name or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary produces the narrative. Provider failures degrade to a
// summary carrying warnings; only a disabled summarizer returns nil.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Provider:      s.provider.Name(),
		Model:         s.config.Model,
		StrictNumbers: s.config.StrictNumbers,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider %s is not available", s.provider.Name()))
		return summary, nil
	}
	summary.Enabled = true

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:         report,
		AllowedFigures: ReportFigures(report),
		Model:          s.config.Model,
		MaxTokens:      s.config.MaxTokens,
	})
	if err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM summary generation failed: %v", err))
		return summary, nil
	}

	summary.SummaryMD = resp.Summary
	if resp.Model != "" {
		summary.Model = resp.Model
	}
	summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if s.config.StrictNumbers {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("Verified %d quoted figures against the report", len(resp.QuotedFigures)))
	}

	return summary, nil
}

// RenderSeparateMarkdown renders the narrative as its own document so it is
// never mistaken for the computed estimate.
func RenderSeparateMarkdown(s *model.LLMSummary) string {
	if s == nil || !s.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** The error rates, margins and risk levels were computed independently of this text.\n\n")
	fmt.Fprintf(&b, "- **Provider**: %s\n", s.Provider)
	if s.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", s.Model)
	}
	fmt.Fprintf(&b, "- **Strict Numbers Mode**: %v\n\n", s.StrictNumbers)

	if s.SummaryMD == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(s.SummaryMD)
		b.WriteString("\n")
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range s.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
