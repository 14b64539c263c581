package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/ppiankov/realitycheck/internal/model"
)

// ceilingPercent is the displayed rate above which the model saturates
// and the margin stops being meaningful.
const ceilingPercent = 90

// modelClasses pairs each result with its display label and examples
var modelClasses = []struct {
	label    string
	examples string
	pick     func(*model.Report) model.PredictionResult
}{
	{"Flagship Model", "e.g. GPT-5, Claude Opus, Gemini Pro", func(r *model.Report) model.PredictionResult { return r.Flagship }},
	{"Small Model", "e.g. GPT-5-nano, Haiku, Llama 3 8B", func(r *model.Report) model.PredictionResult { return r.Small }},
}

// Renderer writes reports as JSON, Markdown, HTML and terminal text
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the Markdown report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// RenderHTML writes the Markdown report converted to a standalone HTML page
func (r *Renderer) RenderHTML(report *model.Report, path string) error {
	return writeFile(path, r.HTML(report))
}

// HTML converts the Markdown report to a complete HTML document
func (r *Renderer) HTML(report *model.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("Citation risk: %s in %s", report.Topic, report.Country),
	})
	return markdown.ToHTML([]byte(r.Markdown(report)), p, renderer)
}

// Markdown builds the Markdown report
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Citation Risk: %s in %s\n\n", report.Topic, report.Country)
	fmt.Fprintf(&b, "- **Report ID**: `%s`\n", report.ID)
	fmt.Fprintf(&b, "- **Checked**: %s\n", report.CheckedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- **OpenAlex**: %s topic+country works · %s country works\n",
		FormatCount(report.TopicCount), FormatCount(report.CountryCount))
	fmt.Fprintf(&b, "- **Queries**: `%s` · `%s`\n\n", report.TopicQuery, report.CountryQuery)

	b.WriteString("| Model | Predicted error rate | Margin | Risk |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, mc := range modelClasses {
		res := mc.pick(report)
		rate, margin := DisplayRate(res)
		fmt.Fprintf(&b, "| %s (%s) | %s | %s | %s |\n", mc.label, mc.examples, rate, margin, res.RiskLevel)
	}
	b.WriteString("\n")

	for _, mc := range modelClasses {
		res := mc.pick(report)
		fmt.Fprintf(&b, "## %s\n\n", mc.label)
		fmt.Fprintf(&b, "**%s.** %s\n\n", res.RiskLevel, res.Advisory)
		b.WriteString("| Outcome | Share |\n|---|---|\n")
		for _, c := range categoryRows(res.Categories) {
			fmt.Fprintf(&b, "| %s | %d%% |\n", c.label, roundPercent(c.value))
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString(footer(report.Model))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderSummary prints the terminal summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s · %s\n", report.Topic, report.Country)
	fmt.Fprintf(&b, "OpenAlex: %s topic+country works · %s country works\n\n",
		FormatCount(report.TopicCount), FormatCount(report.CountryCount))

	for _, mc := range modelClasses {
		writeResultLines(&b, mc.label, mc.pick(report))
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "%s\n", footer(report.Model))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderPrediction prints one engine result in the terminal summary format
func (r *Renderer) RenderPrediction(w io.Writer, res model.PredictionResult, small bool, info model.ModelInfo) error {
	var b strings.Builder

	mc := modelClasses[0]
	if small {
		mc = modelClasses[1]
	}
	writeResultLines(&b, mc.label, res)

	if r.includeFooter {
		fmt.Fprintf(&b, "%s\n", footer(info))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeResultLines(b *strings.Builder, label string, res model.PredictionResult) {
	rate, margin := DisplayRate(res)
	fmt.Fprintf(b, "%-15s %6s  %-15s %s\n", label, rate, margin, res.RiskLevel)
	fmt.Fprintf(b, "  %s\n", res.Advisory)

	var parts []string
	for _, c := range categoryRows(res.Categories) {
		parts = append(parts, fmt.Sprintf("%s %d%%", c.label, roundPercent(c.value)))
	}
	fmt.Fprintf(b, "  %s\n\n", strings.Join(parts, " · "))
}

// DisplayRate formats a result's rate and margin for people. Above the
// ceiling the rate reads ">90%" and the margin "ceiling effect".
func DisplayRate(res model.PredictionResult) (rate, margin string) {
	pct := roundPercent(res.Rate * 100)
	if pct > ceilingPercent {
		return fmt.Sprintf(">%d%%", ceilingPercent), "ceiling effect"
	}
	return fmt.Sprintf("%d%%", pct), fmt.Sprintf("±%d pp", roundPercent(res.Margin*100))
}

// FormatCount abbreviates large counts: 1234567 -> "1.2M", 4500 -> "4.5K"
func FormatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

type categoryRow struct {
	label string
	value float64
}

func categoryRows(c model.Categories) []categoryRow {
	return []categoryRow{
		{"Verified", c.Verified},
		{"Verified w/ error", c.VerifiedWithError},
		{"Needs review", c.NeedsReview},
		{"Unverified", c.Unverified},
	}
}

// roundPercent rounds half away from zero
func roundPercent(v float64) int {
	return int(math.Round(v))
}

func footer(info model.ModelInfo) string {
	return fmt.Sprintf("Based on %s verified citations (R² = %.3f). Predictions describe expected error rates for a topic, not the accuracy of any specific reference.",
		groupThousands(info.SampleSize), info.RSquared)
}

func groupThousands(n int) string {
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
