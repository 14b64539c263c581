package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/realitycheck/internal/llm"
	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/openalex"
	"github.com/ppiankov/realitycheck/internal/score"
)

// ErrDataSourceUnavailable is returned when either literature count cannot be fetched
var ErrDataSourceUnavailable = errors.New("data source unavailable")

// ErrInvalidInput is returned for an empty topic or country
var ErrInvalidInput = errors.New("topic and country are required")

// Recorder persists finished reports
type Recorder interface {
	Record(ctx context.Context, report *model.Report) error
}

// Pipeline turns a topic/country pair into a report: two literature
// counts, both model classes, then optional narrative and history.
type Pipeline struct {
	counter     openalex.Counter
	scorer      *score.Scorer
	renderer    *Renderer
	summarizer  *llm.Summarizer // nil if disabled
	recorder    Recorder        // nil if history is off
	config      *model.Config
	modelSource string
	now         func() time.Time
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithSummarizer attaches an LLM summarizer
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithRecorder records every successful check
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithModelSource labels reports with where the coefficients came from
func WithModelSource(source string) Option {
	return func(p *Pipeline) { p.modelSource = source }
}

// WithClock overrides the report timestamp source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a pipeline. A nil scorer uses the built-in model.
func NewPipeline(cfg *model.Config, counter openalex.Counter, scorer *score.Scorer, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if scorer == nil {
		scorer = score.NewScorer(nil)
	}

	p := &Pipeline{
		counter:     counter,
		scorer:      scorer,
		renderer:    NewRenderer(cfg.Output.IncludeFooter),
		config:      cfg,
		modelSource: "builtin",
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scorer returns the scorer used for predictions
func (p *Pipeline) Scorer() *score.Scorer {
	return p.scorer
}

// Check looks up both literature counts concurrently and scores them for
// the flagship and small model classes. Lookup failures surface as
// ErrDataSourceUnavailable and no prediction is made.
func (p *Pipeline) Check(ctx context.Context, topic, country string) (*model.Report, error) {
	topic = strings.TrimSpace(topic)
	country = strings.TrimSpace(country)
	if topic == "" || country == "" {
		return nil, ErrInvalidInput
	}

	topicQuery := openalex.TopicQuery(topic, country)
	countryQuery := openalex.CountryQuery(country)

	var topicCount, countryCount int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := p.counter.CountWorks(gctx, topicQuery)
		if err != nil {
			return fmt.Errorf("count topic works: %w", err)
		}
		topicCount = n
		return nil
	})
	g.Go(func() error {
		n, err := p.counter.CountWorks(gctx, countryQuery)
		if err != nil {
			return fmt.Errorf("count country works: %w", err)
		}
		countryCount = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataSourceUnavailable, err)
	}

	m := p.scorer.Model()
	report := &model.Report{
		ID:           uuid.NewString(),
		Topic:        topic,
		Country:      country,
		TopicQuery:   topicQuery,
		CountryQuery: countryQuery,
		TopicCount:   topicCount,
		CountryCount: countryCount,
		CheckedAt:    p.now(),
		Flagship: p.scorer.Calculate(model.PredictionInput{
			TopicVolume:   topicCount,
			CountryVolume: countryCount,
		}),
		Small: p.scorer.Calculate(model.PredictionInput{
			TopicVolume:   topicCount,
			CountryVolume: countryCount,
			IsSmallModel:  true,
		}),
		Model: model.ModelInfo{
			SampleSize: m.SampleSize,
			RSquared:   m.RSquared,
			Source:     p.modelSource,
		},
	}

	// Narrative runs after scoring and never affects the numbers
	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: LLM summary generation failed: %v\n", err)
		} else if summary != nil {
			report.LLM = summary
		}
	}

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, report); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record history: %v\n", err)
		}
	}

	return report, nil
}

// RenderReport writes the requested files and prints the terminal summary.
// Empty paths are skipped.
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath, htmlPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	if htmlPath != "" {
		if err := p.renderer.RenderHTML(report, htmlPath); err != nil {
			return fmt.Errorf("render HTML: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote HTML: %s\n", htmlPath)
		}
	}

	// The narrative goes to its own file next to the Markdown report
	if report.LLM != nil && report.LLM.Enabled && mdPath != "" {
		llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		if err := writeFile(llmPath, []byte(llm.RenderSeparateMarkdown(report.LLM))); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to write LLM summary: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote LLM Summary: %s\n", llmPath)
		}
	}

	if err := p.renderer.RenderSummary(os.Stdout, report); err != nil {
		return err
	}

	// Without a Markdown path the narrative is printed after the numbers
	if report.LLM != nil && report.LLM.SummaryMD != "" && mdPath == "" {
		fmt.Fprintf(os.Stdout, "LLM Summary (generated, %s)\n\n%s\n", report.LLM.Provider, report.LLM.SummaryMD)
	}
	return nil
}
