package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/realitycheck/internal/cache"
	"github.com/ppiankov/realitycheck/internal/history"
	"github.com/ppiankov/realitycheck/internal/llm"
	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/openalex"
	"github.com/ppiankov/realitycheck/internal/pipeline"
	"github.com/ppiankov/realitycheck/internal/score"
	"github.com/ppiankov/realitycheck/internal/worker"
)

// buildScorer loads the configured coefficient table and advisory overrides.
// The second return value labels where the coefficients came from.
func buildScorer(cfg *model.Config) (*score.Scorer, string, error) {
	var m *score.RegressionModel
	source := "builtin"

	if path := cfg.Model.CoefficientsFile; path != "" {
		loaded, err := score.LoadModel(path)
		if err != nil {
			return nil, "", err
		}
		m = loaded
		source = path
	}

	overrides := make(map[model.RiskLevel]string, len(cfg.Advisories))
	for key, text := range cfg.Advisories {
		level, ok := score.ParseRiskLevel(key)
		if !ok {
			return nil, "", fmt.Errorf("advisories: unknown risk level %q", key)
		}
		overrides[level] = text
	}

	return score.NewScorer(m, score.WithAdvisories(overrides)), source, nil
}

// buildCounter wires the OpenAlex client behind the rate limiter and,
// when enabled, the layered count cache
func buildCounter(cfg *model.Config) openalex.Counter {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	client := openalex.NewClient(cfg.HTTP, cfg.OpenAlex, limiter)

	if !cfg.Cache.Enabled {
		return client
	}

	layered := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	return openalex.NewCachedCounter(client, layered, 0)
}

// checkRuntime owns the resources a check needs
type checkRuntime struct {
	pipeline *pipeline.Pipeline
	history  *history.Store // nil when history is off
}

// Close releases the history database
func (r *checkRuntime) Close() error {
	if r.history == nil {
		return nil
	}
	return r.history.Close()
}

// buildRuntime assembles the pipeline from configuration. A history
// database that cannot be opened only disables recording.
func buildRuntime(cfg *model.Config) (*checkRuntime, error) {
	scorer, source, err := buildScorer(cfg)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithModelSource(source)}

	if cfg.LLM.Provider != "" {
		summarizer, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return nil, fmt.Errorf("llm: %w", err)
		}
		opts = append(opts, pipeline.WithSummarizer(summarizer))
	}

	rt := &checkRuntime{}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠ History disabled: %v\n", err)
		} else {
			rt.history = store
			opts = append(opts, pipeline.WithRecorder(store))
		}
	}

	rt.pipeline = pipeline.NewPipeline(cfg, buildCounter(cfg), scorer, opts...)
	return rt, nil
}
