package score

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ppiankov/realitycheck/internal/model"
)

// Scorer evaluates the regression model for one input at a time.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	model      *RegressionModel
	invGram    *mat.SymDense
	advisories map[model.RiskLevel]string
}

// Option configures a Scorer
type Option func(*Scorer)

// WithAdvisories overrides advisory text per risk level. Levels missing
// from the map keep their default sentence.
func WithAdvisories(overrides map[model.RiskLevel]string) Option {
	return func(s *Scorer) {
		for level, text := range overrides {
			if text != "" {
				s.advisories[level] = text
			}
		}
	}
}

// NewScorer creates a scorer over the given coefficient table.
// A nil model selects the built-in fit.
func NewScorer(m *RegressionModel, opts ...Option) *Scorer {
	if m == nil {
		m = DefaultModel()
	}

	s := &Scorer{
		model:      m,
		invGram:    symmetricInvGram(m.InvGram),
		advisories: defaultAdvisories(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the coefficient table in use.
func (s *Scorer) Model() *RegressionModel {
	return s.model
}

// Calculate runs the rate predictor, confidence estimator and category
// decomposer on the same feature row and classifies the rate.
func (s *Scorer) Calculate(in model.PredictionInput) model.PredictionResult {
	f := NewFeatures(in.TopicVolume, in.CountryVolume, in.IsSmallModel)

	rate := s.rate(f)
	level := Classify(rate)

	return model.PredictionResult{
		Rate:       rate,
		Margin:     s.margin(f),
		Categories: s.decompose(f),
		RiskLevel:  level,
		Advisory:   s.Advisory(level),
	}
}

// Predict returns the overall predicted error rate in [0,1].
func (s *Scorer) Predict(topicVolume, countryVolume int64, isSmallModel bool) float64 {
	return s.rate(NewFeatures(topicVolume, countryVolume, isSmallModel))
}

func (s *Scorer) rate(f Features) float64 {
	// Linear models are unbounded; the clamp must come last
	return clamp(s.model.Overall.Eval(f), 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
