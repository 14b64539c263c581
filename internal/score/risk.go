package score

import (
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
)

// riskBands are lower bounds, highest first.
var riskBands = []struct {
	floor float64
	level model.RiskLevel
}{
	{0.70, model.RiskSevere},
	{0.50, model.RiskVeryHigh},
	{0.30, model.RiskHigh},
	{0.15, model.RiskModerate},
}

// Classify maps a rate to its risk level. Each band includes its lower bound.
func Classify(rate float64) model.RiskLevel {
	for _, band := range riskBands {
		if rate >= band.floor {
			return band.level
		}
	}
	return model.RiskLow
}

func defaultAdvisories() map[model.RiskLevel]string {
	return map[model.RiskLevel]string{
		model.RiskLow:      "Likely reliable; verify selectively",
		model.RiskModerate: "Some errors expected; verify key references",
		model.RiskHigh:     "Significant error risk; verify all references",
		model.RiskVeryHigh: "Majority of references may contain errors",
		model.RiskSevere:   "Most references likely unreliable; do not use without verification",
	}
}

// Advisory returns the advisory sentence for a level.
func (s *Scorer) Advisory(level model.RiskLevel) string {
	return s.advisories[level]
}

// ParseRiskLevel resolves a level name case-insensitively, accepting
// config-style keys such as "very_high".
func ParseRiskLevel(name string) (model.RiskLevel, bool) {
	switch normalizeLevelName(name) {
	case "low":
		return model.RiskLow, true
	case "moderate":
		return model.RiskModerate, true
	case "high":
		return model.RiskHigh, true
	case "veryhigh":
		return model.RiskVeryHigh, true
	case "severe":
		return model.RiskSevere, true
	}
	return "", false
}

var levelNameCleaner = strings.NewReplacer(" ", "", "_", "", "-", "")

func normalizeLevelName(name string) string {
	return levelNameCleaner.Replace(strings.ToLower(strings.TrimSpace(name)))
}
