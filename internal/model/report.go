package model

import "time"

// Report is the complete result of checking one topic/country pair.
// Both model classes are always evaluated against the same counts.
type Report struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	Country      string    `json:"country"`
	TopicQuery   string    `json:"topic_query"`   // Search text sent for topic + country
	CountryQuery string    `json:"country_query"` // Search text sent for country
	TopicCount   int64     `json:"topic_count"`
	CountryCount int64     `json:"country_count"`
	CheckedAt    time.Time `json:"checked_at"`

	Flagship PredictionResult `json:"flagship"` // Large/flagship model class
	Small    PredictionResult `json:"small"`    // Small/nano model class

	Model ModelInfo `json:"model"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional narrative, never affects numbers
}

// ModelInfo describes the regression the numbers came from
type ModelInfo struct {
	SampleSize int     `json:"sample_size"` // Verified citations in the calibration sample
	RSquared   float64 `json:"r_squared"`
	Source     string  `json:"source"` // "builtin" or the coefficients file path
}

// LLMSummary contains the optional LLM-generated narrative.
// It is rendered separately and never feeds back into any prediction.
type LLMSummary struct {
	Enabled       bool     `json:"enabled"`
	Provider      string   `json:"provider,omitempty"`
	Model         string   `json:"model,omitempty"`
	StrictNumbers bool     `json:"strict_numbers"` // Summary may only quote figures from the report
	SummaryMD     string   `json:"summary_md,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}
