package model

// PredictionInput is the triple the engine consumes. Volumes are literature
// counts from the scholarly index; values below 1 are treated as 1.
type PredictionInput struct {
	TopicVolume   int64 `json:"topic_volume"`   // Works matching topic + country
	CountryVolume int64 `json:"country_volume"` // Works matching the country alone
	IsSmallModel  bool  `json:"is_small_model"` // Small/nano model class
}

// Categories is the four-way outcome decomposition in percentage points.
// The four shares sum to 100, or are all zero when every sub-model clamps to zero.
type Categories struct {
	Verified          float64 `json:"verified"`            // Real reference, correct metadata
	VerifiedWithError float64 `json:"verified_with_error"` // Real reference, metadata errors
	NeedsReview       float64 `json:"needs_review"`        // Ambiguous match
	Unverified        float64 `json:"unverified"`          // No matching publication, likely fabricated
}

// Sum returns the total of all four shares.
func (c Categories) Sum() float64 {
	return c.Verified + c.VerifiedWithError + c.NeedsReview + c.Unverified
}

// RiskLevel is the ordinal label for a predicted error rate
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskVeryHigh RiskLevel = "Very High"
	RiskSevere   RiskLevel = "Severe"
)

// RiskLevels lists every level in ascending order.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskModerate, RiskHigh, RiskVeryHigh, RiskSevere}
}

// PredictionResult is the engine output for one model class
type PredictionResult struct {
	Rate       float64    `json:"rate"`       // Predicted error probability, [0,1]
	Margin     float64    `json:"margin"`     // Half-width of the 95% CI on the mean rate
	Categories Categories `json:"categories"` // Outcome shares in percentage points
	RiskLevel  RiskLevel  `json:"risk_level"`
	Advisory   string     `json:"advisory"`
}
