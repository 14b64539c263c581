package score

import "math"

// LinearModel is one OLS fit over [1, log10(topic), isSmall, log10(country)]
type LinearModel struct {
	Intercept  float64 `yaml:"intercept" json:"intercept"`
	LogTopic   float64 `yaml:"log_topic" json:"log_topic"`
	IsSmall    float64 `yaml:"is_small" json:"is_small"`
	LogCountry float64 `yaml:"log_country" json:"log_country"`
}

// Eval returns the unclamped linear prediction for a feature row.
func (m LinearModel) Eval(f Features) float64 {
	return m.Intercept +
		m.LogTopic*f.LogTopic +
		m.IsSmall*f.IsSmall +
		m.LogCountry*f.LogCountry
}

func (m LinearModel) coefficients() [4]float64 {
	return [4]float64{m.Intercept, m.LogTopic, m.IsSmall, m.LogCountry}
}

// CategoryModels holds one independent fit per outcome category
type CategoryModels struct {
	Verified          LinearModel `yaml:"verified" json:"verified"`
	VerifiedWithError LinearModel `yaml:"verified_with_error" json:"verified_with_error"`
	NeedsReview       LinearModel `yaml:"needs_review" json:"needs_review"`
	Unverified        LinearModel `yaml:"unverified" json:"unverified"`
}

// RegressionModel is the complete coefficient table. It is never mutated
// after load; scorers share it by pointer.
type RegressionModel struct {
	Overall    LinearModel    `yaml:"overall" json:"overall"`
	InvGram    [4][4]float64  `yaml:"inv_gram" json:"inv_gram"` // (XᵀX)⁻¹ of the calibration design matrix
	MSE        float64        `yaml:"mse" json:"mse"`           // Residual mean squared error
	Categories CategoryModels `yaml:"categories" json:"categories"`

	SampleSize int     `yaml:"sample_size" json:"sample_size"`
	RSquared   float64 `yaml:"r_squared" json:"r_squared"`
}

// builtinModel is the fit on 1,435 verified LLM-generated references.
var builtinModel = RegressionModel{
	Overall: LinearModel{
		Intercept:  1.565,
		LogTopic:   -0.122,
		IsSmall:    0.468,
		LogCountry: -0.123,
	},
	MSE: 0.17500454853047462,
	InvGram: [4][4]float64{
		{0.1241653961269146, -0.0004086947610075407, -0.0013720023406530145, -0.01974929210738879},
		{-0.00040869476100748264, 0.0008501341725356133, 3.4169994771720727e-07, -0.0005459884720810814},
		{-0.0013720023406530151, 3.4169994771749537e-07, 0.0027874927965916914, -3.003079533087211e-06},
		{-0.019749292107388836, -0.000545988472081072, -3.003079533087108e-06, 0.003617671144858614},
	},
	Categories: CategoryModels{
		Verified:          LinearModel{Intercept: -0.8376, LogTopic: 0.1055, IsSmall: -0.3369, LogCountry: 0.1337},
		VerifiedWithError: LinearModel{Intercept: 0.2751, LogTopic: 0.0162, IsSmall: -0.1393, LogCountry: -0.0119},
		NeedsReview:       LinearModel{Intercept: 0.3796, LogTopic: -0.0106, IsSmall: 0.0237, LogCountry: -0.0242},
		Unverified:        LinearModel{Intercept: 1.1854, LogTopic: -0.1109, IsSmall: 0.4441, LogCountry: -0.0984},
	},
	SampleSize: 1435,
	RSquared:   0.302,
}

// DefaultModel returns a copy of the built-in coefficient table.
func DefaultModel() *RegressionModel {
	m := builtinModel
	return &m
}

// Features is the transformed feature row shared by every sub-model
type Features struct {
	LogTopic   float64
	IsSmall    float64
	LogCountry float64
}

// NewFeatures applies the log transforms. Volumes below 1 are clamped to 1
// so the logarithm is always finite.
func NewFeatures(topicVolume, countryVolume int64, isSmallModel bool) Features {
	f := Features{
		LogTopic:   math.Log10(float64(max(topicVolume, 1))),
		LogCountry: math.Log10(float64(max(countryVolume, 1))),
	}
	if isSmallModel {
		f.IsSmall = 1
	}
	return f
}

// Row returns the design row [1, lt, s, lc].
func (f Features) Row() []float64 {
	return []float64{1, f.LogTopic, f.IsSmall, f.LogCountry}
}
