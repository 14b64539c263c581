package score

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// symmetryTolerance bounds |g[i][j] - g[j][i]| for a loaded inverse Gram matrix.
const symmetryTolerance = 1e-12

// modelFile mirrors RegressionModel with pointer sections so a missing
// section is distinguishable from a zero one.
type modelFile struct {
	Overall    *LinearModel    `yaml:"overall"`
	InvGram    *[4][4]float64  `yaml:"inv_gram"`
	MSE        *float64        `yaml:"mse"`
	Categories *CategoryModels `yaml:"categories"`
	SampleSize int             `yaml:"sample_size"`
	RSquared   float64         `yaml:"r_squared"`
}

// LoadModel reads a coefficient table from a YAML file and validates it.
// Unknown keys and missing sections are errors.
func LoadModel(path string) (*RegressionModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read coefficients: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var raw modelFile
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse coefficients: %s is empty", path)
		}
		return nil, fmt.Errorf("parse coefficients: %w", err)
	}

	var missing []string
	if raw.Overall == nil {
		missing = append(missing, "overall")
	}
	if raw.InvGram == nil {
		missing = append(missing, "inv_gram")
	}
	if raw.MSE == nil {
		missing = append(missing, "mse")
	}
	if raw.Categories == nil {
		missing = append(missing, "categories")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("invalid coefficients in %s: missing %s", path, strings.Join(missing, ", "))
	}

	m := RegressionModel{
		Overall:    *raw.Overall,
		InvGram:    *raw.InvGram,
		MSE:        *raw.MSE,
		Categories: *raw.Categories,
		SampleSize: raw.SampleSize,
		RSquared:   raw.RSquared,
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid coefficients in %s: %w", path, err)
	}

	return &m, nil
}

// Validate checks that every coefficient is finite, the inverse Gram
// matrix is symmetric and has a non-negative diagonal, and MSE >= 0.
func (m *RegressionModel) Validate() error {
	models := map[string]LinearModel{
		"overall":             m.Overall,
		"verified":            m.Categories.Verified,
		"verified_with_error": m.Categories.VerifiedWithError,
		"needs_review":        m.Categories.NeedsReview,
		"unverified":          m.Categories.Unverified,
	}
	for name, lm := range models {
		for _, c := range lm.coefficients() {
			if !finite(c) {
				return fmt.Errorf("%s: non-finite coefficient %v", name, c)
			}
		}
	}

	if !finite(m.MSE) || m.MSE < 0 {
		return fmt.Errorf("mse must be finite and >= 0, got %v", m.MSE)
	}

	for i := 0; i < 4; i++ {
		if !finite(m.InvGram[i][i]) || m.InvGram[i][i] < 0 {
			return fmt.Errorf("inv_gram[%d][%d] must be finite and >= 0, got %v", i, i, m.InvGram[i][i])
		}
		for j := i + 1; j < 4; j++ {
			a, b := m.InvGram[i][j], m.InvGram[j][i]
			if !finite(a) || !finite(b) {
				return fmt.Errorf("inv_gram[%d][%d]: non-finite entry", i, j)
			}
			if math.Abs(a-b) > symmetryTolerance {
				return fmt.Errorf("inv_gram not symmetric at [%d][%d]: %v vs %v", i, j, a, b)
			}
		}
	}

	if m.RSquared < 0 || m.RSquared > 1 {
		return fmt.Errorf("r_squared must be in [0,1], got %v", m.RSquared)
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
