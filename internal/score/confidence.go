package score

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// zCritical is the two-sided 95% normal quantile. The calibration sample is
// large enough that the t correction is negligible.
const zCritical = 1.96

// Margin returns the half-width of the 95% confidence interval on the mean
// predicted rate. It must be paired with a Predict call on the same inputs.
func (s *Scorer) Margin(topicVolume, countryVolume int64, isSmallModel bool) float64 {
	return s.margin(NewFeatures(topicVolume, countryVolume, isSmallModel))
}

func (s *Scorer) margin(f Features) float64 {
	x := mat.NewVecDense(4, f.Row())

	// q = xᵀ (XᵀX)⁻¹ x
	q := mat.Inner(x, s.invGram, x)
	if q < 0 {
		// rounding only; (XᵀX)⁻¹ is positive definite
		q = 0
	}

	se := math.Sqrt(s.model.MSE * q)
	return zCritical * se
}

// symmetricInvGram averages the table with its transpose. The stored
// inverse carries last-digit asymmetry from the offline inversion; the
// quadratic form is identical either way.
func symmetricInvGram(g [4][4]float64) *mat.SymDense {
	data := make([]float64, 16)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			data[i*4+j] = (g[i][j] + g[j][i]) / 2
		}
	}
	return mat.NewSymDense(4, data)
}
