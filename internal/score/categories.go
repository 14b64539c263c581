package score

import "github.com/ppiankov/realitycheck/internal/model"

// Decompose returns the four category shares in percentage points.
//
// Each sub-model's raw score is floored at 0 first and only then
// normalized, so a sub-model that extrapolates below zero cannot produce a
// negative share. There is no ceiling before summation: one dominant
// category may take nearly all of the 100.
func (s *Scorer) Decompose(topicVolume, countryVolume int64, isSmallModel bool) model.Categories {
	return s.decompose(NewFeatures(topicVolume, countryVolume, isSmallModel))
}

func (s *Scorer) decompose(f Features) model.Categories {
	c := s.model.Categories
	verified := max(c.Verified.Eval(f), 0)
	withError := max(c.VerifiedWithError.Eval(f), 0)
	review := max(c.NeedsReview.Eval(f), 0)
	unverified := max(c.Unverified.Eval(f), 0)

	return normalize(verified, withError, review, unverified)
}

// normalize scales non-negative weights to percentage points.
// All-zero weights yield all-zero shares.
func normalize(verified, withError, review, unverified float64) model.Categories {
	total := verified + withError + review + unverified
	if total == 0 {
		return model.Categories{}
	}

	return model.Categories{
		Verified:          100 * verified / total,
		VerifiedWithError: 100 * withError / total,
		NeedsReview:       100 * review / total,
		Unverified:        100 * unverified / total,
	}
}
