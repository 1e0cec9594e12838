// internal/scoring/scorer.go
package scoring

import (
	"fmt"
	"math"

	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/common/errors"
)

const probabilityTolerance = 1e-6

// Scorer adapts a fitted classifier to the pipeline: it checks the input
// width before every call and reports failures as values.
type Scorer struct {
	Name          string
	Role          string
	Layout        string
	ExpectedWidth int

	model artifacts.Classifier
}

// NewScorer wraps a loaded classifier.
func NewScorer(s artifacts.LoadedScorer) *Scorer {
	return &Scorer{
		Name:          s.Name,
		Role:          s.Role,
		Layout:        s.Layout,
		ExpectedWidth: s.ExpectedWidth,
		model:         s.Model,
	}
}

// ScoreResult is the outcome of one scorer call. Err is non-nil on failure,
// in which case the probabilities are zero.
type ScoreResult struct {
	DefaultProbability  float64
	ApprovalProbability float64
	Width               int
	Err                 error
}

// OK reports whether the scorer produced a distribution.
func (r ScoreResult) OK() bool { return r.Err == nil }

// Predict scores vec. It never panics.
func (s *Scorer) Predict(vec []float64) (res ScoreResult) {
	res.Width = len(vec)
	if len(vec) != s.ExpectedWidth {
		res.Err = errors.NewFeatureShapeError(len(vec), s.ExpectedWidth)
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res = ScoreResult{Width: len(vec), Err: errors.NewScorerFailureError(s.Name, fmt.Errorf("panic: %v", r))}
		}
	}()

	dist, err := s.model.PredictProba(vec)
	if err != nil {
		res.Err = errors.NewScorerFailureError(s.Name, err)
		return res
	}
	if err := checkDistribution(dist); err != nil {
		res.Err = errors.NewScorerFailureError(s.Name, err)
		return res
	}
	res.DefaultProbability = dist[1]
	res.ApprovalProbability = 1 - dist[1]
	return res
}

// checkDistribution expects [p(no-default), p(default)].
func checkDistribution(dist []float64) error {
	if len(dist) != 2 {
		return fmt.Errorf("expected a 2-class distribution, got %d values", len(dist))
	}
	for _, p := range dist {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("probability %v outside [0, 1]", p)
		}
	}
	if math.Abs(dist[0]+dist[1]-1) > probabilityTolerance {
		return fmt.Errorf("distribution sums to %v", dist[0]+dist[1])
	}
	return nil
}
