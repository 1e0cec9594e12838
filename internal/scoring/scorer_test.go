package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/common/errors"
	"credx-fairscore/pkg/registry"
)

func newFakeScorer(c *fakeClassifier) *Scorer {
	return NewScorer(artifacts.LoadedScorer{
		ScorerEntry: registry.ScorerEntry{
			Name:          "fake",
			Role:          registry.RoleComparison,
			Layout:        registry.LayoutFair,
			ExpectedWidth: c.width,
		},
		Model: c,
	})
}

func TestScorer_Predict(t *testing.T) {
	s := newFakeScorer(&fakeClassifier{width: 3, dist: []float64{0.7, 0.3}})

	res := s.Predict([]float64{1, 2, 3})
	require.True(t, res.OK())
	assert.Equal(t, 0.3, res.DefaultProbability)
	assert.InDelta(t, 0.7, res.ApprovalProbability, 1e-12)
	assert.InDelta(t, 1.0, res.DefaultProbability+res.ApprovalProbability, 1e-12)
	assert.Equal(t, 3, res.Width)
}

func TestScorer_WidthMismatch(t *testing.T) {
	s := newFakeScorer(&fakeClassifier{width: 35, dist: []float64{0.5, 0.5}})

	res := s.Predict(make([]float64, 30))
	require.False(t, res.OK())
	assert.Equal(t, 30, res.Width)

	stdErr, ok := errors.AsStandardError(res.Err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeFeatureShapeMismatch, stdErr.Code)
	assert.Equal(t, 30, stdErr.Metadata["actual"])
	assert.Equal(t, 35, stdErr.Metadata["expected"])
}

func TestScorer_Failures(t *testing.T) {
	tests := []struct {
		name       string
		classifier *fakeClassifier
	}{
		{"prediction error", &fakeClassifier{width: 2, err: errModel}},
		{"panic", &fakeClassifier{width: 2, panic: true}},
		{"three classes", &fakeClassifier{width: 2, dist: []float64{0.2, 0.3, 0.5}}},
		{"out of range", &fakeClassifier{width: 2, dist: []float64{-0.1, 1.1}}},
		{"does not sum to one", &fakeClassifier{width: 2, dist: []float64{0.5, 0.6}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newFakeScorer(tt.classifier).Predict([]float64{0, 0})
			require.False(t, res.OK())
			assert.True(t, errors.HasCode(res.Err, errors.ErrCodeScorerFailure))
			assert.Zero(t, res.DefaultProbability)
		})
	}
}
