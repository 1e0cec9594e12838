package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/models"
)

func prediction(model string, approved bool) models.ModelPrediction {
	p := 0.8
	if approved {
		p = 0.2
	}
	pred := Decide(p, DefaultThreshold)
	pred.Model = model
	return pred
}

func failedPrediction(model string) models.ModelPrediction {
	msg := "feature shape mismatch"
	return models.ModelPrediction{Model: model, Error: &msg}
}

func TestConsensus(t *testing.T) {
	tests := []struct {
		name     string
		preds    []models.ModelPrediction
		expected models.ConsensusReport
	}{
		{
			name:     "both approve",
			preds:    []models.ModelPrediction{prediction("a", true), prediction("b", true)},
			expected: models.ConsensusReport{ApprovedCount: 2, TotalCount: 2, Unanimous: true},
		},
		{
			name:     "both reject",
			preds:    []models.ModelPrediction{prediction("a", false), prediction("b", false)},
			expected: models.ConsensusReport{ApprovedCount: 0, TotalCount: 2, Unanimous: true},
		},
		{
			name:     "split",
			preds:    []models.ModelPrediction{prediction("a", true), prediction("b", false)},
			expected: models.ConsensusReport{ApprovedCount: 1, TotalCount: 2, Unanimous: false},
		},
		{
			name:     "failed predictions are excluded",
			preds:    []models.ModelPrediction{prediction("a", true), failedPrediction("b")},
			expected: models.ConsensusReport{ApprovedCount: 1, TotalCount: 1, Unanimous: true},
		},
		{
			name:     "nothing succeeded",
			preds:    []models.ModelPrediction{failedPrediction("a"), failedPrediction("b")},
			expected: models.ConsensusReport{},
		},
		{
			name:     "empty",
			expected: models.ConsensusReport{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Consensus(tt.preds))
		})
	}
}

func TestAuthoritative(t *testing.T) {
	preds := []models.ModelPrediction{prediction("primary", false), prediction("fair", true)}

	auth, err := Authoritative(preds, "primary")
	require.NoError(t, err)
	assert.Equal(t, "primary", auth.Model)
	assert.False(t, auth.Approved, "comparison scorer never overrides the primary")
}

func TestAuthoritative_PrimaryUnavailable(t *testing.T) {
	tests := []struct {
		name  string
		preds []models.ModelPrediction
	}{
		{"primary failed", []models.ModelPrediction{failedPrediction("primary"), prediction("fair", true)}},
		{"primary absent", []models.ModelPrediction{prediction("fair", true)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Authoritative(tt.preds, "primary")
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodePrimaryModelUnavailable))
			assert.Contains(t, err.Error(), "primary model unavailable")
		})
	}
}
