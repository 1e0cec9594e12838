package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/artifacts/artifacttest"
	"credx-fairscore/internal/common/logger"
)

func newIncomeVerifier(t *testing.T, model artifacts.Regressor) *IncomeVerifier {
	b := artifacttest.Bundle(t)
	return NewIncomeVerifier(model, b.Scaler, b.Schema, logger.NewTestLogger(t))
}

func TestIncomeVerifier_NoModelUsesDefault(t *testing.T) {
	v := newIncomeVerifier(t, nil)
	assert.False(t, v.Enabled())

	in := artifacttest.GoodApplicant()
	est := v.Estimate(EngineerFeatures(&in))
	assert.Equal(t, IncomeSourceDefault, est.Source)
	assert.Equal(t, "Using default estimate", est.Status)
	assert.InDelta(t, 80000*12*0.95, est.Value, 1e-9)
}

func TestIncomeVerifier_ModelPrediction(t *testing.T) {
	model, err := artifacts.ParseRegressor("income_model", artifacttest.LinearIncomeModel(1200000))
	require.NoError(t, err)

	v := newIncomeVerifier(t, model)
	require.True(t, v.Enabled())
	assert.Len(t, v.indices, len(IncomeFeatures))

	in := artifacttest.GoodApplicant()
	est := v.Estimate(EngineerFeatures(&in))
	assert.Equal(t, IncomeSourceModel, est.Source)
	assert.Equal(t, 1200000.0, est.Value)
	assert.Equal(t, "IVL Model used. Predicted income: ₹1200000", est.Status)
}

func TestIncomeVerifier_FailuresFallBack(t *testing.T) {
	tests := []struct {
		name   string
		model  artifacts.Regressor
		status string
	}{
		{
			name:   "wrong width",
			model:  &fakeRegressor{width: 9, value: 1},
			status: "Failed to use IVL Model: Feature shape mismatch: feature shape 10 does not match expected 9. Using default estimate.",
		},
		{
			name:   "prediction error",
			model:  &fakeRegressor{width: 10, err: errModel},
			status: "Failed to use IVL Model: attribute incompatibility. Using default estimate.",
		},
		{
			name:   "panic",
			model:  &fakeRegressor{width: 10, panic: true},
			status: "Failed to use IVL Model: income model panicked: regressor missing attribute. Using default estimate.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newIncomeVerifier(t, tt.model)
			in := artifacttest.BadApplicant()
			est := v.Estimate(EngineerFeatures(&in))

			assert.Equal(t, IncomeSourceFallback, est.Source)
			assert.Equal(t, tt.status, est.Status)
			assert.InDelta(t, 25000*12*0.95, est.Value, 1e-9)
		})
	}
}
