package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"credx-fairscore/internal/artifacts/artifacttest"
	"credx-fairscore/internal/models"
)

func texts(entries []models.FactorEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

func TestDisplayScores(t *testing.T) {
	good := artifacttest.GoodApplicant()
	f := EngineerFeatures(&good)
	assert.InDelta(t, 0.95, RepaymentHistoryScore(f), 1e-9)
	assert.InDelta(t, 0.714, DigitalPaymentScore(f), 1e-9)

	bad := artifacttest.BadApplicant()
	f = EngineerFeatures(&bad)
	assert.InDelta(t, 0.775, RepaymentHistoryScore(f), 1e-9)
	assert.InDelta(t, 0.2475, DigitalPaymentScore(f), 1e-9)

	f.MissedPayments = 30
	assert.Equal(t, 0.0, RepaymentHistoryScore(f))
}

func TestAnalyzeFactors_GoodApplicant(t *testing.T) {
	in := artifacttest.GoodApplicant()
	out := AnalyzeFactors(EngineerFeatures(&in), true)

	assert.Equal(t, []string{
		"Excellent payment history (few to no missed payments)",
		"Low credit utilization (using < 30% of available credit)",
		"Good savings ratio (saving > 20% of income)",
		"Strong digital payment activity",
		"Stable income source",
		"Established credit history ( > 3 years)",
	}, texts(out.Positive))
	assert.Equal(t, []string{"1 missed payments recorded"}, texts(out.Negative))
	assert.Equal(t, []string{
		"• Maintain your excellent payment discipline",
		"• Continue responsible credit usage",
		"• Monitor your credit report regularly for any inaccuracies",
	}, out.Recommendations)

	for _, e := range out.Positive {
		assert.Equal(t, models.PolarityPositive, e.Type)
	}
	for _, e := range out.Negative {
		assert.Equal(t, models.PolarityNegative, e.Type)
	}
}

func TestAnalyzeFactors_BadApplicant(t *testing.T) {
	in := artifacttest.BadApplicant()
	out := AnalyzeFactors(EngineerFeatures(&in), false)

	assert.Empty(t, out.Positive)
	assert.NotNil(t, out.Positive)
	assert.Equal(t, []string{
		"3 missed payments recorded",
		"High credit utilization (using > 70% of available credit)",
		"Accounts previously 15 days past due",
		"Low savings ratio (saving < 10% of income)",
		"Limited credit history ( < 1 year)",
	}, texts(out.Negative))
	assert.Equal(t, []string{
		"• Focus on improving payment history (make all payments on time)",
		"• Reduce credit utilization ratio (ideally below 30%)",
		"• Increase savings ratio and build an emergency fund",
		"• Continue building a positive credit history over time",
	}, out.Recommendations)
}

func TestAnalyzeFactors_ConditionalRecommendations(t *testing.T) {
	in := artifacttest.GoodApplicant()
	f := EngineerFeatures(&in)

	f.CreditUtilizationRatio = 0.45
	approved := AnalyzeFactors(f, true)
	assert.Contains(t, approved.Recommendations, "• Consider keeping credit utilization low (below 30%) for optimal score")
	assert.Len(t, approved.Recommendations, 4)

	// healthy savings and tenure leave only the fixed rejected bullets
	rejected := AnalyzeFactors(f, false)
	assert.Equal(t, []string{
		"• Focus on improving payment history (make all payments on time)",
		"• Reduce credit utilization ratio (ideally below 30%)",
	}, rejected.Recommendations)
}
