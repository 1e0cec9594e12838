// internal/scoring/factors.go
package scoring

import (
	"fmt"
	"math"

	"credx-fairscore/internal/models"
)

// RepaymentHistoryScore is a display-only score in [0, 1] derived from missed
// payments and days past due.
func RepaymentHistoryScore(f *models.EngineeredFeatures) float64 {
	return math.Max(0, 100-(f.MissedPayments*5+f.AvgDaysPastDue*0.5)) / 100
}

// DigitalPaymentScore is a display-only blend of UPI and wallet activity.
func DigitalPaymentScore(f *models.EngineeredFeatures) float64 {
	return f.UPITxnCount/100*0.4 + f.UPIAvgTxnSize/10000*0.3 + f.DigitalWalletUsage*0.3
}

type factorRule struct {
	applies func(f *models.EngineeredFeatures) bool
	text    func(f *models.EngineeredFeatures) string
}

func fixed(s string) func(*models.EngineeredFeatures) string {
	return func(*models.EngineeredFeatures) string { return s }
}

var positiveRules = []factorRule{
	{
		applies: func(f *models.EngineeredFeatures) bool { return RepaymentHistoryScore(f) > 0.8 },
		text:    fixed("Excellent payment history (few to no missed payments)"),
	},
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.CreditUtilizationRatio < 0.3 },
		text:    fixed("Low credit utilization (using < 30% of available credit)"),
	},
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.SavingsRatio > 0.2 },
		text:    fixed("Good savings ratio (saving > 20% of income)"),
	},
	{
		applies: func(f *models.EngineeredFeatures) bool { return DigitalPaymentScore(f) > 0.5 },
		text:    fixed("Strong digital payment activity"),
	},
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.IncomeStability > 0.5 },
		text:    fixed("Stable income source"),
	},
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.CreditTenureMonths > 36 },
		text:    fixed("Established credit history ( > 3 years)"),
	},
}

var negativeRules = []factorRule{
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.MissedPayments > 0 },
		text: func(f *models.EngineeredFeatures) string {
			return fmt.Sprintf("%d missed payments recorded", int(f.MissedPayments))
		},
	},
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.CreditUtilizationRatio > 0.7 },
		text:    fixed("High credit utilization (using > 70% of available credit)"),
	},
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.AvgDaysPastDue > 0 },
		text: func(f *models.EngineeredFeatures) string {
			return fmt.Sprintf("Accounts previously %d days past due", int(f.AvgDaysPastDue))
		},
	},
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.SavingsRatio < 0.1 },
		text:    fixed("Low savings ratio (saving < 10% of income)"),
	},
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.CreditTenureMonths < 12 },
		text:    fixed("Limited credit history ( < 1 year)"),
	},
}

type recommendationRule struct {
	applies func(f *models.EngineeredFeatures) bool
	text    string
}

func always(*models.EngineeredFeatures) bool { return true }

var rejectedRecommendations = []recommendationRule{
	{applies: always, text: "• Focus on improving payment history (make all payments on time)"},
	{applies: always, text: "• Reduce credit utilization ratio (ideally below 30%)"},
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.SavingsRatio < 0.15 },
		text:    "• Increase savings ratio and build an emergency fund",
	},
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.CreditTenureMonths < 24 },
		text:    "• Continue building a positive credit history over time",
	},
}

var approvedRecommendations = []recommendationRule{
	{applies: always, text: "• Maintain your excellent payment discipline"},
	{applies: always, text: "• Continue responsible credit usage"},
	{
		applies: func(f *models.EngineeredFeatures) bool { return f.CreditUtilizationRatio > 0.3 },
		text:    "• Consider keeping credit utilization low (below 30%) for optimal score",
	},
	{applies: always, text: "• Monitor your credit report regularly for any inaccuracies"},
}

// FactorAnalysis is the explanatory output for one decision.
type FactorAnalysis struct {
	Positive        []models.FactorEntry
	Negative        []models.FactorEntry
	Recommendations []string
}

// AnalyzeFactors evaluates every rule independently, in declaration order.
// Recommendations follow the authoritative approval flag.
func AnalyzeFactors(f *models.EngineeredFeatures, approved bool) FactorAnalysis {
	out := FactorAnalysis{
		Positive:        scan(positiveRules, f, models.PolarityPositive),
		Negative:        scan(negativeRules, f, models.PolarityNegative),
		Recommendations: []string{},
	}
	recs := rejectedRecommendations
	if approved {
		recs = approvedRecommendations
	}
	for _, r := range recs {
		if r.applies(f) {
			out.Recommendations = append(out.Recommendations, r.text)
		}
	}
	return out
}

func scan(rules []factorRule, f *models.EngineeredFeatures, polarity models.FactorPolarity) []models.FactorEntry {
	out := []models.FactorEntry{}
	for _, r := range rules {
		if r.applies(f) {
			out = append(out, models.FactorEntry{Text: r.text(f), Type: polarity})
		}
	}
	return out
}
