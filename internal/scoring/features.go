// internal/scoring/features.go
package scoring

import "credx-fairscore/internal/models"

// Fixed stand-ins for behavioural sensor signals that are not collected.
const (
	SIMChangeFreqPlaceholder       = 0.1
	BatteryPatternScorePlaceholder = 0.5
)

// DefaultIncomeShare is the share of declared income assumed verified when no
// income model is available.
const DefaultIncomeShare = 0.95

// DefaultVerifiedIncome is the fallback verified annual income.
func DefaultVerifiedIncome(monthlyIncome int) float64 {
	return float64(monthlyIncome) * 12 * DefaultIncomeShare
}

// EngineerFeatures derives the 27 base features from a raw applicant.
// VerifiedIncomeFromIVL starts at the default estimate.
func EngineerFeatures(in *models.ApplicantInput) *models.EngineeredFeatures {
	declared := float64(in.MonthlyIncome) * 12
	wallet := in.DigitalWalletUsage / 100

	f := &models.EngineeredFeatures{
		Age:             float64(in.Age),
		DeclaredIncome:  declared,
		VerifiedIncome:  DefaultVerifiedIncome(in.MonthlyIncome),
		IncomeStability: in.IncomeStability,

		AvgBalance:        float64(in.AvgBalance),
		SavingsRatio:      in.SavingsRatio,
		DebtToIncomeRatio: in.ExpenseIncomeRatio,
		LoanEMIRatio:      in.ExpenseIncomeRatio * 0.3,

		UtilityPaymentTimeliness: float64(in.UtilityPaymentScore) / 100,
		RentPaymentTimeliness:    float64(in.RentPaymentScore) / 100,

		MobileRechargeFreq:     float64(in.MobileRechargeFreq),
		MobileRechargeVar:      float64(in.MobileRechargeFreq) * 0.2,
		UPITxnCount:            float64(in.UPITransactions),
		UPIAvgTxnSize:          float64(in.UPIAvgAmount),
		MerchantDiversityScore: in.MerchantDiversity,
		DigitalWalletUsage:     wallet,
		AppFinanceRatio:        wallet * 0.7,
		SIMChangeFreq:          SIMChangeFreqPlaceholder,
		BatteryPatternScore:    BatteryPatternScorePlaceholder,

		PastLoansCount:         float64(in.CreditLines),
		MissedPayments:         float64(in.MissedPayments),
		AvgDaysPastDue:         float64(in.AvgDaysPastDue),
		CreditUtilizationRatio: in.CreditUtilization,
		CreditLinesActive:      float64(in.CreditLines),
		CreditTenureMonths:     float64(in.CreditTenureMonths),

		ConsentGiven:     flag(in.ConsentGiven),
		DocumentVerified: flag(in.DocumentVerified),
	}
	f.VerifiedIncomeFromIVL = f.VerifiedIncome
	return f
}

func flag(v int) float64 {
	if v != 0 {
		return 1
	}
	return 0
}
