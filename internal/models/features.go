// internal/models/features.go
package models

// Feature names of the 27-wide base schema. The authoritative order is the one
// listed in the feature-schema artifact; these constants only name the fields.
const (
	FeatureAge                      = "age"
	FeatureDeclaredIncome           = "declared_income"
	FeatureVerifiedIncome           = "verified_income"
	FeatureIncomeStability          = "income_stability"
	FeatureAvgBalance               = "avg_balance"
	FeatureSavingsRatio             = "savings_ratio"
	FeatureDebtToIncomeRatio        = "debt_to_income_ratio"
	FeatureLoanEMIRatio             = "loan_emi_ratio"
	FeatureUtilityPaymentTimeliness = "utility_payment_timeliness"
	FeatureRentPaymentTimeliness    = "rent_payment_timeliness"
	FeatureMobileRechargeFreq       = "mobile_recharge_freq"
	FeatureMobileRechargeVar        = "mobile_recharge_var"
	FeatureUPITxnCount              = "upi_txn_count"
	FeatureUPIAvgTxnSize            = "upi_avg_txn_size"
	FeatureMerchantDiversityScore   = "merchant_diversity_score"
	FeatureDigitalWalletUsage       = "digital_wallet_usage"
	FeatureAppFinanceRatio          = "app_finance_ratio"
	FeatureSIMChangeFreq            = "sim_change_freq"
	FeatureBatteryPatternScore      = "battery_pattern_score"
	FeaturePastLoansCount           = "past_loans_count"
	FeatureMissedPayments           = "missed_payments"
	FeatureAvgDaysPastDue           = "avg_days_past_due"
	FeatureCreditUtilizationRatio   = "credit_utilization_ratio"
	FeatureCreditLinesActive        = "credit_lines_active"
	FeatureCreditTenureMonths       = "credit_tenure_months"
	FeatureConsentGiven             = "consent_given"
	FeatureDocumentVerified         = "document_verified"

	FeatureVerifiedIncomeFromIVL = "verified_income_from_ivl"
)

// BaseFeatureCount is the width of the base feature schema.
const BaseFeatureCount = 27

// EngineeredFeatures is the fixed set of model-ready features derived from one applicant.
type EngineeredFeatures struct {
	Age                      float64 `json:"age"`
	DeclaredIncome           float64 `json:"declared_income"`
	VerifiedIncome           float64 `json:"verified_income"`
	IncomeStability          float64 `json:"income_stability"`
	AvgBalance               float64 `json:"avg_balance"`
	SavingsRatio             float64 `json:"savings_ratio"`
	DebtToIncomeRatio        float64 `json:"debt_to_income_ratio"`
	LoanEMIRatio             float64 `json:"loan_emi_ratio"`
	UtilityPaymentTimeliness float64 `json:"utility_payment_timeliness"`
	RentPaymentTimeliness    float64 `json:"rent_payment_timeliness"`
	MobileRechargeFreq       float64 `json:"mobile_recharge_freq"`
	MobileRechargeVar        float64 `json:"mobile_recharge_var"`
	UPITxnCount              float64 `json:"upi_txn_count"`
	UPIAvgTxnSize            float64 `json:"upi_avg_txn_size"`
	MerchantDiversityScore   float64 `json:"merchant_diversity_score"`
	DigitalWalletUsage       float64 `json:"digital_wallet_usage"`
	AppFinanceRatio          float64 `json:"app_finance_ratio"`
	SIMChangeFreq            float64 `json:"sim_change_freq"`
	BatteryPatternScore      float64 `json:"battery_pattern_score"`
	PastLoansCount           float64 `json:"past_loans_count"`
	MissedPayments           float64 `json:"missed_payments"`
	AvgDaysPastDue           float64 `json:"avg_days_past_due"`
	CreditUtilizationRatio   float64 `json:"credit_utilization_ratio"`
	CreditLinesActive        float64 `json:"credit_lines_active"`
	CreditTenureMonths       float64 `json:"credit_tenure_months"`
	ConsentGiven             float64 `json:"consent_given"`
	DocumentVerified         float64 `json:"document_verified"`

	VerifiedIncomeFromIVL float64 `json:"verified_income_from_ivl"`
}

// Value returns the named feature. Names outside the schema read as zero,
// so a schema artifact naming an unknown column never aborts a request.
func (f *EngineeredFeatures) Value(name string) float64 {
	switch name {
	case FeatureAge:
		return f.Age
	case FeatureDeclaredIncome:
		return f.DeclaredIncome
	case FeatureVerifiedIncome:
		return f.VerifiedIncome
	case FeatureIncomeStability:
		return f.IncomeStability
	case FeatureAvgBalance:
		return f.AvgBalance
	case FeatureSavingsRatio:
		return f.SavingsRatio
	case FeatureDebtToIncomeRatio:
		return f.DebtToIncomeRatio
	case FeatureLoanEMIRatio:
		return f.LoanEMIRatio
	case FeatureUtilityPaymentTimeliness:
		return f.UtilityPaymentTimeliness
	case FeatureRentPaymentTimeliness:
		return f.RentPaymentTimeliness
	case FeatureMobileRechargeFreq:
		return f.MobileRechargeFreq
	case FeatureMobileRechargeVar:
		return f.MobileRechargeVar
	case FeatureUPITxnCount:
		return f.UPITxnCount
	case FeatureUPIAvgTxnSize:
		return f.UPIAvgTxnSize
	case FeatureMerchantDiversityScore:
		return f.MerchantDiversityScore
	case FeatureDigitalWalletUsage:
		return f.DigitalWalletUsage
	case FeatureAppFinanceRatio:
		return f.AppFinanceRatio
	case FeatureSIMChangeFreq:
		return f.SIMChangeFreq
	case FeatureBatteryPatternScore:
		return f.BatteryPatternScore
	case FeaturePastLoansCount:
		return f.PastLoansCount
	case FeatureMissedPayments:
		return f.MissedPayments
	case FeatureAvgDaysPastDue:
		return f.AvgDaysPastDue
	case FeatureCreditUtilizationRatio:
		return f.CreditUtilizationRatio
	case FeatureCreditLinesActive:
		return f.CreditLinesActive
	case FeatureCreditTenureMonths:
		return f.CreditTenureMonths
	case FeatureConsentGiven:
		return f.ConsentGiven
	case FeatureDocumentVerified:
		return f.DocumentVerified
	case FeatureVerifiedIncomeFromIVL:
		return f.VerifiedIncomeFromIVL
	default:
		return 0
	}
}

// Vector returns the features in the given order.
func (f *EngineeredFeatures) Vector(order []string) []float64 {
	out := make([]float64, len(order))
	for i, name := range order {
		out[i] = f.Value(name)
	}
	return out
}

// DefaultFeatureOrder is the column order of the stock feature schema.
var DefaultFeatureOrder = []string{
	FeatureAge,
	FeatureDeclaredIncome,
	FeatureVerifiedIncome,
	FeatureIncomeStability,
	FeatureAvgBalance,
	FeatureSavingsRatio,
	FeatureDebtToIncomeRatio,
	FeatureLoanEMIRatio,
	FeatureUtilityPaymentTimeliness,
	FeatureRentPaymentTimeliness,
	FeatureMobileRechargeFreq,
	FeatureMobileRechargeVar,
	FeatureUPITxnCount,
	FeatureUPIAvgTxnSize,
	FeatureMerchantDiversityScore,
	FeatureDigitalWalletUsage,
	FeatureAppFinanceRatio,
	FeatureSIMChangeFreq,
	FeatureBatteryPatternScore,
	FeaturePastLoansCount,
	FeatureMissedPayments,
	FeatureAvgDaysPastDue,
	FeatureCreditUtilizationRatio,
	FeatureCreditLinesActive,
	FeatureCreditTenureMonths,
	FeatureConsentGiven,
	FeatureDocumentVerified,
}
