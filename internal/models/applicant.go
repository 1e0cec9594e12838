// internal/models/applicant.go
package models

// ApplicantInput is the raw applicant record accepted by the assessment pipeline.
// Coded fields are validated against the category tables before any feature is built.
type ApplicantInput struct {
	ApplicantID         string  `json:"applicant_id"`
	Age                 int     `json:"age"`
	GenderCode          int     `json:"gender_code"`
	CasteCode           int     `json:"caste_code"`
	RegionCode          int     `json:"region_code"`
	EmploymentCode      int     `json:"employment_code"`
	MonthlyIncome       int     `json:"monthly_income"`
	IncomeStability     float64 `json:"income_stability"`
	AvgBalance          int     `json:"avg_balance"`
	SavingsRatio        float64 `json:"savings_ratio"`
	ExpenseIncomeRatio  float64 `json:"expense_income_ratio"`
	UtilityPaymentScore int     `json:"utility_payment_score"`
	RentPaymentScore    int     `json:"rent_payment_score"`
	UPITransactions     int     `json:"upi_transactions"`
	UPIAvgAmount        int     `json:"upi_avg_amount"`
	MobileRechargeFreq  int     `json:"mobile_recharge_freq"`
	DigitalWalletUsage  float64 `json:"digital_wallet_usage"`
	MerchantDiversity   float64 `json:"merchant_diversity"`
	CreditLines         int     `json:"credit_lines"`
	CreditTenureMonths  int     `json:"credit_tenure_months"`
	MissedPayments      int     `json:"missed_payments"`
	AvgDaysPastDue      int     `json:"avg_days_past_due"`
	CreditUtilization   float64 `json:"credit_utilization"`
	ConsentGiven        int     `json:"consent_given"`
	DocumentVerified    int     `json:"document_verified"`
}

// DecodedCategories holds the canonical labels resolved from the coded fields.
type DecodedCategories struct {
	Gender     string `json:"gender"`
	GenderChar string `json:"gender_char"`
	Caste      string `json:"caste"`
	Region     string `json:"region"`
	Employment string `json:"employment"`
}

// ApplicantProfile is the display echo of the applicant in a successful report.
type ApplicantProfile struct {
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	Region        string `json:"region"`
	Employment    string `json:"employment"`
	MonthlyIncome int    `json:"monthly_income"`
}
