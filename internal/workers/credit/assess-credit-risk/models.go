// internal/workers/credit/assess-credit-risk/models.go
package assesscreditrisk

import "credx-fairscore/internal/models"

// Input carries the applicant record. Processes that set the applicant
// fields directly on the instance are also accepted.
type Input struct {
	Applicant map[string]interface{} `json:"applicant"`
}

type Output struct {
	CreditAssessment         *models.Report `json:"creditAssessment"`
	CreditApproved           bool           `json:"creditApproved"`
	CreditScore              int            `json:"creditScore"`
	RiskCategory             string         `json:"riskCategory"`
	IncomeVerificationStatus string         `json:"incomeVerificationStatus"`
	DecisionEventID          string         `json:"decisionEventId,omitempty"`
}
