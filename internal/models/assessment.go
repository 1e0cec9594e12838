// internal/models/assessment.go
package models

import "encoding/json"

// FactorPolarity is the direction in which a factor moves the decision.
type FactorPolarity string

const (
	PolarityPositive FactorPolarity = "positive"
	PolarityNegative FactorPolarity = "negative"
)

// FactorEntry is one explanatory factor produced by the rule scan.
type FactorEntry struct {
	Text string         `json:"text"`
	Type FactorPolarity `json:"type"`
}

// ModelPrediction is the outcome of one scorer for one request. A failed scorer
// carries a nil Score and a non-nil Error.
type ModelPrediction struct {
	Model               string  `json:"model"`
	Score               *int    `json:"score"`
	Approved            bool    `json:"approved"`
	DefaultRisk         float64 `json:"default_risk"`
	ApprovalProbability float64 `json:"approval_probability"`
	RiskCategory        string  `json:"risk_category,omitempty"`
	RiskColor           string  `json:"risk_color,omitempty"`
	FeatureShape        [2]int  `json:"feature_shape"`
	Error               *string `json:"error"`
}

type failedPrediction struct {
	Model        string  `json:"model"`
	Score        *int    `json:"score"`
	Error        *string `json:"error"`
	FeatureShape [2]int  `json:"feature_shape"`
}

// MarshalJSON emits only model, score, error and feature_shape for a failed
// prediction.
func (p ModelPrediction) MarshalJSON() ([]byte, error) {
	if p.Error != nil {
		return json.Marshal(failedPrediction{
			Model:        p.Model,
			Error:        p.Error,
			FeatureShape: p.FeatureShape,
		})
	}
	type prediction ModelPrediction
	return json.Marshal(prediction(p))
}

// Succeeded reports whether the scorer produced a decision.
func (p ModelPrediction) Succeeded() bool {
	return p.Error == nil && p.Score != nil
}

// CreditScore returns the score, or zero for a failed prediction.
func (p ModelPrediction) CreditScore() int {
	if p.Score == nil {
		return 0
	}
	return *p.Score
}

// ConsensusReport summarises agreement across the scorers that succeeded.
type ConsensusReport struct {
	ApprovedCount int  `json:"approved_count"`
	TotalCount    int  `json:"total_count"`
	Unanimous     bool `json:"unanimous"`
}

// FinalDecision is the user-facing decision, always taken from the authoritative scorer.
type FinalDecision struct {
	Approved            bool    `json:"approved"`
	CreditScore         int     `json:"credit_score"`
	RiskCategory        string  `json:"risk_category"`
	DefaultRisk         float64 `json:"default_risk"`
	ApprovalProbability float64 `json:"approval_probability"`
	Threshold           float64 `json:"threshold"`
}

// Report is the complete assessment response for one applicant.
type Report struct {
	Success          bool                       `json:"success"`
	Error            string                     `json:"error,omitempty"`
	ApplicantProfile *ApplicantProfile          `json:"applicant_profile"`
	FinalDecision    *FinalDecision             `json:"final_decision"`
	ModelPredictions []ModelPrediction          `json:"model_predictions"`
	Consensus        *ConsensusReport           `json:"consensus"`
	PositiveFactors  []FactorEntry              `json:"positive_factors"`
	NegativeFactors  []FactorEntry              `json:"negative_factors"`
	Recommendations  []string                   `json:"recommendations"`
	AllPredictions   map[string]ModelPrediction `json:"all_predictions"`
	Colour           string                     `json:"colour"`
	Name             string                     `json:"name"`

	// IncomeStatus describes how verified_income_from_ivl was obtained.
	IncomeStatus string `json:"-"`
	// RawInput is echoed back as applicant_profile when the request fails.
	RawInput map[string]interface{} `json:"-"`
	// Cause is the error behind an unsuccessful report.
	Cause error `json:"-"`
}

type failedReport struct {
	Success          bool                   `json:"success"`
	Error            string                 `json:"error"`
	ApplicantProfile map[string]interface{} `json:"applicant_profile"`
}

// MarshalJSON emits the reduced failure shape for unsuccessful reports.
func (r Report) MarshalJSON() ([]byte, error) {
	if !r.Success {
		raw := r.RawInput
		if raw == nil {
			raw = map[string]interface{}{}
		}
		return json.Marshal(failedReport{
			Success:          false,
			Error:            r.Error,
			ApplicantProfile: raw,
		})
	}
	type report Report
	return json.Marshal(report(r))
}

// NewFailedReport builds the failure response for a request that could not be assessed.
func NewFailedReport(err error, raw map[string]interface{}) *Report {
	msg := "assessment failed"
	if err != nil {
		msg = err.Error()
	}
	return &Report{
		Success:  false,
		Error:    msg,
		RawInput: raw,
		Cause:    err,
	}
}
