package validation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/models"
)

var integerFields = []string{
	"age", "gender_code", "caste_code", "region_code", "employment_code", "monthly_income",
	"avg_balance", "utility_payment_score", "rent_payment_score", "upi_transactions",
	"upi_avg_amount", "mobile_recharge_freq", "credit_lines", "credit_tenure_months",
	"missed_payments", "avg_days_past_due", "consent_given", "document_verified",
}

var numberFields = []string{
	"income_stability", "savings_ratio", "expense_income_ratio", "digital_wallet_usage",
	"merchant_diversity", "credit_utilization",
}

// ApplicantSchema is the request schema of an assessment. Category codes are
// checked against the mapping tables later, not here.
var ApplicantSchema = MustCompileSchema(applicantSchemaJSON())

func applicantSchemaJSON() string {
	props := map[string]interface{}{
		"applicant_id": map[string]interface{}{"type": "string"},
	}
	required := []string{"applicant_id"}
	for _, f := range integerFields {
		props[f] = map[string]interface{}{"type": "integer"}
		required = append(required, f)
	}
	for _, f := range numberFields {
		props[f] = map[string]interface{}{"type": "number"}
		required = append(required, f)
	}
	data, _ := json.Marshal(map[string]interface{}{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
		"required":   required,
	})
	return string(data)
}

// NormalizeApplicant returns a copy of raw with numeric strings converted to
// numbers. Web forms post every field as a string. Values that do not parse
// are left for the schema to reject.
func NormalizeApplicant(raw map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	for _, f := range integerFields {
		if s, ok := out[f].(string); ok {
			if n, ok := parseInteger(s); ok {
				out[f] = n
			}
		}
	}
	for _, f := range numberFields {
		if s, ok := out[f].(string); ok {
			if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
				out[f] = n
			}
		}
	}
	return out
}

// parseInteger accepts "12" and "12.0" but not "12.5".
func parseInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// ValidateApplicant normalizes and schema-checks a raw request body.
func ValidateApplicant(raw map[string]interface{}) (map[string]interface{}, *ValidationResult) {
	normalized := NormalizeApplicant(raw)
	return normalized, ApplicantSchema.Validate(normalized)
}

// ParseApplicant validates raw and decodes it into an ApplicantInput. A
// missing field yields MissingFieldError; any other violation a ValidationError.
func ParseApplicant(raw map[string]interface{}) (*models.ApplicantInput, error) {
	if raw == nil {
		return nil, errors.NewValidationError("applicant is required")
	}
	normalized, result := ValidateApplicant(raw)
	if !result.Valid {
		if missing := result.MissingFields(); len(missing) > 0 {
			e := errors.NewMissingFieldError(missing[0])
			e.Metadata["missing"] = missing
			return nil, e
		}
		e := errors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
		e.Metadata = map[string]interface{}{"errors": result.Errors}
		return nil, e
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	var in models.ApplicantInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	return &in, nil
}
