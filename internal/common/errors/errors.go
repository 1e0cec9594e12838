// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Request validation errors
const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnknownCategoryCode  ErrorCode = "UNKNOWN_CATEGORY_CODE"
	ErrCodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
)

// Artifact errors, raised while loading the model bundle
const (
	ErrCodeArtifactMismatch    ErrorCode = "ARTIFACT_MISMATCH"
	ErrCodeArtifactNotFound    ErrorCode = "ARTIFACT_NOT_FOUND"
	ErrCodeArtifactStoreFailed ErrorCode = "ARTIFACT_STORE_FAILED"
)

// Model errors, raised while scoring one request
const (
	ErrCodeCollaboratorUnavailable ErrorCode = "COLLABORATOR_UNAVAILABLE"
	ErrCodeFeatureShapeMismatch    ErrorCode = "FEATURE_SHAPE_MISMATCH"
	ErrCodeScorerFailure           ErrorCode = "SCORER_FAILURE"
	ErrCodePrimaryModelUnavailable ErrorCode = "PRIMARY_MODEL_UNAVAILABLE"
)

const (
	ErrCodePipelineFailure       ErrorCode = "PIPELINE_FAILURE"
	ErrCodeDecisionPublishFailed ErrorCode = "DECISION_PUBLISH_FAILED"
	ErrCodeExternalService       ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable error for a malformed applicant record.
func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Applicant validation failed", details, false)
}

// NewUnknownCodeError reports a coded field whose value is absent from its mapping table.
func NewUnknownCodeError(field string, code int) *StandardError {
	e := newError(ErrCodeUnknownCategoryCode, "Unknown category code",
		fmt.Sprintf("%s: %d", field, code), false)
	e.Metadata = map[string]interface{}{"field": field, "code": code}
	return e
}

// NewMissingFieldError reports a required applicant field that was not supplied.
func NewMissingFieldError(field string) *StandardError {
	e := newError(ErrCodeMissingRequiredField, "Missing required field", field, false)
	e.Metadata = map[string]interface{}{"field": field}
	return e
}

// NewArtifactMismatchError reports an artifact inconsistent with the pipeline layout.
func NewArtifactMismatchError(artifact, details string) *StandardError {
	e := newError(ErrCodeArtifactMismatch, fmt.Sprintf("Artifact '%s' is incompatible", artifact), details, false)
	e.Metadata = map[string]interface{}{"artifact": artifact}
	return e
}

// NewArtifactNotFoundError reports an artifact missing from its source.
func NewArtifactNotFoundError(artifact string) *StandardError {
	e := newError(ErrCodeArtifactNotFound, fmt.Sprintf("Artifact '%s' not found", artifact), "", false)
	e.Metadata = map[string]interface{}{"artifact": artifact}
	return e
}

// NewArtifactStoreError creates a retryable error for an unreachable artifact store.
func NewArtifactStoreError(store string, err error) *StandardError {
	return newError(ErrCodeArtifactStoreFailed, fmt.Sprintf("Artifact store '%s' error", store), err.Error(), true)
}

// NewCollaboratorUnavailableError reports an optional collaborator that could not serve.
func NewCollaboratorUnavailableError(collaborator string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeCollaboratorUnavailable, fmt.Sprintf("Collaborator '%s' unavailable", collaborator), details, false)
}

// NewFeatureShapeError reports a vector whose width differs from the scorer's input width.
func NewFeatureShapeError(actual, expected int) *StandardError {
	e := newError(ErrCodeFeatureShapeMismatch, "Feature shape mismatch",
		fmt.Sprintf("feature shape %d does not match expected %d", actual, expected), false)
	e.Metadata = map[string]interface{}{"actual": actual, "expected": expected}
	return e
}

// NewScorerFailureError reports a scorer that failed while predicting.
func NewScorerFailureError(model string, err error) *StandardError {
	return newError(ErrCodeScorerFailure, fmt.Sprintf("Scorer '%s' failed", model), err.Error(), false)
}

// NewPrimaryModelUnavailableError reports that the authoritative scorer produced no decision.
func NewPrimaryModelUnavailableError(details string) *StandardError {
	return newError(ErrCodePrimaryModelUnavailable, "primary model unavailable", details, false)
}

// NewPipelineFailureError wraps any other failure raised while assessing a request.
func NewPipelineFailureError(details string) *StandardError {
	return newError(ErrCodePipelineFailure, "Assessment pipeline failed", details, false)
}

// NewDecisionPublishError creates a retryable error for a failed decision notification.
func NewDecisionPublishError(err error) *StandardError {
	return newError(ErrCodeDecisionPublishFailed, "Decision event publish failed", err.Error(), true)
}

// NewExternalServiceError creates a retryable error for an unreachable dependency.
func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes caught by
// boundary events in the credit-assessment process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:        "APPLICANT_INVALID",
	ErrCodeUnknownCategoryCode:     "APPLICANT_INVALID",
	ErrCodeMissingRequiredField:    "APPLICANT_INVALID",
	ErrCodeArtifactMismatch:        "MODEL_ARTIFACT_INVALID",
	ErrCodeArtifactNotFound:        "MODEL_ARTIFACT_INVALID",
	ErrCodeArtifactStoreFailed:     "MODEL_STORE_UNAVAILABLE",
	ErrCodePrimaryModelUnavailable: "PRIMARY_MODEL_UNAVAILABLE",
	ErrCodePipelineFailure:         "CREDIT_ASSESSMENT_FAILED",
	ErrCodeDecisionPublishFailed:   "DECISION_PUBLISH_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeArtifactStoreFailed, ErrCodeDecisionPublishFailed, ErrCodeExternalService:
		return 3
	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err to the first StandardError in its chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first StandardError in err's chain, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeDecisionPublishFailed || code == ErrCodeExternalService:
		return "INTEGRATION"
	case strings.HasPrefix(codeStr, "ARTIFACT"):
		return "ARTIFACT"
	case code == ErrCodePipelineFailure:
		return "PIPELINE"
	case strings.Contains(codeStr, "MODEL") || strings.Contains(codeStr, "SCORER") ||
		strings.Contains(codeStr, "COLLABORATOR") || strings.Contains(codeStr, "SHAPE"):
		return "MODEL"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "CATEGORY") ||
		strings.Contains(codeStr, "FIELD"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
