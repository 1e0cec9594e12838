// internal/scoring/income.go
package scoring

import (
	"fmt"
	"math"

	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/common/logger"
	"credx-fairscore/internal/models"
)

// IncomeFeatures are the scaled base features the income model consumes, in order.
var IncomeFeatures = []string{
	models.FeatureUtilityPaymentTimeliness,
	models.FeatureRentPaymentTimeliness,
	models.FeatureUPITxnCount,
	models.FeatureUPIAvgTxnSize,
	models.FeatureAvgBalance,
	models.FeatureMobileRechargeFreq,
	models.FeatureDigitalWalletUsage,
	models.FeatureMerchantDiversityScore,
	models.FeatureSavingsRatio,
	models.FeatureAge,
}

// Income estimate sources.
const (
	IncomeSourceModel    = "model"
	IncomeSourceDefault  = "default"
	IncomeSourceFallback = "fallback"
)

const defaultEstimateStatus = "Using default estimate"

// IncomeEstimate is the verified annual income and how it was obtained.
type IncomeEstimate struct {
	Value  float64
	Source string
	Status string
}

// IncomeVerifier predicts verified income from behavioural proxies. A nil
// model always yields the default estimate.
type IncomeVerifier struct {
	model   artifacts.Regressor
	scaler  *artifacts.StandardScaler
	schema  *artifacts.FeatureSchema
	indices []int
	log     logger.Logger
}

func NewIncomeVerifier(model artifacts.Regressor, scaler *artifacts.StandardScaler, schema *artifacts.FeatureSchema, log logger.Logger) *IncomeVerifier {
	v := &IncomeVerifier{model: model, scaler: scaler, schema: schema, log: log}
	for _, name := range IncomeFeatures {
		if i, ok := schema.Index(name); ok {
			v.indices = append(v.indices, i)
		}
	}
	return v
}

// Enabled reports whether an income model is loaded.
func (v *IncomeVerifier) Enabled() bool {
	return v.model != nil
}

// Estimate never fails: any problem with the model degrades to the default
// estimate already carried in f.VerifiedIncome.
func (v *IncomeVerifier) Estimate(f *models.EngineeredFeatures) IncomeEstimate {
	fallback := f.VerifiedIncome
	if v.model == nil {
		return IncomeEstimate{Value: fallback, Source: IncomeSourceDefault, Status: defaultEstimateStatus}
	}

	predicted, err := v.predict(f)
	if err != nil {
		unavailable := errors.NewCollaboratorUnavailableError("income_model", err)
		v.log.Warn("income model failed, using default estimate", map[string]interface{}{
			"errorCode": string(unavailable.Code),
			"error":     err.Error(),
		})
		return IncomeEstimate{
			Value:  fallback,
			Source: IncomeSourceFallback,
			Status: fmt.Sprintf("Failed to use IVL Model: %v. Using default estimate.", err),
		}
	}
	return IncomeEstimate{
		Value:  predicted,
		Source: IncomeSourceModel,
		Status: fmt.Sprintf("IVL Model used. Predicted income: ₹%.0f", predicted),
	}
}

func (v *IncomeVerifier) predict(f *models.EngineeredFeatures) (out float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("income model panicked: %v", r)
		}
	}()

	scaled, err := v.scaler.Transform(f.Vector(v.schema.Features))
	if err != nil {
		return 0, err
	}
	sub := make([]float64, len(v.indices))
	for i, idx := range v.indices {
		sub[i] = scaled[idx]
	}
	if v.model.NFeatures() != len(sub) {
		return 0, errors.NewFeatureShapeError(len(sub), v.model.NFeatures())
	}
	out, err = v.model.Predict(sub)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("income model returned %v", out)
	}
	return out, nil
}
