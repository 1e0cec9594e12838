// Package artifacttest builds small, deterministic model bundles for tests.
//
// The stock fixture uses an identity scaler and two logistic classifiers whose
// default probability is sigmoid(-3 + 6*credit_utilization_ratio + 0.5*missed_payments),
// so outcomes can be worked out by hand.
package artifacttest

import (
	"context"
	"encoding/json"
	"testing"

	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/common/logger"
	"credx-fairscore/internal/models"
	"credx-fairscore/pkg/registry"
)

// Coefficients of the fixture classifiers.
const (
	Intercept         = -3.0
	UtilizationWeight = 6.0
	MissedWeight      = 0.5
)

// RegionClasses and EmploymentClasses are the sorted encoder classes.
var (
	RegionClasses     = []string{"Central", "East", "North", "South", "West"}
	EmploymentClasses = []string{"Agriculture", "Salaried", "Self-Employed", "Student", "Unemployed"}
)

// MapSource serves artifacts from memory.
type MapSource map[string][]byte

func (m MapSource) Kind() string { return "memory" }

func (m MapSource) Fetch(_ context.Context, name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, errors.NewArtifactNotFoundError(name)
	}
	return data, nil
}

// Files returns the stock fixture keyed by the default registry names. The
// income model is absent so the default estimate is used.
func Files() MapSource {
	reg := registry.Default()
	files := MapSource{
		reg.FeatureSchema: mustJSON(map[string]interface{}{"all_features": models.DefaultFeatureOrder}),
		reg.Scaler:        IdentityScaler(models.BaseFeatureCount),
		reg.Encoders: mustJSON(map[string]interface{}{
			artifacts.EncoderRegion:     map[string]interface{}{"classes": RegionClasses},
			artifacts.EncoderEmployment: map[string]interface{}{"classes": EmploymentClasses},
		}),
	}
	for _, s := range reg.Scorers {
		files[s.Artifact] = Logistic(s.ExpectedWidth)
	}
	return files
}

// IdentityScaler returns a scaler artifact with mean 0 and scale 1.
func IdentityScaler(width int) []byte {
	mean := make([]float64, width)
	scale := make([]float64, width)
	for i := range scale {
		scale[i] = 1
	}
	return mustJSON(map[string]interface{}{"mean": mean, "scale": scale})
}

// Logistic returns the fixture classifier artifact at the given width.
func Logistic(width int) []byte {
	coef := make([]float64, width)
	coef[indexOf(models.FeatureCreditUtilizationRatio)] = UtilizationWeight
	coef[indexOf(models.FeatureMissedPayments)] = MissedWeight
	return mustJSON(map[string]interface{}{
		"type":         artifacts.ModelLogistic,
		"n_features":   width,
		"coefficients": coef,
		"intercept":    Intercept,
	})
}

// LinearIncomeModel returns a 10-feature regressor that always predicts value.
func LinearIncomeModel(value float64) []byte {
	return mustJSON(map[string]interface{}{
		"type":         artifacts.ModelLinear,
		"n_features":   10,
		"coefficients": make([]float64, 10),
		"intercept":    value,
	})
}

// Bundle loads the stock fixture.
func Bundle(t testing.TB) *artifacts.Bundle {
	t.Helper()
	return Load(t, Files())
}

// Load loads a bundle from files using the default registry.
func Load(t testing.TB, files MapSource) *artifacts.Bundle {
	t.Helper()
	b, _, err := artifacts.Load(context.Background(), files, registry.Default(), logger.NewNoOpLogger())
	if err != nil {
		t.Fatalf("load fixture bundle: %v", err)
	}
	return b
}

// GoodApplicant is a low-risk applicant: utilization 0.25 and one missed payment.
func GoodApplicant() models.ApplicantInput {
	return models.ApplicantInput{
		ApplicantID:         "APP-001",
		Age:                 35,
		GenderCode:          1,
		CasteCode:           1,
		RegionCode:          2,
		EmploymentCode:      1,
		MonthlyIncome:       80000,
		IncomeStability:     0.8,
		AvgBalance:          150000,
		SavingsRatio:        0.3,
		ExpenseIncomeRatio:  0.4,
		UtilityPaymentScore: 95,
		RentPaymentScore:    100,
		UPITransactions:     120,
		UPIAvgAmount:        800,
		MobileRechargeFreq:  2,
		DigitalWalletUsage:  70,
		MerchantDiversity:   0.8,
		CreditLines:         3,
		CreditTenureMonths:  48,
		MissedPayments:      1,
		AvgDaysPastDue:      0,
		CreditUtilization:   0.25,
		ConsentGiven:        1,
		DocumentVerified:    1,
	}
}

// BadApplicant is a high-risk applicant: utilization 0.95, three missed payments, short tenure.
func BadApplicant() models.ApplicantInput {
	return models.ApplicantInput{
		ApplicantID:         "APP-002",
		Age:                 24,
		GenderCode:          2,
		CasteCode:           3,
		RegionCode:          1,
		EmploymentCode:      2,
		MonthlyIncome:       25000,
		IncomeStability:     0.3,
		AvgBalance:          5000,
		SavingsRatio:        0.05,
		ExpenseIncomeRatio:  0.8,
		UtilityPaymentScore: 60,
		RentPaymentScore:    70,
		UPITransactions:     30,
		UPIAvgAmount:        250,
		MobileRechargeFreq:  4,
		DigitalWalletUsage:  40,
		MerchantDiversity:   0.3,
		CreditLines:         1,
		CreditTenureMonths:  10,
		MissedPayments:      3,
		AvgDaysPastDue:      15,
		CreditUtilization:   0.95,
		ConsentGiven:        1,
		DocumentVerified:    1,
	}
}

// ApplicantMap returns the applicant as a decoded JSON object.
func ApplicantMap(in models.ApplicantInput) map[string]interface{} {
	var out map[string]interface{}
	if err := json.Unmarshal(mustJSON(in), &out); err != nil {
		panic(err)
	}
	return out
}

func indexOf(name string) int {
	for i, n := range models.DefaultFeatureOrder {
		if n == name {
			return i
		}
	}
	panic("unknown feature " + name)
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
