// internal/scoring/vector.go
package scoring

import (
	"fmt"

	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/models"
	"credx-fairscore/pkg/registry"
)

// Stock layout widths with five region classes.
const (
	RegionAwareWidth = 35
	FairWidth        = 30
)

// extras are verified income, region code and employment code.
const extraColumns = 3

// Assembler builds scorer input vectors from engineered features.
type Assembler struct {
	schema   *artifacts.FeatureSchema
	scaler   *artifacts.StandardScaler
	encoders artifacts.LabelEncoders
}

// NewAssembler checks the scaler and schema agree on the base width.
func NewAssembler(schema *artifacts.FeatureSchema, scaler *artifacts.StandardScaler, encoders artifacts.LabelEncoders) (*Assembler, error) {
	if scaler.NFeatures() != models.BaseFeatureCount {
		return nil, errors.NewArtifactMismatchError("scaler",
			fmt.Sprintf("scaler expects %d features, pipeline builds %d", scaler.NFeatures(), models.BaseFeatureCount))
	}
	if schema.Len() != models.BaseFeatureCount {
		return nil, errors.NewArtifactMismatchError("feature_schema",
			fmt.Sprintf("schema lists %d features, pipeline builds %d", schema.Len(), models.BaseFeatureCount))
	}
	if encoders.Region() == nil || encoders.Employment() == nil {
		return nil, errors.NewArtifactMismatchError("label_encoders", "region and employment_type encoders are required")
	}
	return &Assembler{schema: schema, scaler: scaler, encoders: encoders}, nil
}

// Width returns the vector width the layout produces.
func (a *Assembler) Width(layout string) int {
	w := models.BaseFeatureCount + extraColumns
	if layout == registry.LayoutRegionAware {
		w += a.encoders.Region().Len()
	}
	return w
}

// Assemble returns [scaled-27, verified income, region code, employment code]
// and, for the region-aware layout, the one-hot region block.
func (a *Assembler) Assemble(f *models.EngineeredFeatures, region, employment, layout string) ([]float64, error) {
	if layout != registry.LayoutRegionAware && layout != registry.LayoutFair {
		return nil, fmt.Errorf("unknown vector layout %q", layout)
	}

	scaled, err := a.scaler.Transform(f.Vector(a.schema.Features))
	if err != nil {
		return nil, err
	}
	regionCode, err := a.encoders.Region().Transform(region)
	if err != nil {
		return nil, err
	}
	employmentCode, err := a.encoders.Employment().Transform(employment)
	if err != nil {
		return nil, err
	}

	vec := make([]float64, 0, a.Width(layout))
	vec = append(vec, scaled...)
	vec = append(vec, f.VerifiedIncomeFromIVL, float64(regionCode), float64(employmentCode))

	if layout == registry.LayoutRegionAware {
		// The one-hot position is the encoder code itself.
		oneHot := make([]float64, a.encoders.Region().Len())
		if regionCode >= 0 && regionCode < len(oneHot) {
			oneHot[regionCode] = 1
		}
		vec = append(vec, oneHot...)
	}
	return vec, nil
}
