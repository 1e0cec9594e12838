package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/artifacts/artifacttest"
	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/models"
	"credx-fairscore/pkg/registry"
)

func newTestAssembler(t *testing.T) *Assembler {
	b := artifacttest.Bundle(t)
	a, err := NewAssembler(b.Schema, b.Scaler, b.Encoders)
	require.NoError(t, err)
	return a
}

func TestAssembler_Widths(t *testing.T) {
	a := newTestAssembler(t)
	assert.Equal(t, RegionAwareWidth, a.Width(registry.LayoutRegionAware))
	assert.Equal(t, FairWidth, a.Width(registry.LayoutFair))

	for _, in := range []models.ApplicantInput{artifacttest.GoodApplicant(), artifacttest.BadApplicant()} {
		f := EngineerFeatures(&in)
		cats, err := DecodeApplicant(&in)
		require.NoError(t, err)

		wide, err := a.Assemble(f, cats.Region, cats.Employment, registry.LayoutRegionAware)
		require.NoError(t, err)
		assert.Len(t, wide, RegionAwareWidth)

		narrow, err := a.Assemble(f, cats.Region, cats.Employment, registry.LayoutFair)
		require.NoError(t, err)
		assert.Len(t, narrow, FairWidth)
		assert.Equal(t, wide[:FairWidth], narrow)
	}
}

func TestAssembler_Layout(t *testing.T) {
	a := newTestAssembler(t)
	in := artifacttest.GoodApplicant()
	f := EngineerFeatures(&in)
	f.VerifiedIncomeFromIVL = 1234

	vec, err := a.Assemble(f, "South", "Salaried", registry.LayoutRegionAware)
	require.NoError(t, err)

	// identity scaler: the prefix is the raw base features
	assert.Equal(t, f.Vector(models.DefaultFeatureOrder), vec[:27])
	assert.Equal(t, 1234.0, vec[27])
	assert.Equal(t, 3.0, vec[28], "South is the fourth sorted region class")
	assert.Equal(t, 1.0, vec[29], "Salaried is the second sorted employment class")
	assert.Equal(t, []float64{0, 0, 0, 1, 0}, vec[30:])
}

func TestAssembler_Errors(t *testing.T) {
	a := newTestAssembler(t)
	in := artifacttest.GoodApplicant()
	f := EngineerFeatures(&in)

	_, err := a.Assemble(f, "Atlantis", "Salaried", registry.LayoutFair)
	assert.Error(t, err)

	_, err = a.Assemble(f, "South", "Salaried", "diagonal")
	assert.Error(t, err)
}

func TestNewAssembler_ScalerWidth(t *testing.T) {
	b := artifacttest.Bundle(t)
	scaler, err := artifacts.ParseStandardScaler(artifacttest.IdentityScaler(26))
	require.NoError(t, err)

	_, err = NewAssembler(b.Schema, scaler, b.Encoders)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeArtifactMismatch))
}
