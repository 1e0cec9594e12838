package artifacts_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/artifacts/artifacttest"
	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/common/logger"
	"credx-fairscore/internal/models"
	"credx-fairscore/pkg/registry"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func load(t *testing.T, files artifacttest.MapSource) (*artifacts.Bundle, artifacts.Diagnostics, error) {
	return artifacts.Load(context.Background(), files, registry.Default(), logger.NewTestLogger(t))
}

func statusOf(diags artifacts.Diagnostics, artifact string) string {
	for _, d := range diags {
		if d.Artifact == artifact {
			return d.Status
		}
	}
	return ""
}

// ==========================
// Loader Tests
// ==========================

func TestLoad_StockFixture(t *testing.T) {
	b, diags, err := load(t, artifacttest.Files())
	require.NoError(t, err)
	assert.False(t, diags.Fatal())

	assert.Equal(t, 27, b.Scaler.NFeatures())
	assert.Nil(t, b.IncomeModel)
	assert.Equal(t, artifacts.StatusMissing, statusOf(diags, "income_model"))
	require.Len(t, b.Scorers, 2)

	primary, ok := b.Primary()
	require.True(t, ok)
	assert.Equal(t, "Region-Aware XGBoost", primary.Name)
	assert.Equal(t, 35, primary.Model.NFeatures())
}

func TestLoad_WithIncomeModel(t *testing.T) {
	files := artifacttest.Files()
	files["income_verification_model.json"] = artifacttest.LinearIncomeModel(900000)

	b, diags, err := load(t, files)
	require.NoError(t, err)
	require.NotNil(t, b.IncomeModel)
	assert.Equal(t, artifacts.StatusLoaded, statusOf(diags, "income_model"))
}

func TestLoad_FatalArtifacts(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(files artifacttest.MapSource)
		wantCode errors.ErrorCode
		artifact string
	}{
		{
			name:     "scaler width is not 27",
			mutate:   func(f artifacttest.MapSource) { f["feature_scaler.json"] = artifacttest.IdentityScaler(26) },
			wantCode: errors.ErrCodeArtifactMismatch,
			artifact: "scaler",
		},
		{
			name:     "schema missing",
			mutate:   func(f artifacttest.MapSource) { delete(f, "feature_names.json") },
			wantCode: errors.ErrCodeArtifactNotFound,
			artifact: "feature_schema",
		},
		{
			name: "region encoder missing",
			mutate: func(f artifacttest.MapSource) {
				f["label_encoders.json"] = []byte(`{"employment_type":{"classes":["Salaried"]}}`)
			},
			wantCode: errors.ErrCodeArtifactMismatch,
			artifact: "label_encoders",
		},
		{
			name:     "primary scorer has wrong width",
			mutate:   func(f artifacttest.MapSource) { f["xgb_region_aware.json"] = artifacttest.Logistic(30) },
			wantCode: errors.ErrCodePrimaryModelUnavailable,
			artifact: "Region-Aware XGBoost",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := artifacttest.Files()
			tt.mutate(files)

			b, diags, err := load(t, files)
			require.Error(t, err)
			assert.Nil(t, b)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
			assert.True(t, diags.Fatal())
			assert.Equal(t, artifacts.StatusFatal, diags[len(diags)-1].Status)
			assert.Equal(t, tt.artifact, diags[len(diags)-1].Artifact)
		})
	}
}

func TestLoad_ComparisonScorerDisabled(t *testing.T) {
	files := artifacttest.Files()
	files["fair_xgb.json"] = artifacttest.Logistic(35)

	b, diags, err := load(t, files)
	require.NoError(t, err)
	require.Len(t, b.Scorers, 1)
	assert.Equal(t, artifacts.StatusDisabled, statusOf(diags, "Fair XGBoost"))
}

func TestLoad_RegionCountWarning(t *testing.T) {
	files := artifacttest.Files()
	files["label_encoders.json"] = []byte(`{"region":{"classes":["North","South","East"]},"employment_type":{"classes":["Salaried"]}}`)

	_, diags, err := load(t, files)
	require.NoError(t, err)

	var warnings []string
	for _, d := range diags {
		if d.Status == artifacts.StatusWarning {
			warnings = append(warnings, d.Message)
		}
	}
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "3 classes")
	assert.Contains(t, warnings[1], "not sorted")
}

func TestLoad_UnknownSchemaFeatureWarning(t *testing.T) {
	names := append([]string(nil), models.DefaultFeatureOrder...)
	names[len(names)-1] = "sim_swap_score"
	data, err := json.Marshal(map[string][]string{"all_features": names})
	require.NoError(t, err)

	files := artifacttest.Files()
	files[registry.Default().FeatureSchema] = data

	b, diags, err := load(t, files)
	require.NoError(t, err)
	require.NotNil(t, b)

	var warnings []string
	for _, d := range diags {
		if d.Artifact == "feature_schema" && d.Status == artifacts.StatusWarning {
			warnings = append(warnings, d.Message)
		}
	}
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "sim_swap_score")
}

// ==========================
// Source Tests
// ==========================

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	for name, data := range artifacttest.Files() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	src := artifacts.NewFileSource(dir)

	b, _, err := artifacts.Load(context.Background(), src, registry.Default(), logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Len(t, b.Scorers, 2)

	_, err = src.Fetch(context.Background(), "../../etc/passwd")
	assert.True(t, errors.HasCode(err, errors.ErrCodeArtifactNotFound))
}

func TestRedisSource_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	for name, data := range artifacttest.Files() {
		require.NoError(t, mr.Set("credx:artifact:"+name, string(data)))
	}
	src := artifacts.NewRedisSource(client, "credx:artifact:")

	b, _, err := artifacts.Load(context.Background(), src, registry.Default(), logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Len(t, b.Scorers, 2)

	_, err = src.Fetch(context.Background(), "absent.json")
	assert.True(t, errors.HasCode(err, errors.ErrCodeArtifactNotFound))
}

func TestRedisSource_StoreError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("feature_names.json").SetErr(assert.AnError)

	src := artifacts.NewRedisSource(client, "")
	_, err := src.Fetch(context.Background(), "feature_names.json")
	require.Error(t, err)

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeArtifactStoreFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	src, err := artifacts.NewPostgresSource(db, "")
	require.NoError(t, err)

	payload := artifacttest.Files()["feature_names.json"]
	mock.ExpectQuery(`SELECT payload FROM model_artifacts WHERE name = \$1 ORDER BY version DESC LIMIT 1`).
		WithArgs("feature_names.json").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))
	mock.ExpectQuery(`SELECT payload FROM model_artifacts`).
		WithArgs("absent.json").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))
	mock.ExpectQuery(`SELECT payload FROM model_artifacts`).
		WithArgs("broken.json").
		WillReturnError(assert.AnError)

	data, err := src.Fetch(context.Background(), "feature_names.json")
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = src.Fetch(context.Background(), "absent.json")
	assert.True(t, errors.HasCode(err, errors.ErrCodeArtifactNotFound))

	_, err = src.Fetch(context.Background(), "broken.json")
	assert.True(t, errors.HasCode(err, errors.ErrCodeArtifactStoreFailed))

	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = artifacts.NewPostgresSource(db, "artifacts; DROP TABLE x")
	assert.Error(t, err)
}
