package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credx-fairscore/internal/artifacts/artifacttest"
	"credx-fairscore/internal/common/config"
	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/common/logger"
)

var fastRetry = RetryPolicy{Attempts: 3, InitialDelay: time.Millisecond}

func writeFixture(t *testing.T, files artifacttest.MapSource) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	return dir
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Scoring: config.ScoringConfig{
			Threshold:       config.DefaultThreshold,
			PrimaryModel:    config.DefaultPrimaryModel,
			ComparisonModel: config.DefaultComparisonModel,
			ParallelScorers: true,
		},
		Artifacts: config.ArtifactsConfig{Source: config.ArtifactSourceFile, Dir: dir},
	}
}

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewTestLogger(t)

	t.Run("succeeds on third attempt", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastRetry, log, "op", func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("not yet")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), fastRetry, log, "op", func() error {
			calls++
			return fmt.Errorf("down")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, "op failed after 3 attempts: down", err.Error())
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryWithBackoff(ctx, RetryPolicy{Attempts: 5, InitialDelay: time.Hour}, log, "op", func() error {
			return fmt.Errorf("down")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBootstrap_FileSource(t *testing.T) {
	cfg := testConfig(writeFixture(t, artifacttest.Files()))
	cfg.Scoring.PrimaryModel = "Region-Aware v2"

	engine, diags, closeFn, err := Bootstrap(context.Background(), cfg, fastRetry, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer closeFn()

	assert.False(t, diags.Fatal())
	assert.Equal(t, "Region-Aware v2", engine.Primary())
	assert.Equal(t, []string{"Region-Aware v2", config.DefaultComparisonModel}, engine.Scorers())
	assert.Equal(t, 0.6, engine.Threshold())

	in := artifacttest.GoodApplicant()
	rep, err := engine.Assess(context.Background(), &in)
	require.NoError(t, err)
	assert.Equal(t, 702, rep.FinalDecision.CreditScore)
}

func TestBootstrap_MissingArtifact(t *testing.T) {
	files := artifacttest.Files()
	delete(files, "feature_scaler.json")

	_, diags, closeFn, err := Bootstrap(context.Background(), testConfig(writeFixture(t, files)), fastRetry, logger.NewNoOpLogger())
	require.Error(t, err)
	defer closeFn()
	assert.True(t, errors.HasCode(err, errors.ErrCodeArtifactNotFound))
	assert.True(t, diags.Fatal())
}

func TestOpenSource_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	for name, data := range artifacttest.Files() {
		require.NoError(t, mr.Set("credx:artifacts:"+name, string(data)))
	}

	cfg := testConfig("")
	cfg.Artifacts.Source = config.ArtifactSourceRedis
	cfg.Artifacts.Redis = config.RedisConfig{Address: mr.Addr(), KeyPrefix: "credx:artifacts:"}

	engine, _, closeFn, err := Bootstrap(context.Background(), cfg, fastRetry, logger.NewNoOpLogger())
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, config.DefaultPrimaryModel, engine.Primary())
}

func TestOpenSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ArtifactsConfig
	}{
		{"unknown source", config.ArtifactsConfig{Source: "s3"}},
		{"redis without address", config.ArtifactsConfig{Source: config.ArtifactSourceRedis}},
		{"redis unreachable", config.ArtifactsConfig{
			Source: config.ArtifactSourceRedis,
			Redis:  config.RedisConfig{Address: "127.0.0.1:1"},
		}},
		{"postgres bad table", config.ArtifactsConfig{
			Source:   config.ArtifactSourcePostgres,
			Postgres: config.PostgresConfig{Host: "127.0.0.1", Port: 1, Database: "x", User: "x", SSLMode: "disable", Table: "drop table"},
		}},
	}

	policy := RetryPolicy{Attempts: 1}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, closeFn, err := OpenSource(context.Background(), tt.cfg, policy, logger.NewNoOpLogger())
			assert.Error(t, err)
			assert.Nil(t, src)
			assert.NotNil(t, closeFn)
		})
	}
}
