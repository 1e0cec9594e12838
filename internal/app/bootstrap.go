// Package app wires configuration into the artifact source, the model
// bundle and the scoring engine. Both the worker manager and the operator
// tools start through it.
package app

import (
	"context"
	"fmt"
	"time"

	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/common/config"
	"credx-fairscore/internal/common/database"
	"credx-fairscore/internal/common/logger"
	"credx-fairscore/internal/scoring"
	"credx-fairscore/pkg/registry"
)

// RetryPolicy bounds RetryWithBackoff.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
}

// DefaultRetryPolicy is used for store connections at startup.
var DefaultRetryPolicy = RetryPolicy{Attempts: 10, InitialDelay: 2 * time.Second}

// RetryWithBackoff runs operation until it succeeds, doubling the delay
// between attempts.
func RetryWithBackoff(ctx context.Context, policy RetryPolicy, log logger.Logger, operationName string, operation func() error) error {
	var err error
	delay := policy.InitialDelay
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxRetries":  attempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, err)
}

// OpenSource connects to the configured artifact store. The returned close
// function releases the connection and is never nil.
func OpenSource(ctx context.Context, cfg config.ArtifactsConfig, policy RetryPolicy, log logger.Logger) (artifacts.Source, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Source {
	case config.ArtifactSourceFile, "":
		return artifacts.NewFileSource(cfg.Dir), noop, nil

	case config.ArtifactSourceRedis:
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		if err := RetryWithBackoff(ctx, policy, log, "Redis connection", func() error { return rdb.Ping(ctx) }); err != nil {
			rdb.Close()
			return nil, noop, err
		}
		log.Info("Redis connected successfully", map[string]interface{}{"address": cfg.Redis.Address})
		return artifacts.NewRedisSource(rdb.Client, cfg.Redis.KeyPrefix), rdb.Close, nil

	case config.ArtifactSourcePostgres:
		pg, err := database.NewPostgres(cfg.Postgres)
		if err != nil {
			return nil, noop, err
		}
		if err := RetryWithBackoff(ctx, policy, log, "PostgreSQL connection", func() error { return pg.Ping(ctx) }); err != nil {
			pg.Close()
			return nil, noop, err
		}
		src, err := artifacts.NewPostgresSource(pg.DB, cfg.Postgres.Table)
		if err != nil {
			pg.Close()
			return nil, noop, err
		}
		log.Info("PostgreSQL connected successfully", map[string]interface{}{"host": cfg.Postgres.Host})
		return src, pg.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown artifact source %q", cfg.Source)
	}
}

// LoadRegistry reads the manifest and applies the configured scorer names.
func LoadRegistry(cfg *config.Config) (*registry.ModelRegistry, error) {
	reg, err := registry.LoadRegistry(cfg.Artifacts.RegistryPath)
	if err != nil {
		return nil, err
	}
	reg.Rename(registry.RolePrimary, cfg.Scoring.PrimaryModel)
	reg.Rename(registry.RoleComparison, cfg.Scoring.ComparisonModel)
	return reg, nil
}

// LoadBundle fetches and verifies every artifact and logs a summary.
func LoadBundle(ctx context.Context, src artifacts.Source, reg *registry.ModelRegistry, log logger.Logger) (*artifacts.Bundle, artifacts.Diagnostics, error) {
	bundle, diags, err := artifacts.Load(ctx, src, reg, log)
	if err != nil {
		return nil, diags, err
	}
	names := make([]string, len(bundle.Scorers))
	for i, s := range bundle.Scorers {
		names[i] = s.Name
	}
	log.Info("model bundle loaded", map[string]interface{}{
		"source":      src.Kind(),
		"scorers":     names,
		"incomeModel": bundle.IncomeModel != nil,
		"warnings":    len(diags) - countStatus(diags, artifacts.StatusLoaded),
	})
	return bundle, diags, nil
}

func countStatus(diags artifacts.Diagnostics, status string) int {
	n := 0
	for _, d := range diags {
		if d.Status == status {
			n++
		}
	}
	return n
}

// NewEngine builds the engine from a bundle using the scoring settings.
func NewEngine(bundle *artifacts.Bundle, cfg config.ScoringConfig, log logger.Logger) (*scoring.Engine, error) {
	return scoring.NewEngine(bundle, scoring.Options{
		Threshold: cfg.Threshold,
		Parallel:  cfg.ParallelScorers,
	}, log)
}

// Bootstrap opens the artifact source, loads the bundle and builds the engine.
func Bootstrap(ctx context.Context, cfg *config.Config, policy RetryPolicy, log logger.Logger) (*scoring.Engine, artifacts.Diagnostics, func() error, error) {
	src, closeSource, err := OpenSource(ctx, cfg.Artifacts, policy, log)
	if err != nil {
		return nil, nil, closeSource, err
	}
	reg, err := LoadRegistry(cfg)
	if err != nil {
		return nil, nil, closeSource, err
	}
	bundle, diags, err := LoadBundle(ctx, src, reg, log)
	if err != nil {
		return nil, diags, closeSource, err
	}
	engine, err := NewEngine(bundle, cfg.Scoring, log)
	if err != nil {
		return nil, diags, closeSource, err
	}
	return engine, diags, closeSource, nil
}
