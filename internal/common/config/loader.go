// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default task type and model names.
const (
	AssessCreditRiskTask   = "assess-credit-risk"
	DefaultPrimaryModel    = "Region-Aware XGBoost"
	DefaultComparisonModel = "Fair XGBoost"
	DefaultThreshold       = 0.60
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// base config, then the environment overlay
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// booleans that default to true cannot be detected after unmarshal
	v.SetDefault("camunda.enabled", true)
	v.SetDefault("scoring.parallel_scorers", true)
	v.SetDefault("workers."+AssessCreditRiskTask+".enabled", true)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "credx-fairscore"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"http://localhost", "http://localhost:5173"}
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}

	// Scoring defaults
	if cfg.Scoring.Threshold == 0 {
		cfg.Scoring.Threshold = DefaultThreshold
	}
	if cfg.Scoring.PrimaryModel == "" {
		cfg.Scoring.PrimaryModel = DefaultPrimaryModel
	}
	if cfg.Scoring.ComparisonModel == "" {
		cfg.Scoring.ComparisonModel = DefaultComparisonModel
	}

	// Artifact source defaults
	if cfg.Artifacts.Source == "" {
		cfg.Artifacts.Source = ArtifactSourceFile
	}
	if cfg.Artifacts.Source == ArtifactSourceFile && cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = "./models"
	}
	if cfg.Artifacts.Redis.KeyPrefix == "" {
		cfg.Artifacts.Redis.KeyPrefix = "credx:artifacts:"
	}
	if cfg.Artifacts.Postgres.Port == 0 {
		cfg.Artifacts.Postgres.Port = 5432
	}
	if cfg.Artifacts.Postgres.MaxConnections == 0 {
		cfg.Artifacts.Postgres.MaxConnections = 25
	}
	if cfg.Artifacts.Postgres.MaxIdle == 0 {
		cfg.Artifacts.Postgres.MaxIdle = 5
	}
	if cfg.Artifacts.Postgres.SSLMode == "" {
		cfg.Artifacts.Postgres.SSLMode = "disable"
	}
	if cfg.Artifacts.Postgres.Table == "" {
		cfg.Artifacts.Postgres.Table = "model_artifacts"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Notifications.SNS.Region == "" {
		cfg.Notifications.SNS.Region = "ap-south-1"
	}

	if cfg.Workers == nil {
		cfg.Workers = map[string]WorkerConfig{}
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Scoring.Threshold <= 0 || cfg.Scoring.Threshold >= 1 {
		return fmt.Errorf("scoring.threshold must be between 0 and 1, got %v", cfg.Scoring.Threshold)
	}

	switch cfg.Artifacts.Source {
	case ArtifactSourceFile:
		if cfg.Artifacts.Dir == "" {
			return fmt.Errorf("artifacts.dir is required")
		}
	case ArtifactSourceRedis:
		if cfg.Artifacts.Redis.Address == "" {
			return fmt.Errorf("artifacts.redis.address is required")
		}
	case ArtifactSourcePostgres:
		if cfg.Artifacts.Postgres.Host == "" {
			return fmt.Errorf("artifacts.postgres.host is required")
		}
		if cfg.Artifacts.Postgres.Database == "" {
			return fmt.Errorf("artifacts.postgres.database is required")
		}
		if cfg.Artifacts.Postgres.User == "" {
			return fmt.Errorf("artifacts.postgres.user is required")
		}
	default:
		return fmt.Errorf("artifacts.source %q is not one of file, redis, postgres", cfg.Artifacts.Source)
	}

	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when sns is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
