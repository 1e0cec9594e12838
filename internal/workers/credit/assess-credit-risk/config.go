// internal/workers/credit/assess-credit-risk/config.go
package assesscreditrisk

import (
	"fmt"
	"time"

	"credx-fairscore/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	MaxRetries    int
	// PublishDecisions sends a decision event after each successful assessment.
	PublishDecisions bool
}

func LoadConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		MaxRetries:    3,
	}
}

// ConfigFromApp builds the worker config from its entry under workers.
func ConfigFromApp(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Enabled:          wc.Enabled,
		MaxJobsActive:    wc.MaxJobsActive,
		Timeout:          config.GetDuration(wc.Timeout),
		MaxRetries:       wc.MaxRetries,
		PublishDecisions: cfg.Notifications.SNS.Enabled,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max jobs active must be positive")
	}
	return nil
}
