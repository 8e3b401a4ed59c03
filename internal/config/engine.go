package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"budgetpace/internal/alerts"
	"budgetpace/internal/generator"
	"budgetpace/internal/health"
	"budgetpace/internal/rollover"
	"budgetpace/internal/seasonal"
	"budgetpace/internal/velocity"
)

// EngineConfig holds the tunable constants of the budget engine. It is
// passed explicitly into services; nothing reads it globally.
type EngineConfig struct {
	Alerts    alerts.Params    `toml:"alerts"`
	Velocity  velocity.Params  `toml:"velocity"`
	Health    health.Params    `toml:"health"`
	Seasonal  seasonal.Params  `toml:"seasonal"`
	Generator generator.Params `toml:"generator"`
	Rollover  rollover.Params  `toml:"rollover"`
}

// DefaultEngineConfig returns the production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Alerts:    alerts.DefaultParams(),
		Velocity:  velocity.DefaultParams(),
		Health:    health.DefaultParams(),
		Seasonal:  seasonal.DefaultParams(),
		Generator: generator.DefaultParams(),
		Rollover:  rollover.DefaultParams(),
	}
}

// LoadEngine decodes the TOML file at path over the defaults. An empty path
// or a missing file yields the defaults.
func LoadEngine(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading engine config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing engine config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c EngineConfig) Validate() error {
	switch {
	case c.Rollover.MaxLookbackPeriods < 1:
		return fmt.Errorf("rollover.max_lookback_periods must be at least 1")
	case c.Rollover.CloseRetries < 0:
		return fmt.Errorf("rollover.close_retries must not be negative")
	case c.Seasonal.Threshold <= 1:
		return fmt.Errorf("seasonal.threshold must be greater than 1")
	case c.Seasonal.MinYears < 1:
		return fmt.Errorf("seasonal.min_years must be at least 1")
	case c.Generator.MinMonths < 1:
		return fmt.Errorf("generator.min_months must be at least 1")
	case c.Health.ExcellentAt < c.Health.GoodAt || c.Health.GoodAt < c.Health.NeedsAttentionAt:
		return fmt.Errorf("health label cut points must be descending")
	case c.Alerts.DefaultWarnPercent > c.Alerts.DefaultCriticalPercent:
		return fmt.Errorf("alerts.default_warn_percent must not exceed default_critical_percent")
	}
	return nil
}
