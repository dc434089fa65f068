// Package config loads the application settings from a YAML or JSON file
// with environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/kilianp07/rideshare/core/metrics"
	"github.com/kilianp07/rideshare/core/steplog"
	"github.com/kilianp07/rideshare/infra/mqtt"
	"github.com/kilianp07/rideshare/scenario"
	"github.com/kilianp07/rideshare/simulator"
)

// EnvPrefix marks environment overrides. RS_SIMULATION__MAX_STEPS=50 sets
// simulation.max_steps.
const EnvPrefix = "RS_"

type Config struct {
	Grid       GridConfig            `json:"grid"`
	Simulation simulator.Config      `json:"simulation"`
	Random     scenario.RandomConfig `json:"random"`
	StepLog    steplog.Config        `json:"step_log"`
	Metrics    metrics.Config        `json:"metrics"`
	MQTT       mqtt.Config           `json:"mqtt"`
	Sentry     SentryConfig          `json:"sentry"`
	API        APIConfig             `json:"api"`
	LogLevel   string                `json:"log_level"`
}

// Load reads path and applies environment overrides. An empty path yields
// the defaults plus whatever the environment sets.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Grid.SetDefaults()
	c.Simulation.SetDefaults()
	c.Random.SetDefaults()
	c.StepLog.SetDefaults()
	c.MQTT.SetDefaults()
	c.API.SetDefaults()
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks every section and reports the first failure.
func (c Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Random.Validate(); err != nil {
		return fmt.Errorf("random: %w", err)
	}
	if err := c.StepLog.Validate(); err != nil {
		return fmt.Errorf("step_log: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}
