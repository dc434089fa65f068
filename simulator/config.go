package simulator

import (
	"fmt"
	"time"
)

// Reject policies applied when the dispatcher refuses a request.
const (
	RejectAbort = "abort"
	RejectSkip  = "skip"
)

// Config controls the simulation loop.
type Config struct {
	// MaxSteps bounds the run. Zero means no bound.
	MaxSteps int `json:"max_steps"`
	// StepIntervalMS paces the loop in wall-clock time. Zero runs flat out.
	StepIntervalMS int `json:"step_interval_ms"`
	// RejectPolicy is "abort" or "skip".
	RejectPolicy string `json:"reject_policy"`
	// RenderGrid enables the ASCII grid reporter.
	RenderGrid bool `json:"render_grid"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.RejectPolicy == "" {
		c.RejectPolicy = RejectAbort
	}
	if c.MaxSteps == 0 {
		c.MaxSteps = 10000
	}
}

// Validate checks the loop settings.
func (c Config) Validate() error {
	if c.RejectPolicy != RejectAbort && c.RejectPolicy != RejectSkip {
		return fmt.Errorf("unknown reject_policy %q", c.RejectPolicy)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative")
	}
	if c.StepIntervalMS < 0 {
		return fmt.Errorf("step_interval_ms must not be negative")
	}
	return nil
}

// StepInterval returns the pacing delay between steps.
func (c Config) StepInterval() time.Duration {
	return time.Duration(c.StepIntervalMS) * time.Millisecond
}
