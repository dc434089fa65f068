package scenario

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/kilianp07/rideshare/core/model"
)

// RandomConfig controls the random request generator.
type RandomConfig struct {
	// RosterSize is the number of distinct passengers that may request rides.
	RosterSize int `json:"roster_size"`
	// Odds gives each idle passenger a 1-in-Odds chance to request a ride
	// on every step.
	Odds int `json:"odds"`
	// Steps is the number of steps during which requests are generated.
	Steps int `json:"steps"`
	// Seed makes runs reproducible. Zero picks a time based seed.
	Seed int64 `json:"seed"`
}

// SetDefaults applies the classic setup: ten passengers, one chance in
// twenty-five per step.
func (c *RandomConfig) SetDefaults() {
	if c.RosterSize == 0 {
		c.RosterSize = 10
	}
	if c.Odds == 0 {
		c.Odds = 25
	}
	if c.Steps == 0 {
		c.Steps = 100
	}
}

// Validate checks the generator settings.
func (c RandomConfig) Validate() error {
	if c.RosterSize < 1 || c.RosterSize > 26 {
		return fmt.Errorf("roster_size must be between 1 and 26, got %d", c.RosterSize)
	}
	if c.Odds < 1 {
		return fmt.Errorf("odds must be positive, got %d", c.Odds)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", c.Steps)
	}
	return nil
}

// RandomSource generates requests for a fixed roster of passengers named
// "A", "B", ... Passengers with an active trip never request another ride.
type RandomSource struct {
	cfg    RandomConfig
	grid   model.Grid
	rng    *rand.Rand
	roster []string
	step   int
}

// NewRandomSource validates cfg and returns a generator over grid.
func NewRandomSource(cfg RandomConfig, grid model.Grid) (*RandomSource, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	roster := make([]string, cfg.RosterSize)
	for i := range roster {
		roster[i] = string(rune('A' + i))
	}
	return &RandomSource{
		cfg:    cfg,
		grid:   grid,
		rng:    rand.New(rand.NewSource(seed)),
		roster: roster,
	}, nil
}

// Roster returns the passenger names in generation order.
func (s *RandomSource) Roster() []string { return append([]string(nil), s.roster...) }

// Next draws the requests of the following step.
func (s *RandomSource) Next(active ActivityChecker) (Batch, bool) {
	if s.step >= s.cfg.Steps {
		return Batch{}, false
	}
	b := Batch{Step: s.step}
	s.step++
	for _, name := range s.roster {
		if active != nil && active.IsPassengerActive(name) {
			continue
		}
		if s.rng.Intn(s.cfg.Odds) != 0 {
			continue
		}
		start := s.point()
		end := s.point()
		if start == end {
			continue
		}
		b.Requests = append(b.Requests, Request{Name: name, Start: start, End: end})
	}
	return b, true
}

func (s *RandomSource) point() model.Point {
	return model.Point{X: s.rng.Intn(s.grid.Width), Y: s.rng.Intn(s.grid.Height)}
}
