package dispatch

import (
	"fmt"

	"github.com/kilianp07/rideshare/core/model"
)

// Config defines the grid and starting position of the vehicle.
type Config struct {
	Grid   model.Grid  `json:"grid"`
	Origin model.Point `json:"origin"`
}

// DefaultConfig returns a 10x10 grid with the vehicle at (0,0).
func DefaultConfig() Config {
	return Config{Grid: model.Grid{Width: 10, Height: 10}}
}

// Validate checks the grid dimensions and that the origin lies inside it.
func (c Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if !c.Grid.Contains(c.Origin) {
		return fmt.Errorf("vehicle origin %s outside %dx%d grid", c.Origin, c.Grid.Width, c.Grid.Height)
	}
	return nil
}
