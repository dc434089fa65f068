package config

import (
	"github.com/kilianp07/rideshare/core/dispatch"
	"github.com/kilianp07/rideshare/core/model"
)

// GridConfig describes the service area and where the vehicle starts.
type GridConfig struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Origin model.Point `json:"origin"`
}

// SetDefaults applies the 10x10 grid used by the classic simulator.
func (g *GridConfig) SetDefaults() {
	def := dispatch.DefaultConfig()
	if g.Width == 0 {
		g.Width = def.Grid.Width
	}
	if g.Height == 0 {
		g.Height = def.Grid.Height
	}
}

// Validate checks the dimensions and the origin.
func (g GridConfig) Validate() error { return g.Dispatch().Validate() }

// Dispatch converts the section into dispatcher settings.
func (g GridConfig) Dispatch() dispatch.Config {
	return dispatch.Config{
		Grid:   model.Grid{Width: g.Width, Height: g.Height},
		Origin: g.Origin,
	}
}
