package dispatch

import "github.com/kilianp07/rideshare/core/model"

// Axis is the vehicle's persisted preference for which axis to close first.
type Axis int

const (
	// AxisUnset marks a vehicle that has not been advanced yet.
	AxisUnset Axis = iota
	AxisHorizontal
	AxisVertical
)

func (a Axis) String() string {
	switch a {
	case AxisHorizontal:
		return "horizontal"
	case AxisVertical:
		return "vertical"
	default:
		return "unset"
	}
}

// Vehicle moves one grid cell per step towards a goal.
type Vehicle struct {
	pos  model.Point
	axis Axis
}

// NewVehicle places a vehicle at origin with no active axis.
func NewVehicle(origin model.Point) *Vehicle {
	return &Vehicle{pos: origin}
}

// Position returns the current cell.
func (v *Vehicle) Position() model.Point { return v.pos }

// Axis returns the currently active motion axis.
func (v *Vehicle) Axis() Axis { return v.axis }

// Advance moves the vehicle at most one cell towards goal. The very first
// call only activates the horizontal axis and does not move. The vehicle keeps
// closing its active axis until that component reaches zero, then flips.
func (v *Vehicle) Advance(goal *model.Point) {
	if v.axis == AxisUnset {
		v.axis = AxisHorizontal
		return
	}
	if goal == nil {
		return
	}
	delta := goal.Sub(v.pos)
	if delta.IsZero() {
		return
	}
	// Two axes, so at most one flip is ever needed.
	for i := 0; i < 2; i++ {
		switch v.axis {
		case AxisHorizontal:
			if delta.X != 0 {
				v.pos.X += sign(delta.X)
				return
			}
			v.axis = AxisVertical
		case AxisVertical:
			if delta.Y != 0 {
				v.pos.Y += sign(delta.Y)
				return
			}
			v.axis = AxisHorizontal
		}
	}
}

func sign(v int) int {
	if v > 0 {
		return 1
	}
	return -1
}
