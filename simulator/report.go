package simulator

import (
	"time"

	"github.com/kilianp07/rideshare/core/dispatch"
	"github.com/kilianp07/rideshare/core/model"
)

// Rejection describes a request the dispatcher refused.
type Rejection struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// StepReport is handed to every Reporter after a step.
type StepReport struct {
	RunID     string      `json:"run_id"`
	Time      int         `json:"time"`
	Timestamp time.Time   `json:"timestamp"`
	Grid      model.Grid  `json:"grid"`
	Vehicle   model.Point `json:"vehicle"`
	// InVehicle lists the passengers on board before the step was taken.
	InVehicle     []string                 `json:"in_vehicle"`
	PickedUp      []string                 `json:"picked_up"`
	DroppedOff    []string                 `json:"dropped_off"`
	Completed     []dispatch.CompletedTrip `json:"completed,omitempty"`
	Target        string                   `json:"target,omitempty"`
	TargetChanged bool                     `json:"target_changed"`
	Active        []dispatch.TripView      `json:"active"`
	Stats         dispatch.Statistics      `json:"stats"`
	Rejected      []Rejection              `json:"rejected,omitempty"`
}

// Reporter observes a run step by step.
type Reporter interface {
	Step(r StepReport) error
	Finish(s Summary) error
}
