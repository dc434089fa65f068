package events

import (
	"time"

	"github.com/kilianp07/rideshare/core/dispatch"
	"github.com/kilianp07/rideshare/core/model"
)

// StepEvent is published after every dispatcher step.
type StepEvent struct {
	RunID      string                   `json:"run_id"`
	Step       int                      `json:"step"`
	Time       time.Time                `json:"time"`
	Vehicle    model.Point              `json:"vehicle"`
	Target     string                   `json:"target,omitempty"`
	InVehicle  []string                 `json:"in_vehicle"`
	PickedUp   []string                 `json:"picked_up"`
	DroppedOff []string                 `json:"dropped_off"`
	Active     []dispatch.TripView      `json:"active"`
	Stats      dispatch.Statistics      `json:"stats"`
	Completed  []dispatch.CompletedTrip `json:"completed,omitempty"`
}

// RejectedEvent is published when a ride request is refused.
type RejectedEvent struct {
	RunID  string    `json:"run_id"`
	Step   int       `json:"step"`
	Name   string    `json:"name"`
	Kind   string    `json:"kind"`
	Reason string    `json:"reason"`
	Time   time.Time `json:"time"`
}

// RunPhase tells whether a run starts or ends.
type RunPhase string

const (
	RunStarted  RunPhase = "started"
	RunFinished RunPhase = "finished"
)

// RunEvent marks the boundaries of a simulation run.
type RunEvent struct {
	RunID string              `json:"run_id"`
	Phase RunPhase            `json:"phase"`
	Steps int                 `json:"steps"`
	Stats dispatch.Statistics `json:"stats"`
	Err   string              `json:"error,omitempty"`
	Time  time.Time           `json:"time"`
}
