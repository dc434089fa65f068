package mqtt

import (
	"encoding/json"

	"github.com/kilianp07/rideshare/core/dispatch"
	"github.com/kilianp07/rideshare/core/model"
	"github.com/kilianp07/rideshare/simulator"
)

// StateMessage is the payload published on the state topic.
type StateMessage struct {
	RunID      string              `json:"run_id"`
	Time       int                 `json:"time"`
	Timestamp  int64               `json:"timestamp"`
	Vehicle    model.Point         `json:"vehicle"`
	Target     string              `json:"target,omitempty"`
	InVehicle  []string            `json:"in_vehicle"`
	PickedUp   []string            `json:"picked_up,omitempty"`
	DroppedOff []string            `json:"dropped_off,omitempty"`
	Waiting    int                 `json:"waiting"`
	Stats      dispatch.Statistics `json:"stats"`
}

// StepPublisher reports a run over MQTT.
type StepPublisher struct {
	client *Client
}

// NewStepPublisher wraps a connected client.
func NewStepPublisher(c *Client) *StepPublisher { return &StepPublisher{client: c} }

// Step publishes the vehicle state after a step.
func (p *StepPublisher) Step(r simulator.StepReport) error {
	waiting := 0
	for _, t := range r.Active {
		if t.State == dispatch.TripWaiting.String() {
			waiting++
		}
	}
	msg := StateMessage{
		RunID:      r.RunID,
		Time:       r.Time,
		Timestamp:  r.Timestamp.UnixMilli(),
		Vehicle:    r.Vehicle,
		Target:     r.Target,
		InVehicle:  r.InVehicle,
		PickedUp:   r.PickedUp,
		DroppedOff: r.DroppedOff,
		Waiting:    waiting,
		Stats:      r.Stats,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.client.Publish(p.client.Topic(r.RunID, "state"), true, payload)
}

// Finish publishes the run summary.
func (p *StepPublisher) Finish(s simulator.Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.client.Publish(p.client.Topic(s.RunID, "summary"), true, payload)
}
