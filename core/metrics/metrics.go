package metrics

import (
	"time"

	"github.com/kilianp07/rideshare/core/model"
)

// StepSample summarises the dispatcher state after one time step.
type StepSample struct {
	RunID         string
	Step          int
	Time          time.Time
	Vehicle       model.Point
	Active        int
	Waiting       int
	InVehicle     int
	PickedUp      int
	DroppedOff    int
	TargetChanged bool
}

// MetricsSink records simulation samples for observability purposes.
type MetricsSink interface {
	RecordStep(s StepSample) error
}

// TripSample describes a completed trip.
type TripSample struct {
	RunID       string
	Passenger   string
	Unhappiness float64
	Duration    int
	Time        time.Time
}

// TripRecorder records completed trips.
type TripRecorder interface {
	RecordTrip(t TripSample) error
}

// RejectionSample describes a refused ride request.
type RejectionSample struct {
	RunID     string
	Step      int
	Passenger string
	Kind      string
	Time      time.Time
}

// RejectionRecorder records refused requests.
type RejectionRecorder interface {
	RecordRejection(r RejectionSample) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordStep(StepSample) error           { return nil }
func (NopSink) RecordTrip(TripSample) error           { return nil }
func (NopSink) RecordRejection(RejectionSample) error { return nil }

// RecordTrip forwards t to sink when it implements TripRecorder.
func RecordTrip(sink MetricsSink, t TripSample) error {
	if r, ok := sink.(TripRecorder); ok {
		return r.RecordTrip(t)
	}
	return nil
}

// RecordRejection forwards r to sink when it implements RejectionRecorder.
func RecordRejection(sink MetricsSink, r RejectionSample) error {
	if rec, ok := sink.(RejectionRecorder); ok {
		return rec.RecordRejection(r)
	}
	return nil
}
