// Package steplog persists an audit trail of simulation steps. Each record
// captures the vehicle position, the passengers on board and the trips that
// were active after a step, so that a run can be inspected or exported once
// it is over.
package steplog

import (
	"context"
	"slices"
	"time"

	"github.com/kilianp07/rideshare/core/dispatch"
	"github.com/kilianp07/rideshare/core/model"
)

// LogRecord is one entry of the step log.
type LogRecord struct {
	RunID      string              `json:"run_id"`
	Step       int                 `json:"step"`
	Timestamp  time.Time           `json:"timestamp"`
	Vehicle    model.Point         `json:"vehicle"`
	Target     string              `json:"target,omitempty"`
	InVehicle  []string            `json:"in_vehicle"`
	PickedUp   []string            `json:"picked_up"`
	DroppedOff []string            `json:"dropped_off"`
	Active     []dispatch.TripView `json:"active"`
	Stats      dispatch.Statistics `json:"stats"`
}

// LogQuery selects records. Zero fields do not filter.
type LogQuery struct {
	RunID     string
	FromStep  int
	ToStep    int
	Passenger string
}

// Matches reports whether rec satisfies every filter of q.
func (q LogQuery) Matches(rec LogRecord) bool {
	if q.RunID != "" && rec.RunID != q.RunID {
		return false
	}
	if q.FromStep > 0 && rec.Step < q.FromStep {
		return false
	}
	if q.ToStep > 0 && rec.Step > q.ToStep {
		return false
	}
	if q.Passenger != "" && !rec.involves(q.Passenger) {
		return false
	}
	return true
}

func (rec LogRecord) involves(name string) bool {
	if slices.Contains(rec.InVehicle, name) ||
		slices.Contains(rec.PickedUp, name) ||
		slices.Contains(rec.DroppedOff, name) {
		return true
	}
	for _, t := range rec.Active {
		if t.Passenger.Name == name {
			return true
		}
	}
	return false
}

// LogStore appends and queries step records.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) {
	return nil, nil
}
func (NopStore) Close() error { return nil }
