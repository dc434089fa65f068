// Package api exposes the live simulation state over HTTP.
package api

import (
	"context"
	"sync"

	"github.com/kilianp07/rideshare/core/events"
)

// Status is the payload of GET /api/status.
type Status struct {
	RunID   string            `json:"run_id,omitempty"`
	Phase   events.RunPhase   `json:"phase,omitempty"`
	Error   string            `json:"error,omitempty"`
	Latest  *events.StepEvent `json:"latest,omitempty"`
	Steps   int               `json:"steps"`
	Rejects int               `json:"rejected"`
}

// Tracker keeps the most recent state seen on the event buses. The
// dispatcher is never read directly, so handlers cannot race the run loop.
type Tracker struct {
	mu     sync.RWMutex
	status Status
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker { return &Tracker{} }

// ObserveSteps feeds a bus subscription into the tracker until ctx is done
// or the channel closes.
func (t *Tracker) ObserveSteps(ctx context.Context, ch <-chan events.StepEvent) {
	consume(ctx, ch, t.Step)
}

// ObserveRuns is ObserveSteps for run boundaries.
func (t *Tracker) ObserveRuns(ctx context.Context, ch <-chan events.RunEvent) {
	consume(ctx, ch, t.Run)
}

// ObserveRejections is ObserveSteps for refused requests.
func (t *Tracker) ObserveRejections(ctx context.Context, ch <-chan events.RejectedEvent) {
	consume(ctx, ch, t.Rejected)
}

func consume[T any](ctx context.Context, ch <-chan T, fn func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			fn(e)
		}
	}
}

// Step records a step event.
func (t *Tracker) Step(e events.StepEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.RunID != t.status.RunID {
		t.reset(e.RunID)
	}
	t.status.Latest = &e
	t.status.Steps = e.Step + 1
}

// Run records a run boundary.
func (t *Tracker) Run(e events.RunEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.RunID != t.status.RunID {
		t.reset(e.RunID)
	}
	t.status.Phase = e.Phase
	t.status.Error = e.Err
	if e.Phase == events.RunFinished {
		t.status.Steps = e.Steps
	}
}

// Rejected counts a refused request.
func (t *Tracker) Rejected(e events.RejectedEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.RunID != t.status.RunID {
		t.reset(e.RunID)
	}
	t.status.Rejects++
}

func (t *Tracker) reset(runID string) {
	t.status = Status{RunID: runID}
}

// Status returns a copy of the current state.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}
