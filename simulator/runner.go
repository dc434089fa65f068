// Package simulator drives a dispatcher through a run: it feeds request
// batches from a scenario source, advances time, and fans the resulting
// state out to reporters, metrics sinks, the step log and the event bus.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/rideshare/core/dispatch"
	"github.com/kilianp07/rideshare/core/events"
	corelogger "github.com/kilianp07/rideshare/core/logger"
	coremetrics "github.com/kilianp07/rideshare/core/metrics"
	"github.com/kilianp07/rideshare/core/model"
	coremon "github.com/kilianp07/rideshare/core/monitoring"
	"github.com/kilianp07/rideshare/core/steplog"
	"github.com/kilianp07/rideshare/infra/logger"
	"github.com/kilianp07/rideshare/internal/eventbus"
	"github.com/kilianp07/rideshare/scenario"
)

// ErrStepLimit is returned when a run does not finish within MaxSteps.
var ErrStepLimit = errors.New("step limit reached")

// Runner executes one simulation run. It is not safe for concurrent use.
type Runner struct {
	cfg       Config
	disp      *dispatch.Dispatcher
	source    scenario.Source
	runID     string
	log       corelogger.Logger
	sink      coremetrics.MetricsSink
	store     steplog.LogStore
	steps     *eventbus.TypedBus[events.StepEvent]
	rejects   *eventbus.TypedBus[events.RejectedEvent]
	runs      *eventbus.TypedBus[events.RunEvent]
	reporters []Reporter
	now       func() time.Time
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(l corelogger.Logger) Option { return func(r *Runner) { r.log = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(s coremetrics.MetricsSink) Option { return func(r *Runner) { r.sink = s } }

// WithStepLog persists every step to store.
func WithStepLog(s steplog.LogStore) Option { return func(r *Runner) { r.store = s } }

// WithStepBus publishes a StepEvent after every step.
func WithStepBus(b *eventbus.TypedBus[events.StepEvent]) Option {
	return func(r *Runner) { r.steps = b }
}

// WithRejectionBus publishes refused requests.
func WithRejectionBus(b *eventbus.TypedBus[events.RejectedEvent]) Option {
	return func(r *Runner) { r.rejects = b }
}

// WithRunBus publishes run start and end.
func WithRunBus(b *eventbus.TypedBus[events.RunEvent]) Option {
	return func(r *Runner) { r.runs = b }
}

// WithReporters adds step reporters.
func WithReporters(rep ...Reporter) Option {
	return func(r *Runner) { r.reporters = append(r.reporters, rep...) }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option { return func(r *Runner) { r.runID = id } }

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// NewRunner validates cfg and prepares a run of disp fed by source.
func NewRunner(cfg Config, disp *dispatch.Dispatcher, source scenario.Source, opts ...Option) (*Runner, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if disp == nil {
		return nil, errors.New("nil dispatcher")
	}
	if source == nil {
		return nil, errors.New("nil request source")
	}
	r := &Runner{
		cfg:    cfg,
		disp:   disp,
		source: source,
		runID:  uuid.NewString(),
		log:    logger.NopLogger{},
		sink:   coremetrics.NopSink{},
		store:  steplog.NopStore{},
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// RunID identifies this run in metrics, logs and events.
func (r *Runner) RunID() string { return r.runID }

// Dispatcher returns the dispatcher being driven.
func (r *Runner) Dispatcher() *dispatch.Dispatcher { return r.disp }

// Run loops until the dispatcher is done, the step limit is hit, a request
// is rejected under the abort policy, or ctx is canceled. The summary is
// valid in every case.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	r.log.Infof("run %s started", r.runID)
	r.publishRun(events.RunStarted, 0, nil)

	var (
		completed []dispatch.CompletedTrip
		rejected  int
		t         int
		runErr    error
	)
	var tick <-chan time.Time
	if iv := r.cfg.StepInterval(); iv > 0 {
		ticker := time.NewTicker(iv)
		defer ticker.Stop()
		tick = ticker.C
	}

	for ; !r.disp.IsDone(); t++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if r.cfg.MaxSteps > 0 && t >= r.cfg.MaxSteps {
			runErr = fmt.Errorf("%w after %d steps", ErrStepLimit, t)
			break
		}

		var refused []Rejection
		if batch, ok := r.source.Next(r.disp); ok {
			var err error
			refused, err = r.submit(t, batch)
			rejected += len(refused)
			if err != nil {
				runErr = err
				break
			}
		} else {
			r.disp.MarkNoMoreRequests()
		}

		inVehicle := names(r.disp.PassengersInVehicle())
		res := r.disp.Step()
		completed = append(completed, res.Completed...)
		r.emit(ctx, t, inVehicle, res, refused)

		if tick != nil && !r.disp.IsDone() {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
	}

	sum := summarize(r.runID, t, rejected, r.disp.Statistics(), completed)
	for _, rep := range r.reporters {
		if err := rep.Finish(sum); err != nil {
			r.log.Warnf("reporter finish: %v", err)
		}
	}
	if runErr != nil {
		r.log.Errorf("run %s failed at step %d: %v", r.runID, t, runErr)
		if !errors.Is(runErr, context.Canceled) {
			coremon.CaptureException(runErr, map[string]string{"run_id": r.runID, "module": "simulator"})
		}
	} else {
		r.log.Infof("run %s finished after %d steps: %d trips, avg unhappiness %.3f",
			r.runID, t, sum.Stats.TripsCompleted, sum.Stats.AvgUnhappiness)
	}
	r.publishRun(events.RunFinished, t, runErr)
	return sum, runErr
}

// submit hands a batch to the dispatcher. Under the abort policy the first
// refusal ends the run and later requests of the batch are not submitted.
func (r *Runner) submit(t int, batch scenario.Batch) ([]Rejection, error) {
	var refused []Rejection
	for _, req := range batch.Requests {
		err := r.disp.SubmitRequest(req.Name, req.Start, req.End)
		if err == nil {
			continue
		}
		rej := Rejection{Name: req.Name, Kind: dispatch.ErrorKind(err), Reason: err.Error()}
		refused = append(refused, rej)
		r.recordRejection(t, rej, err)
		if r.cfg.RejectPolicy == RejectAbort {
			return refused, fmt.Errorf("time step %d: %w", t, err)
		}
	}
	return refused, nil
}

func (r *Runner) recordRejection(t int, rej Rejection, err error) {
	r.log.Warnf("step %d: %s", t, rej.Reason)
	now := r.now()
	if rerr := coremetrics.RecordRejection(r.sink, coremetrics.RejectionSample{
		RunID: r.runID, Step: t, Passenger: rej.Name, Kind: rej.Kind, Time: now,
	}); rerr != nil {
		r.log.Warnf("record rejection: %v", rerr)
	}
	coremon.CaptureException(err, map[string]string{"run_id": r.runID, "kind": rej.Kind, "passenger": rej.Name})
	if r.rejects != nil {
		r.rejects.Publish(events.RejectedEvent{
			RunID: r.runID, Step: t, Name: rej.Name, Kind: rej.Kind, Reason: rej.Reason, Time: now,
		})
	}
}

func (r *Runner) emit(ctx context.Context, t int, inVehicle []string, res dispatch.StepResult, refused []Rejection) {
	now := r.now()
	active := r.disp.ActiveTrips()
	waiting := 0
	for _, a := range active {
		if a.State == dispatch.TripWaiting.String() {
			waiting++
		}
	}
	target := ""
	if p, ok := r.disp.Target(); ok {
		target = p.Name
	}
	rep := StepReport{
		RunID:         r.runID,
		Time:          t,
		Timestamp:     now,
		Grid:          r.disp.Grid(),
		Vehicle:       res.Vehicle,
		InVehicle:     inVehicle,
		PickedUp:      names(res.PickedUp),
		DroppedOff:    names(res.DroppedOff),
		Completed:     res.Completed,
		Target:        target,
		TargetChanged: res.TargetChanged,
		Active:        active,
		Stats:         r.disp.Statistics(),
		Rejected:      refused,
	}

	for _, rp := range r.reporters {
		if err := rp.Step(rep); err != nil {
			r.log.Warnf("reporter step %d: %v", t, err)
		}
	}

	if err := r.sink.RecordStep(coremetrics.StepSample{
		RunID: r.runID, Step: t, Time: now, Vehicle: res.Vehicle,
		Active: len(active), Waiting: waiting, InVehicle: len(active) - waiting,
		PickedUp: len(res.PickedUp), DroppedOff: len(res.DroppedOff), TargetChanged: res.TargetChanged,
	}); err != nil {
		r.log.Warnf("record step %d: %v", t, err)
	}
	for _, c := range res.Completed {
		if err := coremetrics.RecordTrip(r.sink, coremetrics.TripSample{
			RunID: r.runID, Passenger: c.Passenger.Name, Unhappiness: c.Unhappiness, Duration: c.Duration, Time: now,
		}); err != nil {
			r.log.Warnf("record trip %s: %v", c.Passenger.Name, err)
		}
	}

	if err := r.store.Append(ctx, steplog.LogRecord{
		RunID: r.runID, Step: t, Timestamp: now, Vehicle: res.Vehicle, Target: target,
		InVehicle: inVehicle, PickedUp: rep.PickedUp, DroppedOff: rep.DroppedOff,
		Active: active, Stats: rep.Stats,
	}); err != nil {
		r.log.Warnf("step log append %d: %v", t, err)
	}

	if r.steps != nil {
		r.steps.Publish(events.StepEvent{
			RunID: r.runID, Step: t, Time: now, Vehicle: res.Vehicle, Target: target,
			InVehicle: inVehicle, PickedUp: rep.PickedUp, DroppedOff: rep.DroppedOff,
			Active: active, Stats: rep.Stats, Completed: res.Completed,
		})
	}
}

func (r *Runner) publishRun(phase events.RunPhase, steps int, err error) {
	if r.runs == nil {
		return
	}
	ev := events.RunEvent{RunID: r.runID, Phase: phase, Steps: steps, Stats: r.disp.Statistics(), Time: r.now()}
	if err != nil {
		ev.Err = err.Error()
	}
	r.runs.Publish(ev)
}

func names(ps []model.PassengerRecord) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}
