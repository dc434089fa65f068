package dispatch

import (
	"fmt"
	"math"

	"github.com/kilianp07/rideshare/core/logger"
	"github.com/kilianp07/rideshare/core/model"
)

// Statistics aggregates completed trips.
type Statistics struct {
	TripsCompleted  int     `json:"trips_completed"`
	AvgUnhappiness  float64 `json:"avg_unhappiness"`
	AvgTripDuration float64 `json:"avg_trip_duration"`
}

// CompletedTrip holds the final figures of a trip removed during a step.
type CompletedTrip struct {
	Passenger   model.PassengerRecord `json:"passenger"`
	Unhappiness float64               `json:"unhappiness"`
	Duration    int                   `json:"duration"`
}

// StepResult describes what happened during one call to Step.
type StepResult struct {
	Step          int
	Vehicle       model.Point
	PickedUp      []model.PassengerRecord
	DroppedOff    []model.PassengerRecord
	Completed     []CompletedTrip
	TargetChanged bool
}

// Dispatcher owns the vehicle, the passenger roster and all active trips.
type Dispatcher struct {
	grid    model.Grid
	vehicle *Vehicle
	log     logger.Logger

	roster []model.PassengerRecord
	byName map[string]int

	// active keeps activation order; it decides ties between equal scores.
	active []*Trip
	byID   map[int]*Trip
	target *Trip
	scores map[int]float64

	lastRequestMade bool
	newRequest      bool
	steps           int
	stats           Statistics
}

// New creates a dispatcher for the configured grid with the vehicle at cfg.Origin.
func New(cfg Config, log logger.Logger) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch config: %w", err)
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Dispatcher{
		grid:    cfg.Grid,
		vehicle: NewVehicle(cfg.Origin),
		log:     log,
		byName:  make(map[string]int),
		byID:    make(map[int]*Trip),
		scores:  make(map[int]float64),
	}, nil
}

// SubmitRequest accepts a ride for name from origin to destination. A
// passenger seen for the first time is registered with the next sequential ID.
// Rejected requests leave the dispatcher untouched.
func (d *Dispatcher) SubmitRequest(name string, origin, destination model.Point) error {
	id, known := d.byName[name]
	if known {
		if _, active := d.byID[id]; active {
			return &RequestError{Name: name, Err: fmt.Errorf("passenger %d: %w", id, ErrDuplicateActiveTrip)}
		}
	}
	trip, err := NewTrip(model.PassengerRecord{Name: name}, origin, destination, d.grid)
	if err != nil {
		return &RequestError{Name: name, Err: err}
	}
	if !known {
		id = d.register(name)
	}
	rec, err := d.PassengerByID(id)
	if err != nil {
		return &RequestError{Name: name, Err: err}
	}
	trip.passenger = rec
	trip.ComputeIdealTimes(d.vehicle.Position())
	d.active = append(d.active, trip)
	d.byID[id] = trip
	d.newRequest = true
	d.log.Debugf("accepted request %s %s->%s", name, origin, destination)
	return nil
}

func (d *Dispatcher) register(name string) int {
	id := len(d.roster)
	d.roster = append(d.roster, model.PassengerRecord{ID: id, Name: name})
	d.byName[name] = id
	return id
}

// PassengerByID returns the roster entry for id.
func (d *Dispatcher) PassengerByID(id int) (model.PassengerRecord, error) {
	if id < 0 || id >= len(d.roster) {
		return model.PassengerRecord{}, fmt.Errorf("passenger id %d: %w", id, ErrUnknownPassenger)
	}
	return d.roster[id], nil
}

// Passenger returns the roster entry registered under name.
func (d *Dispatcher) Passenger(name string) (model.PassengerRecord, bool) {
	id, ok := d.byName[name]
	if !ok {
		return model.PassengerRecord{}, false
	}
	return d.roster[id], true
}

// IsPassengerActive reports whether name has an unfinished trip.
func (d *Dispatcher) IsPassengerActive(name string) bool {
	id, ok := d.byName[name]
	if !ok {
		return false
	}
	_, active := d.byID[id]
	return active
}

// MarkNoMoreRequests signals that no further requests will be submitted.
func (d *Dispatcher) MarkNoMoreRequests() { d.lastRequestMade = true }

// IsDone reports whether the simulation has nothing left to do.
func (d *Dispatcher) IsDone() bool {
	return d.lastRequestMade && len(d.active) == 0
}

// Step advances the simulation by one time unit.
func (d *Dispatcher) Step() StepResult {
	d.steps++
	if d.target != nil {
		goal := d.target.Goal()
		d.vehicle.Advance(&goal)
	} else {
		d.vehicle.Advance(nil)
	}
	pos := d.vehicle.Position()
	res := StepResult{Step: d.steps, Vehicle: pos}

	changed := false
	old := d.active
	remaining := d.active[:0]
	for _, t := range old {
		if t.Tick(pos) {
			changed = true
			if t.State() == TripInTransit {
				res.PickedUp = append(res.PickedUp, t.passenger)
			}
		}
		if t.State() == TripCompleted {
			res.DroppedOff = append(res.DroppedOff, t.passenger)
			res.Completed = append(res.Completed, d.complete(t))
			continue
		}
		remaining = append(remaining, t)
	}
	for i := len(remaining); i < len(old); i++ {
		old[i] = nil
	}
	d.active = remaining

	if d.newRequest {
		changed = true
		d.newRequest = false
	}
	if changed {
		prev := d.target
		d.target = d.selectTarget()
		res.TargetChanged = prev != d.target
		if res.TargetChanged {
			d.logTarget()
		}
	}
	return res
}

func (d *Dispatcher) complete(t *Trip) CompletedTrip {
	score := t.Unhappiness()
	n := float64(d.stats.TripsCompleted)
	d.stats.AvgUnhappiness = (d.stats.AvgUnhappiness*n + score) / (n + 1)
	d.stats.AvgTripDuration = (d.stats.AvgTripDuration*n + float64(t.elapsed)) / (n + 1)
	d.stats.TripsCompleted++
	delete(d.byID, t.passenger.ID)
	d.log.Debugw("trip completed", map[string]any{
		"passenger":   t.passenger.Name,
		"unhappiness": score,
		"duration":    t.elapsed,
	})
	return CompletedTrip{Passenger: t.passenger, Unhappiness: score, Duration: t.elapsed}
}

// selectTarget returns the active trip with the strictly lowest systemic
// score; the first one in activation order wins ties.
func (d *Dispatcher) selectTarget() *Trip {
	d.scores = make(map[int]float64, len(d.active))
	best := math.Inf(1)
	var next *Trip
	for _, p := range d.active {
		s := d.systemicScore(p)
		d.scores[p.passenger.ID] = s
		if s < best {
			best = s
			next = p
		}
	}
	return next
}

// systemicScore is the total predicted unhappiness of every active trip if
// the vehicle went straight to target's goal next.
func (d *Dispatcher) systemicScore(target *Trip) float64 {
	goal := target.Goal()
	delta := model.Distance(d.vehicle.Position(), goal)
	total := 0.0
	for _, q := range d.active {
		total += q.PredictUnhappiness(goal, delta)
	}
	return total
}

func (d *Dispatcher) logTarget() {
	if d.target == nil {
		d.log.Debugf("no target, vehicle idle at %s", d.vehicle.Position())
		return
	}
	d.log.Debugw("target changed", map[string]any{
		"passenger": d.target.passenger.Name,
		"goal":      d.target.Goal().String(),
		"score":     d.scores[d.target.passenger.ID],
	})
}

// PassengersInVehicle returns every active passenger currently on board.
func (d *Dispatcher) PassengersInVehicle() []model.PassengerRecord {
	var out []model.PassengerRecord
	for _, t := range d.active {
		if t.InTransit() {
			out = append(out, t.passenger)
		}
	}
	return out
}

// Statistics returns the aggregates of all completed trips.
func (d *Dispatcher) Statistics() Statistics { return d.stats }

// VehiclePosition returns the current vehicle cell.
func (d *Dispatcher) VehiclePosition() model.Point { return d.vehicle.Position() }

// Target returns the passenger currently being served.
func (d *Dispatcher) Target() (model.PassengerRecord, bool) {
	if d.target == nil {
		return model.PassengerRecord{}, false
	}
	return d.target.passenger, true
}

// ActiveTrips returns a snapshot of all active trips in activation order.
func (d *Dispatcher) ActiveTrips() []TripView {
	out := make([]TripView, len(d.active))
	pos := d.vehicle.Position()
	for i, t := range d.active {
		out[i] = t.view(pos)
		out[i].SystemScore = d.scores[t.passenger.ID]
	}
	return out
}

// Scores returns the systemic scores computed at the last target selection,
// keyed by passenger name.
func (d *Dispatcher) Scores() map[string]float64 {
	cp := make(map[string]float64, len(d.scores))
	for id, s := range d.scores {
		if _, ok := d.byID[id]; !ok {
			continue
		}
		cp[d.roster[id].Name] = s
	}
	return cp
}

// Roster returns every passenger ever registered.
func (d *Dispatcher) Roster() []model.PassengerRecord {
	return append([]model.PassengerRecord(nil), d.roster...)
}

// Grid returns the configured grid.
func (d *Dispatcher) Grid() model.Grid { return d.grid }

// Steps returns the number of completed calls to Step.
func (d *Dispatcher) Steps() int { return d.steps }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
