package dispatch

import (
	"fmt"

	"github.com/kilianp07/rideshare/core/model"
)

// graceFactor is the multiple of the ideal time a passenger tolerates before
// becoming unhappy. Below it the score is negative.
const graceFactor = 1.5

// TripState is the lifecycle stage of a trip.
type TripState int

const (
	TripWaiting TripState = iota
	TripInTransit
	TripCompleted
)

func (s TripState) String() string {
	switch s {
	case TripWaiting:
		return "waiting"
	case TripInTransit:
		return "in_transit"
	case TripCompleted:
		return "completed"
	default:
		return fmt.Sprintf("TripState(%d)", int(s))
	}
}

// Trip is one passenger's ride from acceptance to dropoff.
type Trip struct {
	passenger   model.PassengerRecord
	origin      model.Point
	destination model.Point

	idealPickup  int
	idealJourney int
	elapsed      int
	// sincePickup is -1 until the passenger boards.
	sincePickup int
	droppedOff  bool
}

// NewTrip creates and activates a trip for p.
func NewTrip(p model.PassengerRecord, origin, destination model.Point, grid model.Grid) (*Trip, error) {
	t := &Trip{passenger: p}
	if err := t.Activate(origin, destination, grid); err != nil {
		return nil, err
	}
	return t, nil
}

// Activate validates the coordinates and resets all timing fields.
func (t *Trip) Activate(origin, destination model.Point, grid model.Grid) error {
	if !grid.Contains(origin) {
		return fmt.Errorf("start %s: %w", origin, ErrOutOfBounds)
	}
	if !grid.Contains(destination) {
		return fmt.Errorf("end %s: %w", destination, ErrOutOfBounds)
	}
	if origin == destination {
		return fmt.Errorf("start %s same as end %s: %w", origin, destination, ErrDegenerateTrip)
	}
	t.origin = origin
	t.destination = destination
	t.idealPickup = -1
	t.idealJourney = -1
	t.elapsed = 0
	t.sincePickup = -1
	t.droppedOff = false
	return nil
}

// ComputeIdealTimes fixes the scoring denominators relative to the vehicle
// position at activation. They are never recomputed.
func (t *Trip) ComputeIdealTimes(vehicle model.Point) {
	t.idealPickup = model.Distance(vehicle, t.origin)
	t.idealJourney = model.Distance(t.origin, t.destination)
}

// PerfectTime is the uninterrupted travel needed from vehicle to finish the trip.
func (t *Trip) PerfectTime(vehicle model.Point) int {
	if t.InTransit() {
		return model.Distance(vehicle, t.destination)
	}
	return model.Distance(vehicle, t.origin) + model.Distance(t.origin, t.destination)
}

// Tick advances the trip by one step with the vehicle at the given position.
// It reports whether the passenger was picked up or dropped off.
func (t *Trip) Tick(vehicle model.Point) bool {
	wasInTransit := t.InTransit()
	changed := false
	if wasInTransit {
		if vehicle == t.destination {
			t.droppedOff = true
			changed = true
		}
	} else if vehicle == t.origin {
		t.sincePickup = 0
		changed = true
	}
	t.elapsed++
	if wasInTransit {
		t.sincePickup++
	}
	return changed
}

// Unhappiness returns the current score for the active phase.
func (t *Trip) Unhappiness() float64 {
	return t.score(t.phaseElapsed())
}

// PredictUnhappiness returns the score this trip would have once finished if
// the vehicle spends timeDelta steps elsewhere, arrives at vehicle, and then
// serves this trip without interruption.
func (t *Trip) PredictUnhappiness(vehicle model.Point, timeDelta int) float64 {
	return t.score(t.phaseElapsed() + timeDelta + t.PerfectTime(vehicle))
}

func (t *Trip) phaseElapsed() int {
	if t.InTransit() {
		return t.sincePickup
	}
	return t.elapsed
}

func (t *Trip) score(elapsed int) float64 {
	ideal := t.idealPickup
	if t.InTransit() {
		ideal = t.idealJourney
	}
	if ideal == 0 {
		ideal = 1
	}
	return float64(elapsed)/float64(ideal) - graceFactor
}

// Goal is the cell the vehicle must reach next for this trip.
func (t *Trip) Goal() model.Point {
	if t.InTransit() {
		return t.destination
	}
	return t.origin
}

// InTransit reports whether the passenger has been picked up. It stays true
// after dropoff.
func (t *Trip) InTransit() bool { return t.sincePickup != -1 }

// State returns the lifecycle stage.
func (t *Trip) State() TripState {
	switch {
	case t.droppedOff:
		return TripCompleted
	case t.InTransit():
		return TripInTransit
	default:
		return TripWaiting
	}
}

func (t *Trip) Passenger() model.PassengerRecord { return t.passenger }
func (t *Trip) Origin() model.Point              { return t.origin }
func (t *Trip) Destination() model.Point         { return t.destination }
func (t *Trip) Elapsed() int                     { return t.elapsed }

// SincePickup returns the steps since boarding and false while waiting.
func (t *Trip) SincePickup() (int, bool) {
	if !t.InTransit() {
		return 0, false
	}
	return t.sincePickup, true
}

// IdealTimes returns the pickup and journey denominators.
func (t *Trip) IdealTimes() (pickup, journey int) {
	return t.idealPickup, t.idealJourney
}

// TripView is a read-only snapshot of an active trip.
type TripView struct {
	Passenger    model.PassengerRecord `json:"passenger"`
	State        string                `json:"state"`
	Origin       model.Point           `json:"origin"`
	Destination  model.Point           `json:"destination"`
	Elapsed      int                   `json:"elapsed"`
	IdealPickup  int                   `json:"ideal_pickup"`
	IdealJourney int                   `json:"ideal_journey"`
	Unhappiness  float64               `json:"unhappiness"`
	// Predicted is the unhappiness at drop-off if the vehicle served this
	// trip directly from its current position.
	Predicted float64 `json:"predicted"`
	// SystemScore is the systemic score from the last target selection.
	SystemScore float64 `json:"system_score"`
}

func (t *Trip) view(vehicle model.Point) TripView {
	return TripView{
		Passenger:    t.passenger,
		State:        t.State().String(),
		Origin:       t.origin,
		Destination:  t.destination,
		Elapsed:      t.elapsed,
		IdealPickup:  t.idealPickup,
		IdealJourney: t.idealJourney,
		Unhappiness:  t.Unhappiness(),
		Predicted:    t.PredictUnhappiness(vehicle, 0),
	}
}
