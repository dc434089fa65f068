package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/rideshare/core/metrics"
)

// DefaultNamespace prefixes every Prometheus metric name.
const DefaultNamespace = "rideshare"

// PromSink records simulation samples in Prometheus metrics.
type PromSink struct {
	steps         prometheus.Counter
	pickups       prometheus.Counter
	dropoffs      prometheus.Counter
	targetChanges prometheus.Counter
	rejected      *prometheus.CounterVec
	trips         *prometheus.GaugeVec
	position      *prometheus.GaugeVec
	unhappiness   prometheus.Histogram
	duration      prometheus.Histogram
}

// NewPromSink registers simulation metrics on the default Prometheus registerer.
func NewPromSink(namespace string) (*PromSink, error) {
	return NewPromSinkWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer and an empty
// namespace to DefaultNamespace. Collectors already registered by a previous
// sink are reused.
func NewPromSinkWithRegistry(namespace string, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	s := &PromSink{
		steps:         counter("steps_total", "Number of simulated time steps"),
		pickups:       counter("pickups_total", "Number of passengers picked up"),
		dropoffs:      counter("dropoffs_total", "Number of passengers dropped off"),
		targetChanges: counter("target_recomputations_total", "Number of steps on which the target was recomputed"),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_requests_total",
			Help:      "Number of ride requests refused by the dispatcher",
		}, []string{"kind"}),
		trips: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_trips",
			Help:      "Number of active trips by state",
		}, []string{"state"}),
		position: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vehicle_position",
			Help:      "Current vehicle coordinate",
		}, []string{"axis"}),
		unhappiness: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trip_unhappiness",
			Help:      "Final unhappiness of completed trips",
			Buckets:   prometheus.LinearBuckets(-1.5, 0.5, 12),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trip_duration_steps",
			Help:      "Elapsed steps of completed trips",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}

	var err error
	if s.steps, err = register(reg, s.steps); err != nil {
		return nil, err
	}
	if s.pickups, err = register(reg, s.pickups); err != nil {
		return nil, err
	}
	if s.dropoffs, err = register(reg, s.dropoffs); err != nil {
		return nil, err
	}
	if s.targetChanges, err = register(reg, s.targetChanges); err != nil {
		return nil, err
	}
	if s.rejected, err = register(reg, s.rejected); err != nil {
		return nil, err
	}
	if s.trips, err = register(reg, s.trips); err != nil {
		return nil, err
	}
	if s.position, err = register(reg, s.position); err != nil {
		return nil, err
	}
	if s.unhappiness, err = register(reg, s.unhappiness); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordStep updates counters and gauges from a step sample.
func (s *PromSink) RecordStep(st coremetrics.StepSample) error {
	s.steps.Inc()
	s.pickups.Add(float64(st.PickedUp))
	s.dropoffs.Add(float64(st.DroppedOff))
	if st.TargetChanged {
		s.targetChanges.Inc()
	}
	s.trips.WithLabelValues("waiting").Set(float64(st.Waiting))
	s.trips.WithLabelValues("in_transit").Set(float64(st.InVehicle))
	s.position.WithLabelValues("x").Set(float64(st.Vehicle.X))
	s.position.WithLabelValues("y").Set(float64(st.Vehicle.Y))
	return nil
}

// RecordTrip observes the final unhappiness and duration of a trip.
func (s *PromSink) RecordTrip(t coremetrics.TripSample) error {
	s.unhappiness.Observe(t.Unhappiness)
	s.duration.Observe(float64(t.Duration))
	return nil
}

// RecordRejection counts a refused request by error kind.
func (s *PromSink) RecordRejection(r coremetrics.RejectionSample) error {
	kind := r.Kind
	if kind == "" {
		kind = "unknown"
	}
	s.rejected.WithLabelValues(kind).Inc()
	return nil
}
