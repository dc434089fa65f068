package metrics

import "errors"

// MultiSink fans samples out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStep forwards the sample to all sinks. Every sink is called even if
// an earlier one fails; the errors are joined.
func (m *MultiSink) RecordStep(s StepSample) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := sink.RecordStep(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordTrip forwards completed trips to sinks implementing TripRecorder.
func (m *MultiSink) RecordTrip(t TripSample) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := RecordTrip(sink, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRejection forwards refused requests to sinks implementing
// RejectionRecorder.
func (m *MultiSink) RecordRejection(r RejectionSample) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := RecordRejection(sink, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases every sink holding resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		CloseSink(s)
	}
}

// CloseSink calls Close on sinks that have one.
func CloseSink(s MetricsSink) {
	if c, ok := s.(interface{ Close() }); ok {
		c.Close()
	}
}
