// Package metrics defines the sinks that observe a simulation run. Every sink
// records per-step samples; sinks may also implement TripRecorder and
// RejectionRecorder to receive completed trips and refused requests.
// Concrete sinks (Prometheus, InfluxDB) live in infra/metrics and register
// themselves with the module factory so that they can be selected from
// configuration. NewMetricsSink combines several configured sinks into a
// MultiSink.
package metrics
