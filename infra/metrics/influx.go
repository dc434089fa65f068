package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/rideshare/core/metrics"
	"github.com/kilianp07/rideshare/infra/logger"
)

// InfluxConfig holds the InfluxDB v2 connection settings.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes simulation samples to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordStep writes a simulation_step point.
func (s *InfluxSink) RecordStep(st coremetrics.StepSample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulation_step").
		AddTag("run_id", st.RunID).
		AddField("step", st.Step).
		AddField("x", st.Vehicle.X).
		AddField("y", st.Vehicle.Y).
		AddField("active", st.Active).
		AddField("waiting", st.Waiting).
		AddField("in_vehicle", st.InVehicle).
		AddField("picked_up", st.PickedUp).
		AddField("dropped_off", st.DroppedOff).
		AddField("target_changed", st.TargetChanged).
		SetTime(st.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTrip writes a trip_completed point.
func (s *InfluxSink) RecordTrip(t coremetrics.TripSample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("trip_completed").
		AddTag("run_id", t.RunID).
		AddTag("passenger", t.Passenger).
		AddField("unhappiness", round3(t.Unhappiness)).
		AddField("duration", t.Duration).
		SetTime(t.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRejection writes a request_rejected point.
func (s *InfluxSink) RecordRejection(r coremetrics.RejectionSample) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("request_rejected").
		AddTag("run_id", r.RunID).
		AddTag("kind", r.Kind).
		AddTag("passenger", r.Passenger).
		AddField("step", r.Step).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
