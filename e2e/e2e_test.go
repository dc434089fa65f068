//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rideshare/app"
	"github.com/kilianp07/rideshare/config"
	"github.com/kilianp07/rideshare/core/factory"
	"github.com/kilianp07/rideshare/test/util"
)

const fivePassengers = "../qa/scenarios/testdata/RideRequests1.json"

func countPoints(ctx context.Context, t *testing.T, client influxdb2.Client, measurement, field string) int {
	t.Helper()
	flux := fmt.Sprintf(`from(bucket:%q) |> range(start:-10m) |> filter(fn:(r) => r._measurement == %q and r._field == %q)`,
		util.InfluxBucket, measurement, field)
	res, err := client.QueryAPI(util.InfluxOrg).Query(ctx, flux)
	require.NoError(t, err)
	defer res.Close()
	n := 0
	for res.Next() {
		n++
	}
	require.NoError(t, res.Err())
	return n
}

// Test_E2E_Run replays a scenario with InfluxDB and MQTT sinks backed by
// real containers.
func Test_E2E_Run(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	influxURL, stopInflux, err := util.StartInflux(ctx)
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	defer stopInflux()
	broker, stopMosquitto, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	defer stopMosquitto()

	var (
		mu       sync.Mutex
		received = map[string]int{}
	)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-sub"))
	require.NoError(t, waitToken(sub.Connect()))
	defer sub.Disconnect(100)
	require.NoError(t, waitToken(sub.Subscribe("e2e/#", 1, func(_ paho.Client, m paho.Message) {
		mu.Lock()
		received[m.Topic()]++
		mu.Unlock()
	})))

	cfg := config.Default()
	cfg.LogLevel = "warn"
	cfg.Metrics.Sinks = []factory.ModuleConfig{{
		Type: "influx",
		Conf: map[string]any{
			"url":    influxURL,
			"token":  util.InfluxToken,
			"org":    util.InfluxOrg,
			"bucket": util.InfluxBucket,
		},
	}}
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = broker
	cfg.MQTT.TopicPrefix = "e2e"
	cfg.MQTT.QoS = 1
	cfg.API.Enabled = true
	cfg.API.Addr = "127.0.0.1:18080"

	svc, err := app.New(cfg, &bytes.Buffer{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()
	svc.Start(ctx)
	require.NoError(t, util.WaitForHTTP(ctx, "http://127.0.0.1:18080/health", "ok"))

	sum, err := svc.RunScript(ctx, fivePassengers)
	require.NoError(t, err)
	require.Equal(t, 5, sum.Stats.TripsCompleted)

	client := influxdb2.NewClient(influxURL, util.InfluxToken)
	defer client.Close()
	assert.Positive(t, countPoints(ctx, t, client, "simulation_step", "step"))
	assert.Equal(t, 5, countPoints(ctx, t, client, "trip_completed", "unhappiness"))

	summaryTopic := fmt.Sprintf("e2e/%s/summary", sum.RunID)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return received[summaryTopic] == 1 && received[fmt.Sprintf("e2e/%s/state", sum.RunID)] >= sum.Steps
	}, 10*time.Second, 50*time.Millisecond)

	require.NoError(t, util.WaitForHTTP(ctx, "http://127.0.0.1:18080/api/status", sum.RunID))
}

func waitToken(tok paho.Token) error {
	if !tok.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt token timeout")
	}
	return tok.Error()
}
