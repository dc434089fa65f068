package test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rideshare/api"
	"github.com/kilianp07/rideshare/core/dispatch"
	"github.com/kilianp07/rideshare/core/events"
	"github.com/kilianp07/rideshare/core/model"
	"github.com/kilianp07/rideshare/core/steplog"
	"github.com/kilianp07/rideshare/infra/logger"
	"github.com/kilianp07/rideshare/infra/metrics"
	"github.com/kilianp07/rideshare/internal/eventbus"
	"github.com/kilianp07/rideshare/report"
	"github.com/kilianp07/rideshare/scenario"
	"github.com/kilianp07/rideshare/simulator"
	"github.com/kilianp07/rideshare/test/util"
)

const fourPassengers = `
- requests:
    - {name: George, start: [5, 0], end: [7, 3]}
    - {name: Fido, start: [5, 1], end: [7, 4]}
    - {name: Amy, start: [5, 5], end: [2, 8]}
    - {name: Vader, start: [9, 9], end: [3, 3]}
- requests:
    - {name: Ghost, start: [10, 10], end: [1, 1]}
`

func TestPipeline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	script, err := scenario.Decode(bytes.NewBufferString(fourPassengers))
	require.NoError(t, err)
	disp, err := dispatch.New(dispatch.DefaultConfig(), logger.NopLogger{})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry("rideshare", reg)
	require.NoError(t, err)
	store, err := steplog.NewSQLiteStore(filepath.Join(t.TempDir(), "steps.db"))
	require.NoError(t, err)
	defer store.Close()

	steps := eventbus.NewTypedWithBuffer[events.StepEvent](256)
	defer steps.Close()
	runs := eventbus.NewTyped[events.RunEvent]()
	defer runs.Close()
	tracker := api.NewTracker()
	stepCh, runCh := steps.Subscribe(), runs.Subscribe()
	go tracker.ObserveSteps(ctx, stepCh)
	go tracker.ObserveRuns(ctx, runCh)

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(tracker, store), reg))
	defer srv.Close()

	var out bytes.Buffer
	runner, err := simulator.NewRunner(
		simulator.Config{RejectPolicy: simulator.RejectSkip, MaxSteps: 200},
		disp, scenario.NewScriptSource(script),
		simulator.WithMetrics(sink),
		simulator.WithStepLog(store),
		simulator.WithStepBus(steps),
		simulator.WithRunBus(runs),
		simulator.WithReporters(report.NewTextReporter(&out)),
		simulator.WithRunID("pipeline"),
	)
	require.NoError(t, err)
	sum, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Stats.TripsCompleted)
	assert.Equal(t, 1, sum.Rejected)
	n, err := testutil.GatherAndCount(reg, "rideshare_trip_unhappiness")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	recs, err := store.Query(ctx, steplog.LogQuery{RunID: "pipeline", Passenger: "Vader"})
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, model.Point{X: 3, Y: 3}, recs[len(recs)-1].Vehicle)

	require.NoError(t, util.WaitForHTTP(ctx, srv.URL+"/api/status", `"phase":"finished"`))
	require.NoError(t, util.WaitForHTTP(ctx, srv.URL+"/metrics", "rideshare_dropoffs_total 4"))
	require.NoError(t, util.WaitForHTTP(ctx, srv.URL+"/metrics", `rideshare_rejected_requests_total{kind="out_of_bounds"} 1`))

	var st api.Status
	resp, err := srv.Client().Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, "pipeline", st.RunID)
	assert.Equal(t, sum.Steps, st.Steps)
}
