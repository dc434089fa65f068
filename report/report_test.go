package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rideshare/core/dispatch"
	"github.com/kilianp07/rideshare/core/model"
	"github.com/kilianp07/rideshare/simulator"
)

func TestTextReporter_Step(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf)

	require.NoError(t, r.Step(simulator.StepReport{Time: 0, Vehicle: model.Point{}}))
	require.NoError(t, r.Step(simulator.StepReport{
		Time:       5,
		Vehicle:    model.Point{X: 5, Y: 0},
		InVehicle:  []string{"Luke", "Leia"},
		PickedUp:   []string{"George"},
		DroppedOff: []string{"Luke"},
		Rejected:   []simulator.Rejection{{Name: "Vader", Kind: "out_of_bounds"}},
	}))

	want := "Time step: 0, car at: (0,0)\n" +
		"Current passengers: None\n" +
		"Time step: 5, car at: (5,0)\n" +
		"Current passengers: Luke, Leia\n" +
		"Pickups: George\n" +
		"Dropoffs: Luke\n" +
		"Rejected: Vader (out_of_bounds)\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextReporter(&buf).Finish(simulator.Summary{
		RunID: "r1",
		Steps: 11,
		Stats: dispatch.Statistics{TripsCompleted: 1, AvgUnhappiness: -0.5, AvgTripDuration: 11},
	}))
	out := buf.String()
	assert.Contains(t, out, "Run r1 complete after 11 steps")
	assert.Contains(t, out, "Trips completed: 1\n")
	assert.Contains(t, out, "Average unhappiness: -0.500\n")
	assert.Contains(t, out, "Average trip time: 11.000\n")
	assert.NotContains(t, out, "Requests rejected")
	assert.NotContains(t, out, "std dev")
}

func TestRenderGrid(t *testing.T) {
	s := simulator.StepReport{
		Time:    3,
		Grid:    model.Grid{Width: 4, Height: 3},
		Vehicle: model.Point{X: 1, Y: 0},
		Active: []dispatch.TripView{
			{Passenger: model.PassengerRecord{ID: 0, Name: "George"}, State: "waiting",
				Origin: model.Point{X: 1, Y: 0}, Destination: model.Point{X: 3, Y: 2}, Predicted: 0.25, SystemScore: 1.5},
			{Passenger: model.PassengerRecord{ID: 1, Name: "Luke"}, State: "in_transit",
				Origin: model.Point{X: 0, Y: 0}, Destination: model.Point{X: 0, Y: 2}},
		},
	}
	lines := strings.Split(strings.TrimRight(RenderGrid(s), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Time step: 3", lines[0])
	assert.Equal(t, ".   A*  .   .   ", lines[1])
	assert.Equal(t, ".   .   .   .   ", lines[2])
	assert.Equal(t, "b   .   .   .   ", lines[3])
	assert.Equal(t, "Passenger A (George): unhappiness prediction 0.25, system unhappiness 1.50", lines[4])
	assert.Equal(t, "Passenger B (Luke): unhappiness prediction 0.00, system unhappiness 0.00", lines[5])
}

func TestRenderGrid_TruncatesCrowdedCells(t *testing.T) {
	var active []dispatch.TripView
	for i := 0; i < 4; i++ {
		active = append(active, dispatch.TripView{
			Passenger: model.PassengerRecord{ID: i}, State: "waiting", Origin: model.Point{X: 0, Y: 0},
		})
	}
	out := RenderGrid(simulator.StepReport{Grid: model.Grid{Width: 1, Height: 1}, Active: active})
	assert.Contains(t, out, "\nABC \n")
}

func TestGridReporter(t *testing.T) {
	var buf bytes.Buffer
	g := NewGridReporter(&buf)
	require.NoError(t, g.Step(simulator.StepReport{Grid: model.Grid{Width: 2, Height: 1}}))
	assert.Equal(t, "Time step: 0\n*   .   \n", buf.String())
	require.NoError(t, g.Finish(simulator.Summary{}))
}

func TestLetter(t *testing.T) {
	assert.Equal(t, "A", Letter(0))
	assert.Equal(t, "Z", Letter(25))
	assert.Equal(t, "A", Letter(26))
}
