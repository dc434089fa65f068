package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/kilianp07/rideshare/core/dispatch"
	"github.com/kilianp07/rideshare/simulator"
)

const (
	cellWidth = 4
	cellLimit = 3
)

// GridReporter draws the grid after every step. A waiting passenger is shown
// as an upper-case letter at the pickup point, a passenger on board as a
// lower-case letter at the destination and the vehicle as '*'. Letters follow
// passenger IDs: A for 0, B for 1 and so on.
type GridReporter struct {
	w io.Writer
}

// NewGridReporter writes to w.
func NewGridReporter(w io.Writer) *GridReporter { return &GridReporter{w: w} }

// Step implements simulator.Reporter.
func (g *GridReporter) Step(s simulator.StepReport) error {
	_, err := io.WriteString(g.w, RenderGrid(s))
	return err
}

// Finish implements simulator.Reporter.
func (g *GridReporter) Finish(simulator.Summary) error { return nil }

// RenderGrid returns the map and the per-passenger scores of a step.
func RenderGrid(s simulator.StepReport) string {
	w, h := s.Grid.Width, s.Grid.Height
	cells := make([][]string, h)
	for y := range cells {
		cells[y] = make([]string, w)
	}
	add := func(x, y int, mark string) {
		if x < 0 || y < 0 || x >= w || y >= h {
			return
		}
		c := cells[y][x] + mark
		if len(c) > cellLimit {
			c = c[:cellLimit]
		}
		cells[y][x] = c
	}
	for _, t := range s.Active {
		if t.State == dispatch.TripWaiting.String() {
			add(t.Origin.X, t.Origin.Y, Letter(t.Passenger.ID))
		} else {
			add(t.Destination.X, t.Destination.Y, strings.ToLower(Letter(t.Passenger.ID)))
		}
	}
	add(s.Vehicle.X, s.Vehicle.Y, "*")

	var b strings.Builder
	fmt.Fprintf(&b, "Time step: %d\n", s.Time)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := cells[y][x]
			if c == "" {
				c = "."
			}
			fmt.Fprintf(&b, "%-*s", cellWidth, c)
		}
		b.WriteByte('\n')
	}
	for _, t := range s.Active {
		fmt.Fprintf(&b, "Passenger %s (%s): unhappiness prediction %.2f, system unhappiness %.2f\n",
			Letter(t.Passenger.ID), t.Passenger.Name, t.Predicted, t.SystemScore)
	}
	return b.String()
}

// Letter maps a passenger ID to its map symbol.
func Letter(id int) string {
	if id < 0 {
		id = -id
	}
	return string(rune('A' + id%26))
}
