// Package report renders simulation runs for humans: a line oriented step
// log, an ASCII map of the grid, and the end of run statistics.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/kilianp07/rideshare/simulator"
)

// TextReporter prints the vehicle position and passenger movements of
// every step.
type TextReporter struct {
	w io.Writer
}

// NewTextReporter writes to w.
func NewTextReporter(w io.Writer) *TextReporter { return &TextReporter{w: w} }

// Step implements simulator.Reporter.
func (r *TextReporter) Step(s simulator.StepReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Time step: %d, car at: %s\n", s.Time, s.Vehicle)
	fmt.Fprintf(&b, "Current passengers: %s\n", joinNames(s.InVehicle, "None"))
	if len(s.PickedUp) > 0 {
		fmt.Fprintf(&b, "Pickups: %s\n", joinNames(s.PickedUp, ""))
	}
	if len(s.DroppedOff) > 0 {
		fmt.Fprintf(&b, "Dropoffs: %s\n", joinNames(s.DroppedOff, ""))
	}
	for _, rej := range s.Rejected {
		fmt.Fprintf(&b, "Rejected: %s (%s)\n", rej.Name, rej.Kind)
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Finish implements simulator.Reporter.
func (r *TextReporter) Finish(s simulator.Summary) error {
	return WriteSummary(r.w, s)
}

// WriteSummary prints the end of run statistics.
func WriteSummary(w io.Writer, s simulator.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nRun %s complete after %d steps\n", s.RunID, s.Steps)
	fmt.Fprintf(&b, "Trips completed: %d\n", s.Stats.TripsCompleted)
	if s.Rejected > 0 {
		fmt.Fprintf(&b, "Requests rejected: %d\n", s.Rejected)
	}
	fmt.Fprintf(&b, "Average unhappiness: %.3f\n", s.Stats.AvgUnhappiness)
	fmt.Fprintf(&b, "Average trip time: %.3f\n", s.Stats.AvgTripDuration)
	if s.Unhappiness.Count > 1 {
		fmt.Fprintf(&b, "Unhappiness: std dev %.3f, median %.3f, p90 %.3f, worst %.3f\n",
			s.Unhappiness.StdDev, s.Unhappiness.Median, s.Unhappiness.P90, s.Unhappiness.Max)
		fmt.Fprintf(&b, "Trip time: std dev %.3f, median %.0f, p90 %.0f, longest %.0f\n",
			s.Duration.StdDev, s.Duration.Median, s.Duration.P90, s.Duration.Max)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func joinNames(names []string, ifEmpty string) string {
	if len(names) == 0 {
		return ifEmpty
	}
	return strings.Join(names, ", ")
}
