// Package export renders step logs for offline analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/rideshare/core/steplog"
)

// Format names accepted by Write.
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatChart = "html"
)

// Write dispatches to the writer matching format.
func Write(w io.Writer, format string, records []steplog.LogRecord) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatChart:
		return WriteChartHTML(w, records)
	default:
		return &UnsupportedFormatError{Format: format}
	}
}

// UnsupportedFormatError reports an unknown export format.
type UnsupportedFormatError struct{ Format string }

func (e *UnsupportedFormatError) Error() string {
	return "unsupported export format " + strconv.Quote(e.Format)
}

// WriteJSON writes the records to w as a JSON array.
func WriteJSON(w io.Writer, records []steplog.LogRecord) error {
	if records == nil {
		records = []steplog.LogRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

var csvHeader = []string{
	"run_id", "step", "timestamp", "vehicle_x", "vehicle_y", "target",
	"in_vehicle", "picked_up", "dropped_off", "active_trips",
	"trips_completed", "avg_unhappiness", "avg_trip_duration",
}

// WriteCSV writes one row per step. Passenger lists are joined with ';'.
func WriteCSV(w io.Writer, records []steplog.LogRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.RunID,
			strconv.Itoa(r.Step),
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.Itoa(r.Vehicle.X),
			strconv.Itoa(r.Vehicle.Y),
			r.Target,
			strings.Join(r.InVehicle, ";"),
			strings.Join(r.PickedUp, ";"),
			strings.Join(r.DroppedOff, ";"),
			strconv.Itoa(len(r.Active)),
			strconv.Itoa(r.Stats.TripsCompleted),
			strconv.FormatFloat(r.Stats.AvgUnhappiness, 'f', -1, 64),
			strconv.FormatFloat(r.Stats.AvgTripDuration, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
