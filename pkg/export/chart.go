package export

import (
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/rideshare/core/steplog"
)

// WriteChartHTML renders an HTML page plotting, per step, the number of
// active trips and the running average unhappiness.
func WriteChartHTML(w io.Writer, records []steplog.LogRecord) error {
	line := charts.NewLine()
	title := "Ride-share run"
	if len(records) > 0 && records[0].RunID != "" {
		title += " " + records[0].RunID
	}
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time step"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Value"}),
	)

	xAxis := make([]string, 0, len(records))
	active := make([]opts.LineData, 0, len(records))
	unhappiness := make([]opts.LineData, 0, len(records))
	completed := make([]opts.LineData, 0, len(records))
	for _, r := range records {
		xAxis = append(xAxis, strconv.Itoa(r.Step))
		active = append(active, opts.LineData{Value: len(r.Active)})
		unhappiness = append(unhappiness, opts.LineData{Value: r.Stats.AvgUnhappiness})
		completed = append(completed, opts.LineData{Value: r.Stats.TripsCompleted})
	}
	line.SetXAxis(xAxis).
		AddSeries("Active trips", active).
		AddSeries("Average unhappiness", unhappiness).
		AddSeries("Trips completed", completed)
	return line.Render(w)
}
