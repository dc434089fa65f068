package simulator

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/rideshare/core/dispatch"
)

// Distribution describes a sample of per-trip values.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

// Summary is the outcome of a run.
type Summary struct {
	RunID       string                   `json:"run_id"`
	Steps       int                      `json:"steps"`
	Stats       dispatch.Statistics      `json:"stats"`
	Rejected    int                      `json:"rejected"`
	Unhappiness Distribution             `json:"unhappiness"`
	Duration    Distribution             `json:"duration"`
	Completed   []dispatch.CompletedTrip `json:"completed"`
}

func summarize(runID string, steps, rejected int, stats dispatch.Statistics, completed []dispatch.CompletedTrip) Summary {
	unhappiness := make([]float64, len(completed))
	duration := make([]float64, len(completed))
	for i, c := range completed {
		unhappiness[i] = c.Unhappiness
		duration[i] = float64(c.Duration)
	}
	return Summary{
		RunID:       runID,
		Steps:       steps,
		Stats:       stats,
		Rejected:    rejected,
		Unhappiness: describe(unhappiness),
		Duration:    describe(duration),
		Completed:   completed,
	}
}

func describe(xs []float64) Distribution {
	d := Distribution{Count: len(xs)}
	if len(xs) == 0 {
		return d
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	d.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}
	d.Min = floats.Min(sorted)
	d.Max = floats.Max(sorted)
	d.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	d.P90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return d
}
