package scenarios

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kilianp07/rideshare/core/dispatch"
	corelogger "github.com/kilianp07/rideshare/core/logger"
	"github.com/kilianp07/rideshare/infra/logger"
	"github.com/kilianp07/rideshare/scenario"
	"github.com/kilianp07/rideshare/simulator"
)

// KindStepLimit is reported when a run exceeds its step bound.
const KindStepLimit = "step_limit"

// Result is the outcome of one case.
type Result struct {
	Case       *Case
	Failed     bool
	Kind       string
	Err        error
	Summary    simulator.Summary
	Mismatches []string
}

// Passed reports whether the outcome matched the expectation.
func (r Result) Passed() bool { return len(r.Mismatches) == 0 }

// Run executes c and compares the outcome with c.Expected.
func Run(ctx context.Context, c *Case, log corelogger.Logger) Result {
	if log == nil {
		log = logger.NopLogger{}
	}
	res := Result{Case: c}
	sum, err := execute(ctx, c, log)
	res.Summary = sum
	if err != nil {
		res.Failed = true
		res.Err = err
		res.Kind = errorKind(err)
	}
	res.Mismatches = compare(c.Expected, res)
	return res
}

func execute(ctx context.Context, c *Case, log corelogger.Logger) (simulator.Summary, error) {
	script, err := scenario.Load(c.ScenarioPath())
	if err != nil {
		return simulator.Summary{}, err
	}
	dcfg := dispatch.DefaultConfig()
	if script.Grid != nil {
		dcfg.Grid = *script.Grid
	}
	if c.Grid != nil {
		dcfg.Grid = *c.Grid
	}
	dcfg.Origin = c.Origin
	disp, err := dispatch.New(dcfg, log)
	if err != nil {
		return simulator.Summary{}, err
	}
	scfg := simulator.Config{RejectPolicy: c.RejectPolicy, MaxSteps: c.MaxSteps}
	scfg.SetDefaults()
	runner, err := simulator.NewRunner(scfg, disp, scenario.NewScriptSource(script), simulator.WithLogger(log))
	if err != nil {
		return simulator.Summary{}, err
	}
	return runner.Run(ctx)
}

func errorKind(err error) string {
	if k := scenario.ErrorKind(err); k != "" {
		return k
	}
	if errors.Is(err, simulator.ErrStepLimit) {
		return KindStepLimit
	}
	return dispatch.ErrorKind(err)
}

func compare(exp Expected, res Result) []string {
	var out []string
	switch {
	case exp.Fail && !res.Failed:
		out = append(out, "unexpectedly succeeded")
	case !exp.Fail && res.Failed:
		out = append(out, fmt.Sprintf("unexpectedly failed: %v", res.Err))
	}
	if exp.Fail && exp.ErrorKind != "" && res.Failed && exp.ErrorKind != res.Kind {
		out = append(out, fmt.Sprintf("error kind %q, want %q", res.Kind, exp.ErrorKind))
	}
	if exp.TripsCompleted != nil && *exp.TripsCompleted != res.Summary.Stats.TripsCompleted {
		out = append(out, fmt.Sprintf("trips completed %d, want %d", res.Summary.Stats.TripsCompleted, *exp.TripsCompleted))
	}
	if exp.Rejected != nil && *exp.Rejected != res.Summary.Rejected {
		out = append(out, fmt.Sprintf("rejected %d, want %d", res.Summary.Rejected, *exp.Rejected))
	}
	if exp.Steps != nil && *exp.Steps != res.Summary.Steps {
		out = append(out, fmt.Sprintf("steps %d, want %d", res.Summary.Steps, *exp.Steps))
	}
	return out
}

// RunAll executes every case, printing one line per case to w. It returns
// the number of cases whose outcome did not match.
func RunAll(ctx context.Context, cases []*Case, w io.Writer, log corelogger.Logger) (int, error) {
	failed := 0
	for _, c := range cases {
		res := Run(ctx, c, log)
		var err error
		if res.Passed() {
			verb := "succeeded"
			if res.Failed {
				verb = "failed"
			}
			_, err = fmt.Fprintf(w, "PASS %s: %s as expected\n", c.Name, verb)
		} else {
			failed++
			_, err = fmt.Fprintf(w, "FAIL %s: %s\n", c.Name, strings.Join(res.Mismatches, "; "))
		}
		if err != nil {
			return failed, err
		}
	}
	_, err := fmt.Fprintf(w, "%d/%d scenarios passed\n", len(cases)-failed, len(cases))
	return failed, err
}
