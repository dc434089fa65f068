package scenario

import (
	"errors"
	"fmt"
)

// ErrMalformedScenario is matched by every decoding failure.
var ErrMalformedScenario = errors.New("malformed scenario")

// MalformedError locates a decoding failure. Step and Index are zero based
// and -1 when the problem is not tied to a step or request.
type MalformedError struct {
	Step   int
	Index  int
	Reason string
}

func (e *MalformedError) Error() string {
	switch {
	case e.Step < 0:
		return fmt.Sprintf("%s: %s", ErrMalformedScenario, e.Reason)
	case e.Index < 0:
		return fmt.Sprintf("%s: step %d: %s", ErrMalformedScenario, e.Step, e.Reason)
	default:
		return fmt.Sprintf("%s: step %d request %d: %s", ErrMalformedScenario, e.Step, e.Index, e.Reason)
	}
}

func (e *MalformedError) Unwrap() error { return ErrMalformedScenario }

func malformed(step, index int, format string, args ...any) error {
	return &MalformedError{Step: step, Index: index, Reason: fmt.Sprintf(format, args...)}
}

// ErrorKind returns "malformed_scenario" for decoding failures and "" otherwise.
func ErrorKind(err error) string {
	if errors.Is(err, ErrMalformedScenario) {
		return "malformed_scenario"
	}
	return ""
}
