package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rideshare/core/model"
)

// Script is a decoded scenario file.
type Script struct {
	// Grid is set when the file declares its own dimensions.
	Grid  *model.Grid
	Steps []Batch
}

// Load reads and decodes the scenario file at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode parses a JSON or YAML scenario document.
func Decode(r io.Reader) (*Script, error) {
	var raw any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, malformed(-1, -1, "empty document")
		}
		return nil, malformed(-1, -1, "%v", err)
	}
	return FromValue(raw)
}

// FromValue builds a Script from an already decoded document.
func FromValue(raw any) (*Script, error) {
	var s Script
	var steps []any
	switch v := raw.(type) {
	case []any:
		steps = v
	case map[string]any:
		if g, ok := v["grid"]; ok {
			grid, err := decodeGrid(g)
			if err != nil {
				return nil, err
			}
			s.Grid = &grid
		}
		list, ok := v["steps"].([]any)
		if !ok {
			return nil, malformed(-1, -1, "missing steps list")
		}
		steps = list
	default:
		return nil, malformed(-1, -1, "top level must be a list of steps")
	}

	s.Steps = make([]Batch, 0, len(steps))
	for i, st := range steps {
		b, err := decodeStep(i, st)
		if err != nil {
			return nil, err
		}
		s.Steps = append(s.Steps, b)
	}
	return &s, nil
}

// Requests returns the number of requests across all steps.
func (s *Script) Requests() int {
	n := 0
	for _, b := range s.Steps {
		n += len(b.Requests)
	}
	return n
}

func decodeGrid(raw any) (model.Grid, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return model.Grid{}, malformed(-1, -1, "grid must be a map")
	}
	w, err := toInt(m["width"])
	if err != nil {
		return model.Grid{}, malformed(-1, -1, "grid width: %v", err)
	}
	h, err := toInt(m["height"])
	if err != nil {
		return model.Grid{}, malformed(-1, -1, "grid height: %v", err)
	}
	g := model.Grid{Width: w, Height: h}
	if err := g.Validate(); err != nil {
		return model.Grid{}, malformed(-1, -1, "%v", err)
	}
	return g, nil
}

func decodeStep(step int, raw any) (Batch, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Batch{}, malformed(step, -1, "step must be an object")
	}
	rv, ok := m["requests"]
	if !ok {
		return Batch{}, malformed(step, -1, "missing requests")
	}
	b := Batch{Step: step}
	if rv == nil {
		return b, nil
	}
	list, ok := rv.([]any)
	if !ok {
		return Batch{}, malformed(step, -1, "requests must be a list")
	}
	b.Requests = make([]Request, 0, len(list))
	for i, r := range list {
		req, err := decodeRequest(step, i, r)
		if err != nil {
			return Batch{}, err
		}
		b.Requests = append(b.Requests, req)
	}
	return b, nil
}

func decodeRequest(step, index int, raw any) (Request, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Request{}, malformed(step, index, "request must be an object")
	}
	name, ok := m["name"].(string)
	if !ok || name == "" {
		return Request{}, malformed(step, index, "name must be a non-empty string")
	}
	start, err := decodePoint(m["start"])
	if err != nil {
		return Request{}, malformed(step, index, "start: %v", err)
	}
	end, err := decodePoint(m["end"])
	if err != nil {
		return Request{}, malformed(step, index, "end: %v", err)
	}
	return Request{Name: name, Start: start, End: end}, nil
}

func decodePoint(raw any) (model.Point, error) {
	if raw == nil {
		return model.Point{}, errors.New("missing")
	}
	list, ok := raw.([]any)
	if !ok || len(list) != 2 {
		return model.Point{}, errors.New("must be a [x, y] pair")
	}
	x, err := toInt(list[0])
	if err != nil {
		return model.Point{}, fmt.Errorf("x: %w", err)
	}
	y, err := toInt(list[1])
	if err != nil {
		return model.Point{}, fmt.Errorf("y: %w", err)
	}
	return model.Point{X: x, Y: y}, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("%d out of range", n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case nil:
		return 0, errors.New("missing")
	default:
		return 0, fmt.Errorf("%v is not a number", v)
	}
}

// ScriptSource replays a Script one step at a time.
type ScriptSource struct {
	script *Script
	next   int
}

// NewScriptSource returns a Source over s.
func NewScriptSource(s *Script) *ScriptSource {
	return &ScriptSource{script: s}
}

// Next returns the following step of the script.
func (s *ScriptSource) Next(ActivityChecker) (Batch, bool) {
	if s.script == nil || s.next >= len(s.script.Steps) {
		return Batch{}, false
	}
	b := s.script.Steps[s.next]
	s.next++
	return b, true
}
