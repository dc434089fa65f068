package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rideshare/core/model"
)

func TestDecode_JSONList(t *testing.T) {
	doc := `[
	  {"requests": [{"name": "George", "start": [1, 1], "end": [7, 3]}]},
	  {"requests": []},
	  {"requests": [{"name": "Vader", "start": [0, 9], "end": [9, 0]},
	                {"name": "Luke", "start": [2, 2], "end": [2, 5]}]}
	]`
	s, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Nil(t, s.Grid)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, 3, s.Requests())
	assert.Equal(t, Request{Name: "George", Start: model.Point{X: 1, Y: 1}, End: model.Point{X: 7, Y: 3}}, s.Steps[0].Requests[0])
	assert.Empty(t, s.Steps[1].Requests)
	assert.Equal(t, 2, s.Steps[2].Step)
	assert.Equal(t, "Luke", s.Steps[2].Requests[1].Name)
}

func TestDecode_YAMLMap(t *testing.T) {
	doc := `
grid: {width: 5, height: 4}
steps:
  - requests:
      - {name: George, start: [1, 1], end: [4, 3]}
  - requests:
`
	s, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.NotNil(t, s.Grid)
	assert.Equal(t, model.Grid{Width: 5, Height: 4}, *s.Grid)
	require.Len(t, s.Steps, 2)
	assert.Len(t, s.Steps[0].Requests, 1)
	assert.Empty(t, s.Steps[1].Requests)
}

func TestDecode_IntegralFloatsAccepted(t *testing.T) {
	s, err := Decode(strings.NewReader(`[{"requests":[{"name":"A","start":[1.0, 2],"end":[3, 4.0]}]}]`))
	require.NoError(t, err)
	assert.Equal(t, model.Point{X: 1, Y: 2}, s.Steps[0].Requests[0].Start)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		step  int
		index int
	}{
		{"empty", ``, -1, -1},
		{"syntax", `[{"requests": [}`, -1, -1},
		{"scalar top level", `42`, -1, -1},
		{"map without steps", `{"grid": {"width": 3, "height": 3}}`, -1, -1},
		{"bad grid", `{"grid": {"width": 0, "height": 3}, "steps": []}`, -1, -1},
		{"step not object", `[[1, 2]]`, 0, -1},
		{"missing requests", `[{"requests": []}, {"reqs": []}]`, 1, -1},
		{"requests not list", `[{"requests": "George"}]`, 0, -1},
		{"request not object", `[{"requests": ["George"]}]`, 0, 0},
		{"missing name", `[{"requests": [{"start": [0, 0], "end": [1, 1]}]}]`, 0, 0},
		{"numeric name", `[{"requests": [{"name": 7, "start": [0, 0], "end": [1, 1]}]}]`, 0, 0},
		{"missing start", `[{"requests": [{"name": "A", "end": [1, 1]}]}]`, 0, 0},
		{"short end", `[{"requests": [{"name": "A", "start": [0, 0], "end": [1]}]}]`, 0, 0},
		{"string coordinate", `[{"requests": [{"name": "A", "start": ["0", 0], "end": [1, 1]}]}]`, 0, 0},
		{"fractional coordinate", `[{"requests": [{"name": "A", "start": [0.5, 0], "end": [1, 1]}]}]`, 0, 0},
		{"second request", `[{"requests": [{"name": "A", "start": [0, 0], "end": [1, 1]}, {"name": "B", "start": {}, "end": [1, 1]}]}]`, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedScenario)
			assert.Equal(t, "malformed_scenario", ErrorKind(err))
			var me *MalformedError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.step, me.Step)
			assert.Equal(t, tt.index, me.Index)
		})
	}
}

func TestMalformedError_Message(t *testing.T) {
	err := malformed(2, 1, "name must be a non-empty string")
	assert.Equal(t, "malformed scenario: step 2 request 1: name must be a non-empty string", err.Error())
	assert.Equal(t, "malformed scenario: step 0: missing requests", malformed(0, -1, "missing requests").Error())
	assert.Empty(t, ErrorKind(errors.New("other")))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "george.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"requests":[{"name":"George","start":[1,1],"end":[7,3]}]}]`), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Requests())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedScenario)
}

func TestScriptSource(t *testing.T) {
	s := &Script{Steps: []Batch{{Step: 0}, {Step: 1, Requests: []Request{{Name: "A"}}}}}
	src := NewScriptSource(s)
	b, ok := src.Next(nil)
	require.True(t, ok)
	assert.Equal(t, 0, b.Step)
	b, ok = src.Next(nil)
	require.True(t, ok)
	assert.Len(t, b.Requests, 1)
	_, ok = src.Next(nil)
	assert.False(t, ok)
	_, ok = NewScriptSource(nil).Next(nil)
	assert.False(t, ok)
}
