// Package scenarios runs scenario files against expected outcomes. A case
// file names a scenario and states whether the run must fail, with which
// error kind, and how many trips it must complete.
package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rideshare/core/model"
)

type Expected struct {
	Fail           bool   `yaml:"fail"`
	ErrorKind      string `yaml:"error_kind,omitempty"`
	TripsCompleted *int   `yaml:"trips_completed,omitempty"`
	Rejected       *int   `yaml:"rejected,omitempty"`
	Steps          *int   `yaml:"steps,omitempty"`
}

type Case struct {
	Name         string      `yaml:"name"`
	Description  string      `yaml:"description,omitempty"`
	Scenario     string      `yaml:"scenario"`
	Grid         *model.Grid `yaml:"grid,omitempty"`
	Origin       model.Point `yaml:"origin,omitempty"`
	RejectPolicy string      `yaml:"reject_policy,omitempty"`
	MaxSteps     int         `yaml:"max_steps,omitempty"`
	Expected     Expected    `yaml:"expected"`

	dir string
}

// ScenarioPath resolves the scenario file relative to the case file.
func (c *Case) ScenarioPath() string {
	if filepath.IsAbs(c.Scenario) || c.dir == "" {
		return c.Scenario
	}
	return filepath.Join(c.dir, c.Scenario)
}

// Load reads a case file.
func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Case
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Scenario == "" {
		return nil, fmt.Errorf("%s: scenario is required", path)
	}
	if c.Name == "" {
		c.Name = filepath.Base(path)
	}
	c.dir = filepath.Dir(path)
	return &c, nil
}

// LoadDir loads every *.yaml case in dir, sorted by file name.
func LoadDir(dir string) ([]*Case, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	cases := make([]*Case, 0, len(files))
	for _, f := range files {
		c, err := Load(f)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}
