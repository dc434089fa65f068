// Package scenario supplies ride requests to a simulation run, one batch per
// time step. Requests come either from a scenario file or from a seeded
// random generator.
//
// A scenario file is JSON or YAML. Its top level is either a list of steps
// or a map with an optional grid and a steps list:
//
//	[
//	  {"requests": [{"name": "George", "start": [1, 1], "end": [7, 3]}]},
//	  {"requests": []}
//	]
//
//	grid: {width: 10, height: 10}
//	steps:
//	  - requests:
//	      - {name: George, start: [1, 1], end: [7, 3]}
package scenario
