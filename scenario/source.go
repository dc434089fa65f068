package scenario

import "github.com/kilianp07/rideshare/core/model"

// Request is a single ride request.
type Request struct {
	Name  string      `json:"name" yaml:"name"`
	Start model.Point `json:"start" yaml:"start"`
	End   model.Point `json:"end" yaml:"end"`
}

// Batch holds the requests submitted during one time step.
type Batch struct {
	Step     int       `json:"step"`
	Requests []Request `json:"requests"`
}

// ActivityChecker reports whether a passenger currently has an active trip.
type ActivityChecker interface {
	IsPassengerActive(name string) bool
}

// Source yields request batches. Next returns false once the source is
// exhausted; the run then stops accepting requests.
type Source interface {
	Next(active ActivityChecker) (Batch, bool)
}
