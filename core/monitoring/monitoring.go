// Package monitoring defines the error reporting hook used by the simulator.
// A process-wide monitor is installed once with Init; until then every call
// is a no-op.
package monitoring

import "time"

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation. Passing nil restores the
// no-op monitor.
func Init(m Monitor) {
	if m == nil {
		m = NopMonitor{}
	}
	current = m
}

// Current returns the installed monitor.
func Current() Monitor { return current }

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	current.CaptureException(err, tags)
}

// Recover captures panics in goroutines.
func Recover() { current.Recover() }

// Flush flushes buffered events.
func Flush(d time.Duration) { current.Flush(d) }
