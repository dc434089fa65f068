// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - StepEvent: state of the simulation after a time step
//   - RejectedEvent: a ride request refused by the dispatcher
//   - RunEvent: start or end of a simulation run
package events
