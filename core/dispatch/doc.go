// Package dispatch implements the single-vehicle ride-share scheduler.
//
// A Dispatcher owns one Vehicle and the set of active Trips. Each call to
// Step advances the simulation by one discrete time unit:
//
//  1. The vehicle moves one grid cell towards the goal of the current target
//     trip (pickup origin or dropoff destination).
//  2. Every active trip is ticked against the new vehicle position; trips
//     flip to in-transit or completed when the vehicle occupies their origin
//     or destination, whether or not they are the target.
//  3. Completed trips are folded into the running statistics and removed.
//  4. If anything changed (pickup, dropoff or a new request) the target is
//     recomputed by minimising the systemic unhappiness score.
//
// Scores are only recalculated on change so the target does not thrash while
// trips make steady progress. The package is single-threaded: a Dispatcher
// must not be used from multiple goroutines.
package dispatch
