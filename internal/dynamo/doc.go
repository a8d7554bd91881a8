// Package dynamo provides the core primitives shared by the orbital engine.
//
//   - [BodyID]: stable identity of a simulated body
//   - [State]: inertial position and velocity (metres, metres/second)
//   - [Snapshot]: state plus rotation phase as handed to consumers
//   - sentinel errors for resolution and element failures
//
// Vectors are gonum r3.Vec values; all arithmetic goes through the r3
// package functions.
//
// # Example
//
//	rel, _ := el.ToCartesian(mu)
//	abs := rel.Add(parent)
//	if !abs.IsValid() {
//	    return dynamo.ErrInvalidState
//	}
package dynamo
