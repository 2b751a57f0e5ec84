// Package components defines the per-pedestrian data stored by the simulation.
package components

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Status is the lifecycle state of an agent.
// Every state other than Active is terminal.
type Status uint8

const (
	Active Status = iota
	CollapsedCollision
	CollapsedHeat
	Arrived
)

// String returns the status name used in logs, CSV and observer frames.
func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case CollapsedCollision:
		return "collapsed_collision"
	case CollapsedHeat:
		return "collapsed_heat"
	case Arrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// Terminal reports whether the agent no longer takes part in the update.
func (s Status) Terminal() bool { return s != Active }

// Fallen reports whether the agent collapsed, by either cause.
func (s Status) Fallen() bool {
	return s == CollapsedCollision || s == CollapsedHeat
}

// Color is a display-only RGB triple.
type Color struct {
	R, G, B uint8
}

// Agent holds one pedestrian.
// Positions and vectors live on the ground plane in meters.
type Agent struct {
	ID uint32 // Spawn order

	Position        r2.Vec
	Velocity        r2.Vec
	DesiredVelocity r2.Vec // Direction toward target scaled by max speed
	Acceleration    r2.Vec // Net force / mass from the last tick

	// Fixed at spawn
	Mass     float64
	Radius   float64
	MaxSpeed float64

	Status Status

	// Thermal state
	Temperature    float64 // Perceived temperature, degrees C
	HeatStress     float64 // Never negative
	TimeInHighTemp float64 // Seconds spent continuously above the high-temperature threshold

	Density float64 // Local density seen by the last force pass

	Color Color
}

// Speed returns the magnitude of the agent's velocity.
func (a *Agent) Speed() float64 {
	return r2.Norm(a.Velocity)
}
