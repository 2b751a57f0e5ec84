// Package systems implements the crowd force model and its integrator.
package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/crush/components"
)

// Rand is the random source for stochastic collapse.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Environment is the read-only input shared by every agent in a tick.
type Environment struct {
	Target             r2.Vec
	Obstacles          []r2.Vec
	AmbientTemperature float64
	DesiredSpeed       float64 // Multiplier on each agent's max speed
}

// Transition records an agent leaving the Active state during a tick.
type Transition struct {
	ID     uint32
	Status components.Status
}

// StepReport summarizes one tick.
type StepReport struct {
	Updated     int // Agents that were active at the start of the tick
	Transitions []Transition
}

// Count returns how many agents entered status s during the tick.
func (r StepReport) Count(s components.Status) int {
	n := 0
	for _, t := range r.Transitions {
		if t.Status == s {
			n++
		}
	}
	return n
}

// Engine advances agents through one tick of the force model.
// It is not safe for concurrent use.
type Engine struct {
	params    Params
	neighbors NeighborQuery
	rng       Rand

	// Per-tick scratch
	positions  []r2.Vec
	velocities []r2.Vec
	found      []Neighbor
}

// NewEngine creates an engine. A nil neighbors uses BruteForce.
func NewEngine(params Params, neighbors NeighborQuery, rng Rand) *Engine {
	if neighbors == nil {
		neighbors = NewBruteForce()
	}
	return &Engine{
		params:    params,
		neighbors: neighbors,
		rng:       rng,
	}
}

// Params returns the engine's model constants.
func (e *Engine) Params() Params {
	return e.params
}

// Step advances every active agent by dt seconds.
// Forces for all agents are computed from the start-of-tick state before any
// agent moves, so the result does not depend on slice order.
// Agents in a terminal state are left untouched but still repel and crowd others.
func (e *Engine) Step(agents []*components.Agent, dt float64, env Environment) StepReport {
	var report StepReport

	e.positions = e.positions[:0]
	e.velocities = e.velocities[:0]
	maxRadius := 0.0
	for _, a := range agents {
		e.positions = append(e.positions, a.Position)
		e.velocities = append(e.velocities, a.Velocity)
		maxRadius = math.Max(maxRadius, a.Radius)
	}
	e.neighbors.Rebuild(e.positions)

	// Pass 1: temperature, forces and collapse checks.
	for i, a := range agents {
		if a.Status.Terminal() {
			continue
		}
		report.Updated++
		if s := e.applyForces(agents, i, maxRadius, dt, env); s != components.Active {
			report.Transitions = append(report.Transitions, Transition{ID: a.ID, Status: s})
		}
	}

	// Pass 2: integrate survivors.
	for _, a := range agents {
		if a.Status.Terminal() {
			continue
		}
		if e.integrate(a, dt, env) {
			report.Transitions = append(report.Transitions, Transition{ID: a.ID, Status: a.Status})
		}
	}

	return report
}

// applyForces runs the thermal update and sums the forces on agents[i],
// storing the acceleration and any collapse. It returns the new status.
func (e *Engine) applyForces(agents []*components.Agent, i int, maxRadius, dt float64, env Environment) components.Status {
	p := &e.params
	a := agents[i]
	pos := e.positions[i]
	vel := e.velocities[i]

	radius := math.Max(p.SocialRangeFactor*(a.Radius+maxRadius), math.Max(p.DensityRadius, p.Thermal.ProximityRadius))
	e.found = e.neighbors.Within(e.found[:0], i, radius)

	nearby := 0
	for _, n := range e.found {
		if n.Dist < p.Thermal.ProximityRadius {
			nearby++
		}
	}
	UpdateTemperature(a, nearby, env.AmbientTemperature, dt, p.Thermal)
	tempDeviation := a.Temperature - p.OptimalTemperature

	desiredDir := unitOr(r2.Sub(env.Target, pos), r2.Vec{})
	a.DesiredVelocity = r2.Scale(a.MaxSpeed*env.DesiredSpeed, desiredDir)

	net := desiredForce(a.DesiredVelocity, vel, tempDeviation, p)

	density := 0.0
	for _, n := range e.found {
		other := agents[n.Index]
		minDist := a.Radius + other.Radius
		if n.Dist < minDist*p.SocialRangeFactor {
			relVel := r2.Sub(e.velocities[n.Index], vel)
			net = r2.Add(net, pairRepulsion(a.ID, other.ID, n.Delta, minDist, relVel, p))
		}
		if n.Dist < p.DensityRadius {
			density += 1 / (n.Dist + p.DensitySoftening)
		}
	}
	a.Density = density

	away := r2.Scale(-1, desiredDir)
	for _, obstacle := range env.Obstacles {
		if f, ok := obstacleRepulsion(pos, obstacle, a.Radius, away, p); ok {
			net = r2.Add(net, f)
		}
	}

	net = r2.Add(net, temperatureForce(desiredDir, tempDeviation, p))
	net = r2.Add(net, densityForce(desiredDir, density, p))
	net = limitMagnitude(net, p.MaxForce)

	a.Acceleration = r2.Scale(1/a.Mass, net)

	if r2.Norm(net) > p.FallThreshold*a.Mass {
		a.Status = components.CollapsedCollision
	}
	if a.HeatStress >= p.CriticalHeatStress {
		a.Status = components.CollapsedHeat
	}
	if chance, applies := environmentalCollapseChance(density, tempDeviation, p); applies {
		if e.rng.Float64() < chance {
			if math.Abs(tempDeviation) > p.EnvTemperatureThreshold {
				a.Status = components.CollapsedHeat
			} else {
				a.Status = components.CollapsedCollision
			}
		}
	}
	return a.Status
}

// integrate applies semi-implicit Euler to an active agent.
// It reports whether the agent arrived.
func (e *Engine) integrate(a *components.Agent, dt float64, env Environment) bool {
	p := &e.params

	a.Velocity = r2.Add(a.Velocity, r2.Scale(dt, a.Acceleration))

	maxSpeed := a.MaxSpeed * env.DesiredSpeed
	speed := r2.Norm(a.Velocity)
	if speed > maxSpeed {
		a.Velocity = r2.Scale(maxSpeed/speed, a.Velocity)
	}
	// Keep stalled agents creeping toward the target.
	if speed < p.MinSpeedFraction*maxSpeed {
		dir := unitOr(r2.Sub(env.Target, a.Position), r2.Vec{})
		a.Velocity = r2.Scale(p.MinSpeedFraction*maxSpeed, dir)
	}

	a.Position = r2.Add(a.Position, r2.Scale(dt, a.Velocity))

	if distance(a.Position, env.Target) < p.ArrivalRadius {
		a.Status = components.Arrived
		return true
	}
	return false
}
