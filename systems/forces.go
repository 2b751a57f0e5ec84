package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// desiredForce returns the relaxation force toward the desired velocity,
// attenuated when the perceived temperature strays from optimal.
func desiredForce(desiredVel, vel r2.Vec, tempDeviation float64, p *Params) r2.Vec {
	f := r2.Scale(p.DesiredForceFactor/p.RelaxationTime, r2.Sub(desiredVel, vel))
	attenuation := math.Max(p.DesiredAttenuationFloor, 1-math.Abs(tempDeviation)*p.DesiredAttenuation)
	return r2.Scale(attenuation, f)
}

// pairDirection is the unit vector pushing self away from other.
// Coincident pairs separate along X by ID order so the pair stays antisymmetric.
func pairDirection(selfID, otherID uint32, delta r2.Vec) r2.Vec {
	fallback := r2.Vec{X: 1}
	if selfID > otherID {
		fallback = r2.Vec{X: -1}
	}
	return unitOr(delta, fallback)
}

// pairRepulsion is the social force exerted on self by other.
// delta is self minus other and relVel is other's velocity minus self's.
func pairRepulsion(selfID, otherID uint32, delta r2.Vec, minDist float64, relVel r2.Vec, p *Params) r2.Vec {
	dir := pairDirection(selfID, otherID, delta)
	dist := r2.Norm(delta)

	mag := finiteOr(p.SocialA*math.Exp((minDist-dist)/p.SocialB), p.MaxForce)
	f := r2.Scale(mag, dir)

	if closing := r2.Dot(relVel, dir) * p.VelocityAlignment; closing > 0 {
		f = r2.Add(f, r2.Scale(closing, dir))
	}
	return f
}

// obstacleRepulsion is the force a point obstacle exerts on an agent of the given radius.
// ok is false when the obstacle is out of range.
func obstacleRepulsion(pos, obstacle r2.Vec, radius float64, awayFromTarget r2.Vec, p *Params) (f r2.Vec, ok bool) {
	delta := r2.Sub(pos, obstacle)
	dist := r2.Norm(delta)
	minDist := radius + p.ObstacleRadius
	if dist >= minDist*p.ObstacleRangeFactor {
		return r2.Vec{}, false
	}

	fallback := awayFromTarget
	if fallback == (r2.Vec{}) {
		fallback = r2.Vec{X: 1}
	}
	dir := unitOr(delta, fallback)
	mag := finiteOr(p.ObstacleA*math.Exp((minDist-dist)/p.ObstacleB), p.MaxForce)
	return r2.Scale(mag, dir), true
}

// temperatureForce slows an agent whose perceived temperature is far from optimal.
func temperatureForce(desiredDir r2.Vec, tempDeviation float64, p *Params) r2.Vec {
	dev := math.Abs(tempDeviation)
	if dev <= p.TemperatureThreshold {
		return r2.Vec{}
	}
	return r2.Scale(-p.TemperatureSensitivity*dev, desiredDir)
}

// densityForce slows an agent in an overcrowded area.
func densityForce(desiredDir r2.Vec, density float64, p *Params) r2.Vec {
	excess := density - p.OptimalDensity
	if excess <= p.DensityThreshold {
		return r2.Vec{}
	}
	return r2.Scale(-p.DensitySensitivity*excess, desiredDir)
}

// environmentalCollapseChance is the per-tick probability of a stochastic collapse.
// applies is false when neither density nor temperature is extreme enough to draw.
func environmentalCollapseChance(density, tempDeviation float64, p *Params) (chance float64, applies bool) {
	dev := math.Abs(tempDeviation)
	if density <= p.EnvDensityThreshold && dev <= p.EnvTemperatureThreshold {
		return 0, false
	}
	return (density-p.EnvDensityThreshold)*p.EnvDensityRate + dev*p.EnvTemperatureRate, true
}
