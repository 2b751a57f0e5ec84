package sim

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/crush/components"
	"github.com/pthm-cable/crush/config"
	"github.com/pthm-cable/crush/systems"
)

// NewAgent draws a fresh pedestrian standing at at.
// The store assigns the ID when the agent is spawned.
func NewAgent(at r2.Vec, baseSpeed, ambient float64, sc config.SpawnConfig, rng systems.Rand) components.Agent {
	pos := at
	if sc.Jitter > 0 {
		pos.X += (rng.Float64()*2 - 1) * sc.Jitter
		pos.Y += (rng.Float64()*2 - 1) * sc.Jitter
	}

	return components.Agent{
		Position:    pos,
		Mass:        uniform(rng, sc.Mass),
		Radius:      uniform(rng, sc.Radius),
		MaxSpeed:    baseSpeed * uniform(rng, sc.SpeedFactor),
		Status:      components.Active,
		Temperature: ambient,
		Color: components.Color{
			R: channel(rng, 0.1, 0.3),
			G: channel(rng, 0.4, 0.3),
			B: channel(rng, 0.6, 0.3),
		},
	}
}

func uniform(rng systems.Rand, r config.Range) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// channel draws base + U[0, spread) as an 8-bit color channel.
func channel(rng systems.Rand, base, spread float64) uint8 {
	return uint8((base + rng.Float64()*spread) * 255)
}
