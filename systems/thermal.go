package systems

import (
	"math"

	"github.com/pthm-cable/crush/components"
)

// UpdateTemperature moves the agent's perceived temperature toward ambient
// plus body heat from nearby agents, then accumulates or recovers heat stress.
// nearby is the number of other agents within the proximity radius.
func UpdateTemperature(a *components.Agent, nearby int, ambient, dt float64, p ThermalParams) {
	target := ambient + float64(nearby)*p.CrowdHeatPerAgent
	a.Temperature = a.Temperature*(1-p.Smoothing) + target*p.Smoothing

	if a.Temperature > p.HighTempThreshold {
		tempFactor := (a.Temperature - p.HighTempThreshold) / p.TempNormalization
		densityFactor := math.Min(1, float64(nearby)/p.DensityNormalization)
		a.HeatStress += (tempFactor*densityFactor + p.StressBaseline) * dt
		a.TimeInHighTemp += dt
		return
	}

	a.HeatStress = math.Max(0, a.HeatStress-p.RecoveryRate*dt)
	a.TimeInHighTemp = 0
}
