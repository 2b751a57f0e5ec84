package sim

import (
	"github.com/pthm-cable/crush/config"
	"github.com/pthm-cable/crush/systems"
)

// ParamsFromConfig maps the model section of the config onto engine constants.
func ParamsFromConfig(m config.ModelConfig) systems.Params {
	return systems.Params{
		RelaxationTime:          m.RelaxationTime,
		DesiredForceFactor:      m.DesiredForceFactor,
		DesiredAttenuation:      m.DesiredAttenuation,
		DesiredAttenuationFloor: m.DesiredAttenuationFloor,

		SocialA:           m.SocialA,
		SocialB:           m.SocialB,
		SocialRangeFactor: m.SocialRangeFactor,
		VelocityAlignment: m.VelocityAlignment,

		ObstacleA:           m.ObstacleA,
		ObstacleB:           m.ObstacleB,
		ObstacleRadius:      m.ObstacleRadius,
		ObstacleRangeFactor: m.ObstacleRangeFactor,

		OptimalTemperature:     m.OptimalTemperature,
		TemperatureThreshold:   m.TemperatureThreshold,
		TemperatureSensitivity: m.TemperatureSensitivity,

		DensityRadius:      m.DensityRadius,
		DensitySoftening:   m.DensitySoftening,
		OptimalDensity:     m.OptimalDensity,
		DensityThreshold:   m.DensityThreshold,
		DensitySensitivity: m.DensitySensitivity,

		FallThreshold:           m.FallThreshold,
		CriticalHeatStress:      m.CriticalHeatStress,
		EnvDensityThreshold:     m.EnvDensityThreshold,
		EnvTemperatureThreshold: m.EnvTemperatureThreshold,
		EnvDensityRate:          m.EnvDensityRate,
		EnvTemperatureRate:      m.EnvTemperatureRate,

		MinSpeedFraction: m.MinSpeedFraction,
		ArrivalRadius:    m.ArrivalRadius,
		MaxForce:         m.MaxForce,

		Thermal: systems.ThermalParams{
			ProximityRadius:      m.Thermal.ProximityRadius,
			CrowdHeatPerAgent:    m.Thermal.CrowdHeatPerAgent,
			Smoothing:            m.Thermal.Smoothing,
			HighTempThreshold:    m.Thermal.HighTempThreshold,
			TempNormalization:    m.Thermal.TempNormalization,
			DensityNormalization: m.Thermal.DensityNormalization,
			StressBaseline:       m.Thermal.StressBaseline,
			RecoveryRate:         m.Thermal.RecoveryRate,
		},
	}
}
