package systems

// ThermalParams holds the constants of the perceived-temperature model.
type ThermalParams struct {
	ProximityRadius      float64 // Neighbors closer than this add body heat
	CrowdHeatPerAgent    float64 // Degrees added per nearby agent
	Smoothing            float64 // Weight of the target temperature per update
	HighTempThreshold    float64 // Above this, heat stress accumulates
	TempNormalization    float64
	DensityNormalization float64 // Nearby count at which the density factor saturates
	StressBaseline       float64 // Stress per second above threshold regardless of crowding
	RecoveryRate         float64 // Stress recovered per second below threshold
}

// Params holds every constant of the force model.
type Params struct {
	// Desired force
	RelaxationTime          float64
	DesiredForceFactor      float64
	DesiredAttenuation      float64 // Desired force lost per degree of deviation
	DesiredAttenuationFloor float64

	// Agent-agent repulsion
	SocialA           float64
	SocialB           float64
	SocialRangeFactor float64 // Interaction range as a multiple of the radius sum
	VelocityAlignment float64

	// Obstacle repulsion
	ObstacleA           float64
	ObstacleB           float64
	ObstacleRadius      float64
	ObstacleRangeFactor float64

	// Temperature force
	OptimalTemperature     float64
	TemperatureThreshold   float64
	TemperatureSensitivity float64

	// Density force
	DensityRadius      float64
	DensitySoftening   float64
	OptimalDensity     float64
	DensityThreshold   float64
	DensitySensitivity float64

	// Collapse
	FallThreshold           float64 // Net force limit as a multiple of mass
	CriticalHeatStress      float64
	EnvDensityThreshold     float64
	EnvTemperatureThreshold float64
	EnvDensityRate          float64
	EnvTemperatureRate      float64

	// Integration
	MinSpeedFraction float64
	ArrivalRadius    float64

	// MaxForce bounds any single term and the net force.
	MaxForce float64

	Thermal ThermalParams
}

// DefaultParams returns the calibrated model constants.
func DefaultParams() Params {
	return Params{
		RelaxationTime:          0.5,
		DesiredForceFactor:      2.0,
		DesiredAttenuation:      0.01,
		DesiredAttenuationFloor: 0.7,

		SocialA:           1000,
		SocialB:           0.08,
		SocialRangeFactor: 5,
		VelocityAlignment: 0.5,

		ObstacleA:           1500,
		ObstacleB:           0.1,
		ObstacleRadius:      0.5,
		ObstacleRangeFactor: 3,

		OptimalTemperature:     22,
		TemperatureThreshold:   5,
		TemperatureSensitivity: 0.02,

		DensityRadius:      2.0,
		DensitySoftening:   0.1,
		OptimalDensity:     3.0,
		DensityThreshold:   1,
		DensitySensitivity: 0.04,

		FallThreshold:           20,
		CriticalHeatStress:      20,
		EnvDensityThreshold:     6.0,
		EnvTemperatureThreshold: 15,
		EnvDensityRate:          0.001,
		EnvTemperatureRate:      0.0005,

		MinSpeedFraction: 0.1,
		ArrivalRadius:    0.5,

		MaxForce: 1e9,

		Thermal: ThermalParams{
			ProximityRadius:      1.5,
			CrowdHeatPerAgent:    0.1,
			Smoothing:            0.1,
			HighTempThreshold:    35,
			TempNormalization:    10,
			DensityNormalization: 5,
			StressBaseline:       0.05,
			RecoveryRate:         0.5,
		},
	}
}
