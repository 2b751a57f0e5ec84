// Package main searches crowd settings with CMA-ES for the best
// arrivals-minus-collapses score.
package main

import (
	"math"

	"github.com/pthm-cable/crush/config"
)

// ParamSpec defines a single searchable setting.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all searchable settings.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the crowd settings the calibration searches over.
// Bounds follow the viewer's slider ranges.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "desired_speed", Path: "crowd.desired_speed", Min: 0.1, Max: 2.0, Default: 1.0},
			{Name: "spawn_interval", Path: "crowd.spawn_interval", Min: 0.2, Max: 2.0, Default: 0.5},
			{Name: "max_agents", Path: "crowd.max_agents", Min: 10, Max: 200, Default: 50},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Max(spec.Min, math.Min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Crowd.DesiredSpeed = clamped[0]
	cfg.Crowd.SpawnInterval = clamped[1]
	cfg.Crowd.MaxAgents = int(math.Round(clamped[2]))
}

// ExtractFromConfig extracts current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Crowd.DesiredSpeed,
		cfg.Crowd.SpawnInterval,
		float64(cfg.Crowd.MaxAgents),
	}
}
