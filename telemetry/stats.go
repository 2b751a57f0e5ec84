package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Active             int `csv:"active"`
	CollapsedCollision int `csv:"collapsed_collision"`
	CollapsedHeat      int `csv:"collapsed_heat"`
	TotalArrived       int `csv:"total_arrived"`

	// Events during window
	Spawned       int     `csv:"spawned"`
	SpawnsBlocked int     `csv:"spawns_blocked"`
	Collisions    int     `csv:"collisions"`
	HeatCollapses int     `csv:"heat_collapses"`
	Arrivals      int     `csv:"arrivals"`
	CollapseRate  float64 `csv:"collapse_rate"` // Collapses per simulated second
	PeakActive    int     `csv:"peak_active"`

	// Speed of active agents (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Thermal state
	TempMean       float64 `csv:"temp_mean"`
	TempP90        float64 `csv:"temp_p90"`
	HeatStressMean float64 `csv:"heat_stress_mean"`
	HeatStressP90  float64 `csv:"heat_stress_p90"`
	HeatStressPeak float64 `csv:"heat_stress_peak"` // Max over every tick of the window

	// Local density
	DensityMean float64 `csv:"density_mean"`
	DensityP90  float64 `csv:"density_p90"`
	DensityPeak float64 `csv:"density_peak"`
}

// Collapses returns collapses of either cause during the window.
func (s WindowStats) Collapses() int {
	return s.Collisions + s.HeatCollapses
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Percentile calculates the p-th percentile of a sorted slice using the
// piecewise-linear empirical CDF. p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// ComputeDistribution calculates mean, population std and percentiles.
// The input is not modified.
func ComputeDistribution(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("active", s.Active),
		slog.Int("collapsed_collision", s.CollapsedCollision),
		slog.Int("collapsed_heat", s.CollapsedHeat),
		slog.Int("total_arrived", s.TotalArrived),
		slog.Int("spawned", s.Spawned),
		slog.Int("spawns_blocked", s.SpawnsBlocked),
		slog.Int("collisions", s.Collisions),
		slog.Int("heat_collapses", s.HeatCollapses),
		slog.Int("arrivals", s.Arrivals),
		slog.Float64("collapse_rate", s.CollapseRate),
		slog.Int("peak_active", s.PeakActive),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("temp_mean", s.TempMean),
		slog.Float64("heat_stress_mean", s.HeatStressMean),
		slog.Float64("heat_stress_peak", s.HeatStressPeak),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_peak", s.DensityPeak),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
