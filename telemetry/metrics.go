package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pthm-cable/crush/components"
)

// Metrics bundles the Prometheus gauges and counters that mirror crowd state.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	Agents       *prometheus.GaugeVec
	Transitions  *prometheus.CounterVec
	Spawns       prometheus.Counter
	PeakDensity  prometheus.Gauge
	PeakStress   prometheus.Gauge
	TickDuration prometheus.Histogram
}

// NewMetrics registers crowd metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	agents, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "crush_agents",
		Help: "Agents currently stored, labeled by status.",
	}, []string{"status"}), "crush_agents")
	if err != nil {
		return nil, err
	}
	transitions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crush_transitions_total",
		Help: "Agents leaving the active state, labeled by resulting status.",
	}, []string{"status"}), "crush_transitions_total")
	if err != nil {
		return nil, err
	}
	spawns, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crush_spawns_total",
		Help: "Agents spawned at the start point.",
	}), "crush_spawns_total")
	if err != nil {
		return nil, err
	}
	density, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "crush_density_peak",
		Help: "Highest local density among active agents at the last tick.",
	}), "crush_density_peak")
	if err != nil {
		return nil, err
	}
	stress, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "crush_heat_stress_peak",
		Help: "Highest heat stress among active agents at the last tick.",
	}), "crush_heat_stress_peak")
	if err != nil {
		return nil, err
	}
	tick, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "crush_tick_duration_seconds",
		Help:    "Wall-clock time spent in one simulation tick.",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
	}), "crush_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:     gatherer,
		Agents:       agents,
		Transitions:  transitions,
		Spawns:       spawns,
		PeakDensity:  density,
		PeakStress:   stress,
		TickDuration: tick,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetCounts publishes per-status agent counts.
func (m *Metrics) SetCounts(active, collision, heat, arrived int) {
	if m == nil {
		return
	}
	m.Agents.WithLabelValues(components.Active.String()).Set(float64(active))
	m.Agents.WithLabelValues(components.CollapsedCollision.String()).Set(float64(collision))
	m.Agents.WithLabelValues(components.CollapsedHeat.String()).Set(float64(heat))
	m.Agents.WithLabelValues(components.Arrived.String()).Set(float64(arrived))
}

// RecordTransition counts an agent leaving the active state.
func (m *Metrics) RecordTransition(s components.Status) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(s.String()).Inc()
}

// RecordSpawn counts a spawned agent.
func (m *Metrics) RecordSpawn() {
	if m == nil {
		return
	}
	m.Spawns.Inc()
}

// ObserveTick records per-tick peaks and the tick's wall-clock duration.
func (m *Metrics) ObserveTick(seconds, maxDensity, maxHeatStress float64) {
	if m == nil {
		return
	}
	m.TickDuration.Observe(seconds)
	m.PeakDensity.Set(maxDensity)
	m.PeakStress.Set(maxHeatStress)
}

// register adds c to reg, returning the existing collector when an
// identical one is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
