package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pthm-cable/crush/components"
)

func TestMetrics_RecordsCountsAndTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	m.SetCounts(12, 2, 1, 30)
	m.RecordTransition(components.CollapsedHeat)
	m.RecordTransition(components.CollapsedHeat)
	m.RecordTransition(components.Arrived)
	m.RecordSpawn()

	if got := testutil.ToFloat64(m.Agents.WithLabelValues("active")); got != 12 {
		t.Errorf("crush_agents{status=active} = %v, want 12", got)
	}
	if got := testutil.ToFloat64(m.Agents.WithLabelValues("collapsed_collision")); got != 2 {
		t.Errorf("crush_agents{status=collapsed_collision} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("collapsed_heat")); got != 2 {
		t.Errorf("crush_transitions_total{status=collapsed_heat} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Spawns); got != 1 {
		t.Errorf("crush_spawns_total = %v, want 1", got)
	}
}

func TestMetrics_ReRegisterReturnsExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	second, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("second NewMetrics: %v", err)
	}

	first.RecordSpawn()
	if got := testutil.ToFloat64(second.Spawns); got != 1 {
		t.Errorf("second collector does not share counter: %v", got)
	}
}

func TestMetrics_HandlerExposesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.SetCounts(3, 0, 0, 0)
	m.RecordTransition(components.CollapsedCollision)
	m.ObserveTick(0.001, 4.5, 7)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"crush_agents",
		"crush_transitions_total",
		"crush_density_peak 4.5",
		"crush_heat_stress_peak 7",
		"crush_tick_duration_seconds_count 1",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("expected %q in /metrics output", metric)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.SetCounts(1, 2, 3, 4)
	m.RecordTransition(components.Arrived)
	m.RecordSpawn()
	m.ObserveTick(1, 1, 1)
}
