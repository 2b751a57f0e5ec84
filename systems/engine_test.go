package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/crush/components"
)

// fixedRand always returns the same draw and counts calls.
type fixedRand struct {
	value float64
	calls int
}

func (r *fixedRand) Float64() float64 {
	r.calls++
	return r.value
}

func newAgent(id uint32, x, y float64) *components.Agent {
	return &components.Agent{
		ID:          id,
		Position:    r2.Vec{X: x, Y: y},
		Mass:        70,
		Radius:      0.3,
		MaxSpeed:    1.2,
		Temperature: 22,
	}
}

func calmEnv(target r2.Vec) Environment {
	return Environment{Target: target, AmbientTemperature: 22, DesiredSpeed: 1}
}

func finiteAgent(a *components.Agent) bool {
	return finite(a.Position) && finite(a.Velocity) && finite(a.Acceleration) &&
		!math.IsNaN(a.Temperature) && !math.IsNaN(a.HeatStress)
}

// ---------- Free flow ----------

func TestStep_FreeFlowConvergesToDesiredVelocity(t *testing.T) {
	rng := &fixedRand{value: 0.999}
	e := NewEngine(DefaultParams(), nil, rng)
	a := newAgent(1, 0, 0)
	env := calmEnv(r2.Vec{X: 300})

	for i := 0; i < 2000; i++ {
		e.Step([]*components.Agent{a}, 0.1, env)
	}

	if a.Status != components.Active {
		t.Fatalf("status = %v, want active", a.Status)
	}
	if math.Abs(a.Velocity.X-a.MaxSpeed) > 1e-3 {
		t.Errorf("velocity X = %.6f, want %.6f", a.Velocity.X, a.MaxSpeed)
	}
	if a.Velocity.Y != 0 || a.Position.Y != 0 {
		t.Errorf("agent left the straight line: pos=%v vel=%v", a.Position, a.Velocity)
	}
	if rng.calls != 0 {
		t.Errorf("random source drawn %d times in a calm environment", rng.calls)
	}
}

func TestStep_SpeedNeverExceedsLimit(t *testing.T) {
	e := NewEngine(DefaultParams(), nil, &fixedRand{value: 0.999})
	agents := []*components.Agent{
		newAgent(1, 0, 0),
		newAgent(2, 0.7, 0.2),
		newAgent(3, -0.4, 0.6),
	}
	env := calmEnv(r2.Vec{X: 50, Y: 10})
	env.DesiredSpeed = 0.8

	for i := 0; i < 300; i++ {
		e.Step(agents, 0.1, env)
		for _, a := range agents {
			if a.Status != components.Active {
				continue
			}
			if limit := a.MaxSpeed * env.DesiredSpeed; a.Speed() > limit+1e-9 {
				t.Fatalf("tick %d: agent %d speed %.6f exceeds %.6f", i, a.ID, a.Speed(), limit)
			}
		}
	}
}

// ---------- Arrival ----------

func TestStep_Arrival(t *testing.T) {
	e := NewEngine(DefaultParams(), nil, &fixedRand{value: 0.999})
	a := newAgent(1, 0, 0)
	env := calmEnv(r2.Vec{X: 1})

	arrivedAt := -1
	for i := 0; i < 200; i++ {
		report := e.Step([]*components.Agent{a}, 0.1, env)
		if report.Count(components.Arrived) == 1 {
			arrivedAt = i
			break
		}
	}
	if arrivedAt < 0 {
		t.Fatalf("agent did not arrive; position %v", a.Position)
	}
	if a.Status != components.Arrived {
		t.Fatalf("status = %v, want arrived", a.Status)
	}

	pos := a.Position
	for i := 0; i < 10; i++ {
		e.Step([]*components.Agent{a}, 0.1, env)
	}
	if a.Position != pos {
		t.Errorf("arrived agent moved from %v to %v", pos, a.Position)
	}
}

// ---------- Collapse ----------

func TestStep_HeatCollapse(t *testing.T) {
	rng := &fixedRand{value: 0.999}
	e := NewEngine(DefaultParams(), nil, rng)
	a := newAgent(1, 0, 0)
	a.Temperature = 40
	env := Environment{Target: r2.Vec{X: 1e4}, AmbientTemperature: 40, DesiredSpeed: 1}

	const dt = 0.1
	collapsedAt := -1.0
	for i := 1; i <= 4100; i++ {
		report := e.Step([]*components.Agent{a}, dt, env)
		if len(report.Transitions) > 0 {
			collapsedAt = float64(i) * dt
			break
		}
	}

	if a.Status != components.CollapsedHeat {
		t.Fatalf("status = %v, want collapsed_heat", a.Status)
	}
	if collapsedAt < 399 || collapsedAt > 401 {
		t.Errorf("collapsed at %.1fs, want about 400s", collapsedAt)
	}
	if rng.calls == 0 {
		t.Error("expected stochastic draws at 18 degrees above optimal")
	}
}

func TestStep_CollisionCollapseOnOverlap(t *testing.T) {
	e := NewEngine(DefaultParams(), nil, &fixedRand{value: 0.999})
	a := newAgent(1, 0, 0)
	b := newAgent(2, 0.05, 0)
	report := e.Step([]*components.Agent{a, b}, 0.1, calmEnv(r2.Vec{X: 20}))

	if a.Status != components.CollapsedCollision || b.Status != components.CollapsedCollision {
		t.Errorf("statuses = %v, %v, want both collapsed_collision", a.Status, b.Status)
	}
	if got := report.Count(components.CollapsedCollision); got != 2 {
		t.Errorf("report collision count = %d, want 2", got)
	}
}

func TestStep_StochasticCollapseCause(t *testing.T) {
	tests := []struct {
		name    string
		ambient float64
		want    components.Status
	}{
		{"hot", 45, components.CollapsedHeat},
		{"dense but mild", 22, components.CollapsedCollision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(DefaultParams(), nil, &fixedRand{value: 0})
			center := newAgent(1, 0, 0)
			center.Temperature = tt.ambient
			agents := []*components.Agent{center}
			// Collapsed ring: contributes density without moving.
			for k := 0; k < 8; k++ {
				angle := float64(k) * math.Pi / 4
				n := newAgent(uint32(k+2), math.Cos(angle), math.Sin(angle))
				n.Status = components.CollapsedCollision
				agents = append(agents, n)
			}

			e.Step(agents, 0.1, Environment{Target: r2.Vec{X: 10}, AmbientTemperature: tt.ambient, DesiredSpeed: 1})
			if center.Status != tt.want {
				t.Errorf("status = %v, want %v", center.Status, tt.want)
			}
		})
	}
}

// ---------- Terminal states ----------

func TestStep_TerminalAgentsUnchanged(t *testing.T) {
	e := NewEngine(DefaultParams(), nil, rand.New(rand.NewSource(1)))
	statuses := []components.Status{components.CollapsedCollision, components.CollapsedHeat, components.Arrived}

	var agents []*components.Agent
	for i, s := range statuses {
		a := newAgent(uint32(i+1), float64(i)*0.5, 0)
		a.Status = s
		a.Velocity = r2.Vec{X: 0.3}
		a.HeatStress = 4
		agents = append(agents, a)
	}
	before := make([]components.Agent, len(agents))
	for i, a := range agents {
		before[i] = *a
	}

	env := Environment{Target: r2.Vec{X: 10}, AmbientTemperature: 45, DesiredSpeed: 1.5}
	for i := 0; i < 50; i++ {
		report := e.Step(agents, 0.1, env)
		if report.Updated != 0 || len(report.Transitions) != 0 {
			t.Fatalf("tick %d: report %+v, want nothing updated", i, report)
		}
	}
	for i, a := range agents {
		if *a != before[i] {
			t.Errorf("agent %d changed: %+v -> %+v", a.ID, before[i], *a)
		}
	}
}

func TestStep_TerminalNeighborsStillRepel(t *testing.T) {
	e := NewEngine(DefaultParams(), nil, &fixedRand{value: 0.999})
	walker := newAgent(1, 0, 0)
	fallen := newAgent(2, 0.9, 0)
	fallen.Status = components.CollapsedCollision

	e.Step([]*components.Agent{walker, fallen}, 0.1, calmEnv(r2.Vec{Y: 20}))

	if walker.Acceleration.X >= 0 {
		t.Errorf("walker acceleration %v, want pushed -X away from fallen agent", walker.Acceleration)
	}
	if walker.Density == 0 {
		t.Error("fallen neighbor did not count toward density")
	}
}

// ---------- Stall prevention ----------

func TestStep_StalledAgentRedirectedToTarget(t *testing.T) {
	e := NewEngine(DefaultParams(), nil, &fixedRand{value: 0.999})
	center := newAgent(1, 0, 0)
	center.MaxSpeed = 1
	center.Velocity = r2.Vec{X: -0.01}
	agents := []*components.Agent{center}
	for k := 0; k < 8; k++ {
		angle := float64(k) * math.Pi / 4
		n := newAgent(uint32(k+2), math.Cos(angle), math.Sin(angle))
		n.Status = components.CollapsedCollision
		agents = append(agents, n)
	}

	e.Step(agents, 0.1, calmEnv(r2.Vec{X: 10}))

	if center.Status != components.Active {
		t.Fatalf("status = %v, want active", center.Status)
	}
	if !vecNear(center.Velocity, r2.Vec{X: 0.1}, 1e-12) {
		t.Errorf("velocity = %v, want (0.1, 0)", center.Velocity)
	}
}

// ---------- Two-pass ordering ----------

func cluster() []*components.Agent {
	src := rand.New(rand.NewSource(7))
	var agents []*components.Agent
	for i := 0; i < 12; i++ {
		a := newAgent(uint32(i+1), src.Float64()*6, src.Float64()*6)
		a.Velocity = r2.Vec{X: src.Float64() - 0.5, Y: src.Float64() - 0.5}
		a.Radius = 0.25 + 0.1*src.Float64()
		agents = append(agents, a)
	}
	return agents
}

func TestStep_OrderIndependent(t *testing.T) {
	env := calmEnv(r2.Vec{X: 15, Y: 15})
	env.Obstacles = []r2.Vec{{X: 4, Y: 4}}

	forward := cluster()
	reversed := cluster()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}

	ef := NewEngine(DefaultParams(), nil, &fixedRand{value: 0.999})
	er := NewEngine(DefaultParams(), nil, &fixedRand{value: 0.999})
	for i := 0; i < 20; i++ {
		ef.Step(forward, 0.05, env)
		er.Step(reversed, 0.05, env)
	}

	byID := make(map[uint32]*components.Agent, len(reversed))
	for _, a := range reversed {
		byID[a.ID] = a
	}
	for _, a := range forward {
		b := byID[a.ID]
		if a.Status != b.Status {
			t.Errorf("agent %d status %v vs %v", a.ID, a.Status, b.Status)
		}
		if !vecNear(a.Position, b.Position, 1e-9) || !vecNear(a.Velocity, b.Velocity, 1e-9) {
			t.Errorf("agent %d diverged: pos %v vs %v, vel %v vs %v", a.ID, a.Position, b.Position, a.Velocity, b.Velocity)
		}
	}
}

// ---------- Degenerate inputs ----------

func TestStep_DegenerateInputsStayFinite(t *testing.T) {
	tests := []struct {
		name   string
		agents func() []*components.Agent
		env    Environment
	}{
		{
			name:   "coincident agents",
			agents: func() []*components.Agent { return []*components.Agent{newAgent(1, 2, 2), newAgent(2, 2, 2)} },
			env:    calmEnv(r2.Vec{X: 10}),
		},
		{
			name:   "agent on target",
			agents: func() []*components.Agent { return []*components.Agent{newAgent(1, 5, 5)} },
			env:    calmEnv(r2.Vec{X: 5, Y: 5}),
		},
		{
			name:   "agent on obstacle",
			agents: func() []*components.Agent { return []*components.Agent{newAgent(1, 3, 0)} },
			env:    Environment{Target: r2.Vec{X: 10}, Obstacles: []r2.Vec{{X: 3}}, AmbientTemperature: 22, DesiredSpeed: 1},
		},
		{
			name: "agent on obstacle and target",
			agents: func() []*components.Agent {
				return []*components.Agent{newAgent(1, 3, 0)}
			},
			env: Environment{Target: r2.Vec{X: 3}, Obstacles: []r2.Vec{{X: 3}}, AmbientTemperature: 22, DesiredSpeed: 1},
		},
		{
			name:   "zero desired speed",
			agents: func() []*components.Agent { return []*components.Agent{newAgent(1, 0, 0), newAgent(2, 0.4, 0)} },
			env:    Environment{Target: r2.Vec{X: 10}, AmbientTemperature: 22},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(DefaultParams(), nil, &fixedRand{value: 0.5})
			agents := tt.agents()
			for i := 0; i < 5; i++ {
				e.Step(agents, 0.1, tt.env)
			}
			for _, a := range agents {
				if !finiteAgent(a) {
					t.Errorf("agent %d has non-finite state: %+v", a.ID, *a)
				}
			}
		})
	}
}

func TestStep_CoincidentAgentsSeparateOpposite(t *testing.T) {
	e := NewEngine(DefaultParams(), nil, &fixedRand{value: 0.999})
	a := newAgent(1, 0, 0)
	b := newAgent(2, 0, 0)
	e.Step([]*components.Agent{a, b}, 0.1, calmEnv(r2.Vec{Y: 30}))

	fa := r2.Scale(a.Mass, a.Acceleration)
	fb := r2.Scale(b.Mass, b.Acceleration)
	if fa.X <= 0 || fb.X >= 0 {
		t.Errorf("forces %v and %v, want lower ID pushed +X and higher ID pushed -X", fa, fb)
	}
	if math.Abs(fa.X+fb.X) > 1e-6*math.Abs(fa.X) {
		t.Errorf("X forces %v and %v not equal and opposite", fa.X, fb.X)
	}
}
