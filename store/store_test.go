package store

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/crush/components"
)

func fill(s *Store, statuses ...components.Status) {
	for i, st := range statuses {
		s.Spawn(components.Agent{
			Position: r2.Vec{X: float64(i)},
			Mass:     70,
			Status:   st,
		})
	}
}

func TestSpawn_AssignsIncreasingIDs(t *testing.T) {
	s := New()
	for want := uint32(1); want <= 5; want++ {
		if got := s.Spawn(components.Agent{ID: 99}); got != want {
			t.Errorf("Spawn() = %d, want %d", got, want)
		}
	}
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
}

func TestAgents_OrderedBySpawn(t *testing.T) {
	s := New()
	fill(s, components.Active, components.Active, components.Arrived, components.Active)
	s.RemoveWhere(func(a *components.Agent) bool { return a.ID == 2 })
	fill(s, components.Active, components.Active)

	agents := s.Agents()
	if len(agents) != 5 {
		t.Fatalf("len(Agents()) = %d, want 5", len(agents))
	}
	for i := 1; i < len(agents); i++ {
		if agents[i-1].ID >= agents[i].ID {
			t.Errorf("agents out of order: %d before %d", agents[i-1].ID, agents[i].ID)
		}
	}
}

func TestAgents_PointersMutateStore(t *testing.T) {
	s := New()
	id := s.Spawn(components.Agent{})
	s.Agents()[0].Position = r2.Vec{X: 3, Y: 4}

	if got := s.Get(id).Position; got != (r2.Vec{X: 3, Y: 4}) {
		t.Errorf("stored position = %v, want (3, 4)", got)
	}
}

func TestCounts(t *testing.T) {
	s := New()
	fill(s,
		components.Active, components.Active, components.Active,
		components.CollapsedCollision,
		components.CollapsedHeat, components.CollapsedHeat,
		components.Arrived,
	)

	c := s.Counts()
	want := Counts{Active: 3, CollapsedCollision: 1, CollapsedHeat: 2, Arrived: 1}
	if c != want {
		t.Errorf("Counts() = %+v, want %+v", c, want)
	}
	if c.Fallen() != 3 {
		t.Errorf("Fallen() = %d, want 3", c.Fallen())
	}
	if c.Total() != s.Len() {
		t.Errorf("Total() = %d, Len() = %d", c.Total(), s.Len())
	}
}

func TestRemoveArrived(t *testing.T) {
	s := New()
	fill(s, components.Arrived, components.Active, components.Arrived, components.CollapsedHeat)

	if n := s.RemoveArrived(); n != 2 {
		t.Errorf("RemoveArrived() = %d, want 2", n)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if s.Get(1) != nil || s.Get(3) != nil {
		t.Error("arrived agents still reachable by ID")
	}
	if a := s.Get(4); a == nil || a.Status != components.CollapsedHeat {
		t.Errorf("Get(4) = %+v, want collapsed agent kept", a)
	}
}

func TestReset(t *testing.T) {
	s := New()
	fill(s, components.Active, components.CollapsedCollision)
	s.Reset()

	if s.Len() != 0 || len(s.Agents()) != 0 {
		t.Fatalf("store not empty after Reset: Len=%d", s.Len())
	}
	if id := s.Spawn(components.Agent{}); id != 3 {
		t.Errorf("first ID after reset = %d, want 3", id)
	}
}
