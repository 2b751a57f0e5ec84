// Package store keeps the live agent records in an ECS world.
package store

import (
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/crush/components"
)

// Counts is the per-status population of the store.
type Counts struct {
	Active             int
	CollapsedCollision int
	CollapsedHeat      int
	Arrived            int
}

// Fallen returns collapsed agents of either cause.
func (c Counts) Fallen() int { return c.CollapsedCollision + c.CollapsedHeat }

// Total returns every agent in the store.
func (c Counts) Total() int {
	return c.Active + c.CollapsedCollision + c.CollapsedHeat + c.Arrived
}

// Store owns every agent record.
// Pointers returned by Agents stay valid until the next Spawn, Remove or Reset.
type Store struct {
	world       *ecs.World
	agentMapper *ecs.Map1[components.Agent]
	agentFilter *ecs.Filter1[components.Agent]

	nextID   uint32
	entities map[uint32]ecs.Entity
	ordered  []*components.Agent
}

// New creates an empty store.
func New() *Store {
	world := ecs.NewWorld()
	return &Store{
		world:       world,
		agentMapper: ecs.NewMap1[components.Agent](world),
		agentFilter: ecs.NewFilter1[components.Agent](world),
		nextID:      1,
		entities:    make(map[uint32]ecs.Entity),
	}
}

// Spawn adds an agent, assigning the next spawn ID. It returns the ID.
func (s *Store) Spawn(a components.Agent) uint32 {
	a.ID = s.nextID
	s.nextID++
	e := s.agentMapper.NewEntity(&a)
	s.entities[a.ID] = e
	return a.ID
}

// Get returns the agent with the given ID, or nil.
func (s *Store) Get(id uint32) *components.Agent {
	e, ok := s.entities[id]
	if !ok || !s.world.Alive(e) {
		return nil
	}
	return s.agentMapper.Get(e)
}

// Len returns the number of stored agents in any status.
func (s *Store) Len() int {
	return len(s.entities)
}

// Agents returns every agent ordered by spawn ID.
// The slice is reused by the next call.
func (s *Store) Agents() []*components.Agent {
	s.ordered = s.ordered[:0]
	query := s.agentFilter.Query()
	for query.Next() {
		s.ordered = append(s.ordered, query.Get())
	}
	sort.Slice(s.ordered, func(i, j int) bool {
		return s.ordered[i].ID < s.ordered[j].ID
	})
	return s.ordered
}

// Counts tallies agents by status.
func (s *Store) Counts() Counts {
	var c Counts
	query := s.agentFilter.Query()
	for query.Next() {
		switch query.Get().Status {
		case components.Active:
			c.Active++
		case components.CollapsedCollision:
			c.CollapsedCollision++
		case components.CollapsedHeat:
			c.CollapsedHeat++
		case components.Arrived:
			c.Arrived++
		}
	}
	return c
}

// RemoveWhere deletes every agent matching pred and returns how many were removed.
func (s *Store) RemoveWhere(pred func(*components.Agent) bool) int {
	// First pass: collect (must complete before modifying)
	var toRemove []ecs.Entity
	var ids []uint32
	query := s.agentFilter.Query()
	for query.Next() {
		a := query.Get()
		if pred(a) {
			toRemove = append(toRemove, query.Entity())
			ids = append(ids, a.ID)
		}
	}

	// Second pass: remove (query iteration complete)
	for i, e := range toRemove {
		s.world.RemoveEntity(e)
		delete(s.entities, ids[i])
	}
	return len(toRemove)
}

// RemoveArrived deletes agents that reached the target.
func (s *Store) RemoveArrived() int {
	return s.RemoveWhere(func(a *components.Agent) bool {
		return a.Status == components.Arrived
	})
}

// Reset removes every agent. Spawn IDs keep increasing.
func (s *Store) Reset() {
	s.RemoveWhere(func(*components.Agent) bool { return true })
}
