package systems

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Neighbor is another agent found by a NeighborQuery.
type Neighbor struct {
	Index int    // Index into the slice passed to Rebuild
	Delta r2.Vec // Self position minus neighbor position
	Dist  float64
}

// NeighborQuery finds agents near a given agent in a per-tick position snapshot.
type NeighborQuery interface {
	// Rebuild captures the positions for the current tick.
	Rebuild(positions []r2.Vec)
	// Within appends to dst every other agent strictly closer than radius to agent i.
	Within(dst []Neighbor, i int, radius float64) []Neighbor
}

// BruteForce checks every pair. Cost is O(n) per query.
type BruteForce struct {
	positions []r2.Vec
}

// NewBruteForce creates an empty all-pairs neighbor query.
func NewBruteForce() *BruteForce {
	return &BruteForce{}
}

// Rebuild copies the positions so later mutations don't leak into the tick.
func (b *BruteForce) Rebuild(positions []r2.Vec) {
	b.positions = append(b.positions[:0], positions...)
}

// Within implements NeighborQuery.
func (b *BruteForce) Within(dst []Neighbor, i int, radius float64) []Neighbor {
	self := b.positions[i]
	for j, other := range b.positions {
		if j == i {
			continue
		}
		delta := r2.Sub(self, other)
		dist := r2.Norm(delta)
		if dist < radius {
			dst = append(dst, Neighbor{Index: j, Delta: delta, Dist: dist})
		}
	}
	return dst
}
