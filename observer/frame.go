// Package observer streams crowd frames to external viewers over WebSocket.
package observer

import (
	"github.com/pthm-cable/crush/components"
	"github.com/pthm-cable/crush/store"
)

// ProtocolVersion is bumped on incompatible frame changes.
const ProtocolVersion = 1

// Message types.
const (
	TypeHello = "HELLO"
	TypeFrame = "FRAME"
)

// Hello is sent once when a client connects.
type Hello struct {
	Type            string       `json:"type"`
	ProtocolVersion int          `json:"protocol_version"`
	RunID           string       `json:"run_id"`
	WorldSize       float64      `json:"world_size"`
	Start           [2]float64   `json:"start"`
	Target          [2]float64   `json:"target"`
	Obstacles       [][2]float64 `json:"obstacles"`
}

// Counts mirrors store.Counts plus the cumulative arrivals.
type Counts struct {
	Active             int `json:"active"`
	CollapsedCollision int `json:"collapsed_collision"`
	CollapsedHeat      int `json:"collapsed_heat"`
	Arrived            int `json:"arrived"`
	TotalArrived       int `json:"total_arrived"`
}

// AgentState is the per-agent payload of a frame.
type AgentState struct {
	ID          uint32  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	VX          float64 `json:"vx"`
	VY          float64 `json:"vy"`
	Status      string  `json:"status"`
	Temperature float64 `json:"temp"`
	HeatStress  float64 `json:"heat_stress"`
}

// Frame is one snapshot of the crowd.
type Frame struct {
	Type   string       `json:"type"`
	RunID  string       `json:"run_id"`
	Tick   int32        `json:"tick"`
	Time   float64      `json:"time"`
	Counts Counts       `json:"counts"`
	Agents []AgentState `json:"agents"`
}

// NewFrame builds a frame from the stored agents.
func NewFrame(runID string, tick int32, simTime float64, counts store.Counts, totalArrived int, agents []*components.Agent) Frame {
	f := Frame{
		Type:  TypeFrame,
		RunID: runID,
		Tick:  tick,
		Time:  simTime,
		Counts: Counts{
			Active:             counts.Active,
			CollapsedCollision: counts.CollapsedCollision,
			CollapsedHeat:      counts.CollapsedHeat,
			Arrived:            counts.Arrived,
			TotalArrived:       totalArrived,
		},
		Agents: make([]AgentState, len(agents)),
	}
	for i, a := range agents {
		f.Agents[i] = AgentState{
			ID:          a.ID,
			X:           a.Position.X,
			Y:           a.Position.Y,
			VX:          a.Velocity.X,
			VY:          a.Velocity.Y,
			Status:      a.Status.String(),
			Temperature: a.Temperature,
			HeatStress:  a.HeatStress,
		}
	}
	return f
}
