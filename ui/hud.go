package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/crush/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Standing      int
	Fallen        int // Either cause
	HeatFallen    int
	TotalArrived  int
	Tick          int32
	SimTime       float64
	FPS           int32
	Running       bool
	Mode          EditMode
	MaxHeatStress float64
	CriticalHeat  float64
}

// HUD renders the crowd counters.
type HUD struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHUD creates a HUD panel anchored at (x, y).
func NewHUD(x, y, width int32) *HUD {
	return &HUD{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (h *HUD) SetPosition(x, y int32) {
	h.x = x
	h.y = y
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	pad := r.Theme.Padding
	r.DrawPanel(h.x, h.y, h.width, h.Height())

	x := h.x + pad
	y := h.y + pad
	y = r.DrawSectionHeader(x, y, "Crowd")
	y = r.DrawLabelValue(x, y, "Standing", fmt.Sprintf("%d", data.Standing), rl.SkyBlue)
	y = r.DrawLabelValue(x, y, "Fallen", fmt.Sprintf("%d", data.Fallen), rl.Red)
	y = r.DrawLabelValue(x, y, "Heat fallen", fmt.Sprintf("%d", data.HeatFallen), rl.Orange)
	y = r.DrawLabelValue(x, y, "Arrived", fmt.Sprintf("%d", data.TotalArrived), rl.Green)
	y = r.DrawLevelBar(x, y, "Peak stress", float32(data.MaxHeatStress), float32(data.CriticalHeat), h.width-2*pad)

	status, statusColor := "Stopped", rl.Yellow
	if data.Running {
		status, statusColor = "Running", rl.Green
	}
	y = r.DrawLabelValue(x, y, "Status", status, statusColor)
	y = r.DrawLabelValue(x, y, "Mode", data.Mode.String(), r.Theme.ValueColor)
	r.DrawLabelValue(x, y, "Time", fmt.Sprintf("%.1f s (tick %d, %d fps)", data.SimTime, data.Tick, data.FPS), r.Theme.ValueColor)
}

// Height returns the drawn height of the counters panel.
func (h *HUD) Height() int32 {
	return 10*h.renderer.Theme.LineHeight + 2*h.renderer.Theme.Padding + 8
}

// DrawLegend renders the temperature color ramp below the counters.
func (h *HUD) DrawLegend(lo, hi string, colorAt func(t float32) rl.Color) {
	r := h.renderer
	pad := r.Theme.Padding
	y := h.y + h.Height() + 8
	r.DrawPanel(h.x, y, h.width, 2*r.Theme.LineHeight+r.Theme.BarHeight+2*pad)
	y = r.DrawSectionHeader(h.x+pad, y+pad, "Temperature")
	r.DrawGradientLegend(h.x+pad, y, h.width-2*pad, lo, hi, colorAt)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the tick phase breakdown.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  p95: %s  (%.0f ticks/s)",
		stats.AvgTickDuration.Round(time.Microsecond),
		stats.P95TickDuration.Round(time.Microsecond),
		stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, phase := range []string{
		telemetry.PhaseSpawn,
		telemetry.PhaseStep,
		telemetry.PhaseCleanup,
		telemetry.PhaseTelemetry,
		telemetry.PhasePublish,
	} {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
