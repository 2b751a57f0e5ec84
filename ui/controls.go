package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/crush/sim"
)

// Slider ranges for the crowd settings.
var (
	SpeedRange       = SliderRange{Min: 0.1, Max: 2.0, Step: 0.1}
	AgentsRange      = SliderRange{Min: 10, Max: 200, Step: 10}
	TemperatureRange = SliderRange{Min: 15, Max: 45, Step: 0.5}
)

// SliderRange bounds a slider and the increment its value snaps to.
type SliderRange struct {
	Min, Max, Step float32
}

// Snap clamps v to the range and rounds it to the nearest step above Min.
func (r SliderRange) Snap(v float32) float32 {
	if v < r.Min {
		v = r.Min
	}
	if v > r.Max {
		v = r.Max
	}
	if r.Step <= 0 {
		return v
	}
	n := math.Round(float64((v - r.Min) / r.Step))
	snapped := r.Min + float32(n)*r.Step
	if snapped > r.Max {
		snapped = r.Max
	}
	return snapped
}

// Actions are the button presses of one frame.
type Actions struct {
	ToggleRun bool
	Reset     bool
	Mode      EditMode // Mode after this frame's clicks
}

// SettingsPanel renders the crowd controls with raygui widgets.
type SettingsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewSettingsPanel creates a panel anchored at (x, y).
func NewSettingsPanel(x, y, width int32) *SettingsPanel {
	return &SettingsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Height returns the panel's drawn height.
func (p *SettingsPanel) Height() int32 {
	return 360
}

// Contains reports whether a screen point falls on the panel, so clicks on
// widgets are not also applied to the ground.
func (p *SettingsPanel) Contains(x, y float32) bool {
	return x >= float32(p.x) && x <= float32(p.x+p.width) &&
		y >= float32(p.y) && y <= float32(p.y+p.Height())
}

// Draw renders the panel and returns the edited settings and the frame's actions.
func (p *SettingsPanel) Draw(st sim.Settings, running bool, mode EditMode) (sim.Settings, Actions) {
	r := p.renderer
	pad := r.Theme.Padding
	r.DrawPanel(p.x, p.y, p.width, p.Height())

	x := float32(p.x + pad)
	y := p.y + pad
	w := float32(p.width - 2*pad)
	act := Actions{Mode: mode}

	y = r.DrawSectionHeader(p.x+pad, y, "Crowd")

	speed := p.slider(&y, "Desired speed", fmt.Sprintf("%.1f", st.DesiredSpeed), SpeedRange, float32(st.DesiredSpeed))
	st.DesiredSpeed = float64(speed)

	agents := p.slider(&y, "Max agents", fmt.Sprintf("%d", st.MaxAgents), AgentsRange, float32(st.MaxAgents))
	st.MaxAgents = int(agents)

	temp := p.slider(&y, "Temperature", fmt.Sprintf("%.1f C", st.Temperature), TemperatureRange, float32(st.Temperature))
	st.Temperature = float64(temp)

	y += 4
	y = r.DrawSectionHeader(p.x+pad, y, "Display")
	st.ShowFlow = gui.CheckBox(rl.Rectangle{X: x, Y: float32(y), Width: 16, Height: 16}, "Flow arrows", st.ShowFlow)
	y += 22
	st.ShowFallen = gui.CheckBox(rl.Rectangle{X: x, Y: float32(y), Width: 16, Height: 16}, "Collision fallen", st.ShowFallen)
	y += 22
	st.ShowHeatFallen = gui.CheckBox(rl.Rectangle{X: x, Y: float32(y), Width: 16, Height: 16}, "Heat fallen", st.ShowHeatFallen)
	y += 28

	y = r.DrawSectionHeader(p.x+pad, y, "Scenario")
	half := (w - 8) / 2
	runLabel := "Start"
	if running {
		runLabel = "Stop"
	}
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 26}, runLabel) {
		act.ToggleRun = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 8, Y: float32(y), Width: half, Height: 26}, "Reset") {
		act.Reset = true
	}
	y += 34

	third := (w - 16) / 3
	for i, m := range []EditMode{ModeStart, ModeTarget, ModeBlock} {
		bounds := rl.Rectangle{X: x + float32(i)*(third+8), Y: float32(y), Width: third, Height: 26}
		on := gui.Toggle(bounds, m.String(), mode == m)
		if on && mode != m {
			act.Mode = m
		} else if !on && mode == m {
			act.Mode = ModeNone
		}
	}

	return st, act
}

// slider draws a labelled SliderBar and returns its snapped value.
func (p *SettingsPanel) slider(y *int32, label, value string, rng SliderRange, current float32) float32 {
	r := p.renderer
	pad := r.Theme.Padding
	rl.DrawText(label, p.x+pad, *y, r.Theme.FontSize, r.Theme.LabelColor)
	valueW := rl.MeasureText(value, r.Theme.FontSize)
	rl.DrawText(value, p.x+p.width-pad-valueW, *y, r.Theme.FontSize, r.Theme.ValueColor)
	*y += r.Theme.LineHeight

	bounds := rl.Rectangle{X: float32(p.x + pad), Y: float32(*y), Width: float32(p.width - 2*pad), Height: 16}
	v := gui.SliderBar(bounds, "", "", current, rng.Min, rng.Max)
	*y += 26
	return rng.Snap(v)
}
