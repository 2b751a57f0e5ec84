package game

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/crush/components"
	"github.com/pthm-cable/crush/ui"
)

const controlsText = "[Space] start/stop  [</>] steps  [P] perf  [wheel] zoom  [right drag] pan  [Home] reset view"

// Draw renders the scene and the panels.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 25, G: 25, B: 30, A: 255})

	g.drawGround()
	g.drawObstacles()
	g.drawEndpoints()
	maxStress := g.drawAgents()

	g.drawPanels(maxStress)

	rl.EndDrawing()
}

// toScreen converts a world point to a screen vector.
func (g *Game) toScreen(x, y float64) rl.Vector2 {
	sx, sy := g.camera.WorldToScreen(float32(x), float32(y))
	return rl.Vector2{X: sx, Y: sy}
}

// drawGround draws the street grid.
func (g *Game) drawGround() {
	half := g.cfg.Derived.HalfSize
	cell := g.cfg.World.CellSize
	n := int(math.Round(g.cfg.World.Size / cell))
	side := g.camera.Pixels(float32(cell))

	for ix := 0; ix < n; ix++ {
		for iy := 0; iy < n; iy++ {
			wx := -half + float64(ix)*cell
			wy := -half + float64(iy)*cell
			if !g.camera.IsVisible(float32(wx), float32(wy), float32(cell)) {
				continue
			}
			pos := g.toScreen(wx, wy)
			if roadCell(ix, iy, n) {
				rl.DrawRectangleV(pos, rl.Vector2{X: side, Y: side}, colorRoad)
			} else {
				// Building footprint, inset like a block between streets
				inset := side * 0.05
				rl.DrawRectangleV(pos, rl.Vector2{X: side, Y: side}, colorGround)
				rl.DrawRectangleV(
					rl.Vector2{X: pos.X + inset, Y: pos.Y + inset},
					rl.Vector2{X: side - 2*inset, Y: side - 2*inset},
					rl.Color{R: 110, G: 90, B: 75, A: 255},
				)
			}
		}
	}
}

// drawObstacles marks each blocked cell and the obstacle's core radius.
func (g *Game) drawObstacles() {
	half := g.cfg.Derived.HalfSize
	cell := g.cfg.World.CellSize
	side := g.camera.Pixels(float32(cell))
	radius := g.camera.Pixels(float32(g.cfg.Model.ObstacleRadius))

	for _, o := range g.sim.Obstacles() {
		cx := -half + float64(cellOf(o.X, half, cell))*cell
		cy := -half + float64(cellOf(o.Y, half, cell))*cell
		pos := g.toScreen(cx, cy)
		inset := side * 0.05
		rl.DrawRectangleV(
			rl.Vector2{X: pos.X + inset, Y: pos.Y + inset},
			rl.Vector2{X: side - 2*inset, Y: side - 2*inset},
			colorBlocked,
		)
		rl.DrawCircleLinesV(g.toScreen(o.X, o.Y), radius, rl.Maroon)
	}
}

// drawEndpoints draws the entrance and the meeting point.
func (g *Game) drawEndpoints() {
	r := g.camera.Pixels(0.5)
	alpha := float32(1)
	if g.running {
		alpha = 0.5
	}
	start := g.sim.Start()
	target := g.sim.Target()
	rl.DrawCircleV(g.toScreen(start.X, start.Y), r, rl.Fade(colorStart, alpha))
	rl.DrawCircleV(g.toScreen(target.X, target.Y), r, rl.Fade(colorTarget, alpha))
	rl.DrawCircleLinesV(g.toScreen(target.X, target.Y), g.camera.Pixels(float32(g.cfg.Model.ArrivalRadius)), colorTarget)
}

// drawAgents draws every stored agent and returns the peak heat stress of
// the active ones.
func (g *Game) drawAgents() float64 {
	st := g.sim.Settings()
	flowEvery := g.cfg.Display.FlowEvery
	var maxStress float64

	for i, a := range g.sim.Agents() {
		if !g.camera.IsVisible(float32(a.Position.X), float32(a.Position.Y), float32(a.Radius)) {
			continue
		}
		center := g.toScreen(a.Position.X, a.Position.Y)
		radius := g.camera.Pixels(float32(a.Radius))

		switch a.Status {
		case components.Active:
			maxStress = math.Max(maxStress, a.HeatStress)
			rl.DrawCircleV(center, radius, temperatureColor(a.Temperature))
			rl.DrawCircleLinesV(center, radius, spawnColor(a.Color))
			if st.ShowFlow && flowEvery > 0 && i%flowEvery == 0 {
				g.drawFlowArrow(a)
			}
		case components.CollapsedHeat:
			if st.ShowHeatFallen {
				drawFallen(center, radius, colorHeatFallen)
			}
		case components.CollapsedCollision:
			if st.ShowFallen {
				drawFallen(center, radius, colorCollisionFallen)
			}
		case components.Arrived:
			rl.DrawCircleV(center, radius*0.6, rl.Fade(colorTarget, 0.4))
		}
	}
	return maxStress
}

// drawFallen draws a collapsed agent lying flat.
func drawFallen(center rl.Vector2, radius float32, color rl.Color) {
	rl.DrawEllipse(int32(center.X), int32(center.Y), radius*1.3, radius*0.6, color)
}

// drawFlowArrow draws the velocity of an active agent at half scale.
func (g *Game) drawFlowArrow(a *components.Agent) {
	speed := a.Speed()
	length := 0.5 * speed
	if length <= 0.1 {
		return
	}
	dx := a.Velocity.X / speed
	dy := a.Velocity.Y / speed
	tipX := a.Position.X + dx*length
	tipY := a.Position.Y + dy*length

	from := g.toScreen(a.Position.X, a.Position.Y)
	tip := g.toScreen(tipX, tipY)
	rl.DrawLineEx(from, tip, 2, colorFlow)

	// Head: 0.2 m long, 0.1 m wide
	const headLen, headWidth = 0.2, 0.1
	baseX := tipX - dx*headLen
	baseY := tipY - dy*headLen
	left := g.toScreen(baseX-dy*headWidth, baseY+dx*headWidth)
	right := g.toScreen(baseX+dy*headWidth, baseY-dx*headWidth)
	// Winding depends on direction; the back-facing one is culled.
	rl.DrawTriangle(tip, right, left, colorFlow)
	rl.DrawTriangle(tip, left, right, colorFlow)
}

// drawPanels draws the settings panel, HUD and optional perf panel, and
// applies what the user changed this frame.
func (g *Game) drawPanels(maxStress float64) {
	st, act := g.settingsPanel.Draw(g.sim.Settings(), g.running, g.mode)
	if st != g.sim.Settings() {
		g.sim.SetSettings(st)
	}
	g.mode = act.Mode
	if act.ToggleRun {
		g.toggleRun()
	}
	if act.Reset {
		g.reset()
	}

	counts := g.sim.Counts()
	g.hud.Draw(ui.HUDData{
		Standing:      counts.Active,
		Fallen:        counts.Fallen(),
		HeatFallen:    counts.CollapsedHeat,
		TotalArrived:  g.sim.Totals().Arrived,
		Tick:          g.sim.Tick(),
		SimTime:       g.sim.SimTime(),
		FPS:           rl.GetFPS(),
		Running:       g.running,
		Mode:          g.mode,
		MaxHeatStress: maxStress,
		CriticalHeat:  g.cfg.Model.CriticalHeatStress,
	})
	g.hud.DrawLegend(
		fmt.Sprintf("%.0f C", coolTemperature),
		fmt.Sprintf("%.0f C", hotTemperature),
		legendColor,
	)

	if g.showPerf {
		g.perfPanel.Draw(g.sim.PerfStats())
	}
	g.hud.DrawControls(int32(g.screenHeight), fmt.Sprintf("%s  (x%d)", controlsText, g.stepsPerUpdate))
}
