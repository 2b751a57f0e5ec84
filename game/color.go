package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/crush/components"
)

// Temperature band mapped across the hue ramp.
const (
	coolTemperature = 15.0
	hotTemperature  = 40.0
)

var (
	colorHeatFallen      = rl.Orange
	colorCollisionFallen = rl.Red
	colorStart           = rl.Blue
	colorTarget          = rl.Green
	colorFlow            = rl.Color{R: 0, G: 255, B: 0, A: 255}
	colorGround          = rl.Color{R: 85, G: 85, B: 85, A: 255}
	colorRoad            = rl.Color{R: 136, G: 136, B: 136, A: 255}
	colorBlocked         = rl.Color{R: 230, G: 41, B: 55, A: 180}
)

// temperatureHue maps a perceived temperature onto a hue in [0, 1):
// 0.6 (blue) at 15 C down to 0 (red) at 40 C. Hues outside the band wrap.
func temperatureHue(t float64) float64 {
	n := (t - coolTemperature) / (hotTemperature - coolTemperature)
	h := math.Mod(0.6*(1-n), 1)
	if h < 0 {
		h++
	}
	return h
}

// temperatureColor returns the display color of an active agent.
func temperatureColor(t float64) rl.Color {
	r, g, b := hslToRGB(temperatureHue(t), 0.8, 0.5)
	return rl.Color{R: r, G: g, B: b, A: 255}
}

// legendColor maps a legend position in [0, 1] across the temperature band.
func legendColor(pos float32) rl.Color {
	return temperatureColor(coolTemperature + float64(pos)*(hotTemperature-coolTemperature))
}

// hslToRGB converts hue, saturation and lightness in [0, 1] to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := toByte(l)
		return v, v, v
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return toByte(hueToRGB(p, q, h+1.0/3)), toByte(hueToRGB(p, q, h)), toByte(hueToRGB(p, q, h-1.0/3))
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*6*(2.0/3-t)
	}
	return p
}

func toByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// spawnColor converts an agent's spawn color to raylib.
func spawnColor(c components.Color) rl.Color {
	return rl.Color{R: c.R, G: c.G, B: c.B, A: 255}
}
