// Package ui draws the settings panel and heads-up display of the viewer.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// EditMode selects what a click on the ground does.
type EditMode int

const (
	ModeNone   EditMode = iota // Clicks do nothing
	ModeStart                  // Move the entrance
	ModeTarget                 // Move the meeting point
	ModeBlock                  // Add an obstacle
)

// String returns the label shown in the HUD.
func (m EditMode) String() string {
	switch m {
	case ModeStart:
		return "Set start"
	case ModeTarget:
		return "Set target"
	case ModeBlock:
		return "Block area"
	default:
		return "View"
	}
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFillLow     rl.Color
	BarFillMedium  rl.Color
	BarFillHigh    rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFillLow:     rl.Color{R: 100, G: 200, B: 100, A: 255},
		BarFillMedium:  rl.Color{R: 200, G: 180, B: 100, A: 255},
		BarFillHigh:    rl.Color{R: 200, G: 100, B: 100, A: 255},
		Padding:        10,
		LineHeight:     18,
		LabelWidth:     110,
		BarHeight:      12,
		FontSize:       14,
		HeaderFontSize: 16,
	}
}
