// Package camera maps the ground plane (meters) onto the screen (pixels).
package camera

// Camera controls the viewport into a square world centered on the origin.
type Camera struct {
	// Position is the camera center in world meters
	X, Y float32

	// Zoom level (1.0 = whole world fits the viewport)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// HalfSize is half the world extent in meters
	HalfSize float32

	// PixelsPerMeter at zoom 1
	FitScale float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera that fits a world of worldSize meters into the viewport.
func New(viewportW, viewportH, worldSize float32) *Camera {
	c := &Camera{
		Zoom:     1.0,
		HalfSize: worldSize / 2,
		MinZoom:  0.5,
		MaxZoom:  8.0,
	}
	c.Resize(viewportW, viewportH)
	return c
}

// Scale returns pixels per meter at the current zoom.
func (c *Camera) Scale() float32 {
	return c.FitScale * c.Zoom
}

// WorldToScreen converts world meters to screen pixels.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 + (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen pixels to world meters.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y + (sy-c.ViewportH/2)/s
	return wx, wy
}

// Pixels converts a length in meters to pixels.
func (c *Camera) Pixels(meters float32) float32 {
	return meters * c.Scale()
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return wx+radius >= minX && wx-radius <= maxX &&
		wy+radius >= minY && wy-radius <= maxY
}

// InWorld reports whether a world point lies on the ground plane.
func (c *Camera) InWorld(wx, wy float32) bool {
	return absf(wx) <= c.HalfSize && absf(wy) <= c.HalfSize
}

// Resize updates viewport dimensions and refits the world.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	side := viewportW
	if viewportH < side {
		side = viewportH
	}
	if c.HalfSize > 0 {
		c.FitScale = side / (2 * c.HalfSize)
	}
}

// Pan moves the camera by the given delta in screen pixels.
// The center stays on the ground plane.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X = clamp(c.X+dx/s, -c.HalfSize, c.HalfSize)
	c.Y = clamp(c.Y+dy/s, -c.HalfSize, c.HalfSize)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor while keeping the world point under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.ZoomBy(factor)
	nx, ny := c.ScreenToWorld(sx, sy)
	c.X = clamp(c.X+wx-nx, -c.HalfSize, c.HalfSize)
	c.Y = clamp(c.Y+wy-ny, -c.HalfSize, c.HalfSize)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X, c.Y = 0, 0
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	s := c.Scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
