package engine

import "math"

const (
	DefaultMinZoom = 0.1
	DefaultMaxZoom = 10.0

	// ZoomStep is the multiplicative factor of the discrete zoom controls.
	ZoomStep = 1.2
	// WheelZoomStep is applied once per wheel event.
	WheelZoomStep = 1.05
)

// Size is a viewport size in screen pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the screen-space center of the viewport.
func (s Size) Center() Point {
	return Point{s.Width / 2, s.Height / 2}
}

// Camera is the pan/zoom state of one canvas.
//
// X and Y are world-space offsets: screen = (world + (X, Y)) * Zoom.
// Zoom is clamped to [MinZoom, MaxZoom] by every mutating method.
type Camera struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Zoom    float64 `json:"zoom"`
	MinZoom float64 `json:"minZoom"`
	MaxZoom float64 `json:"maxZoom"`
}

// NewCamera returns a camera at the world origin with zoom 1.
func NewCamera() Camera {
	return Camera{Zoom: 1, MinZoom: DefaultMinZoom, MaxZoom: DefaultMaxZoom}
}

// normalize repairs bounds and zoom so the camera invariants hold.
func (c *Camera) normalize() {
	if c.MinZoom <= 0 {
		c.MinZoom = DefaultMinZoom
	}
	if c.MaxZoom < c.MinZoom {
		c.MaxZoom = max(DefaultMaxZoom, c.MinZoom)
	}
	c.Zoom = c.clamp(c.Zoom)
}

func (c *Camera) clamp(z float64) float64 {
	if math.IsNaN(z) || z <= 0 {
		z = 1
	}
	return math.Max(c.MinZoom, math.Min(z, c.MaxZoom))
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c Camera) WorldToScreen(p Point) Point {
	return Point{(p.X + c.X) * c.Zoom, (p.Y + c.Y) * c.Zoom}
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c Camera) ScreenToWorld(p Point) Point {
	return Point{p.X/c.Zoom - c.X, p.Y/c.Zoom - c.Y}
}

// Matrix returns the world-to-screen transform: Scale(zoom) * Translate(X, Y).
func (c Camera) Matrix() Matrix2D {
	return Scale(c.Zoom, c.Zoom).Multiply(Translate(c.X, c.Y))
}

// Pan moves the camera by a screen-space pixel delta.
func (c *Camera) Pan(dx, dy float64) {
	c.normalize()
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
}

// SetZoom sets the zoom level, clamped, without moving the camera offset.
func (c *Camera) SetZoom(z float64) {
	c.normalize()
	c.Zoom = c.clamp(z)
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// the screen anchor stationary.
func (c *Camera) ZoomAt(anchor Point, factor float64) {
	c.normalize()
	before := c.ScreenToWorld(anchor)
	c.Zoom = c.clamp(c.Zoom * factor)
	after := c.ScreenToWorld(anchor)
	c.X += after.X - before.X
	c.Y += after.Y - before.Y
}

// ZoomIn zooms one discrete step toward the viewport center.
func (c *Camera) ZoomIn(viewport Size) {
	c.ZoomAt(viewport.Center(), ZoomStep)
}

// ZoomOut zooms one discrete step away from the viewport center.
func (c *Camera) ZoomOut(viewport Size) {
	c.ZoomAt(viewport.Center(), 1/ZoomStep)
}

// Wheel applies one wheel notch at the anchor. Negative deltaY zooms in.
func (c *Camera) Wheel(anchor Point, deltaY float64) {
	switch {
	case deltaY < 0:
		c.ZoomAt(anchor, WheelZoomStep)
	case deltaY > 0:
		c.ZoomAt(anchor, 1/WheelZoomStep)
	}
}

// Pinch applies a two-finger gesture: the zoom follows the ratio of finger
// distances around the current midpoint, then the view pans by how far the
// midpoint moved.
func (c *Camera) Pinch(prevA, prevB, curA, curB Point) {
	prevDist := prevA.Dist(prevB)
	curDist := curA.Dist(curB)
	prevMid := prevA.Add(prevB).Scale(0.5)
	curMid := curA.Add(curB).Scale(0.5)

	if prevDist > 0 && curDist > 0 {
		c.ZoomAt(curMid, curDist/prevDist)
	}
	c.Pan(curMid.X-prevMid.X, curMid.Y-prevMid.Y)
}

// Recenter places the world origin at the center of the viewport.
func (c *Camera) Recenter(viewport Size) {
	c.normalize()
	center := viewport.Center()
	c.X = center.X / c.Zoom
	c.Y = center.Y / c.Zoom
}

// ResetZoom sets zoom to 1 and leaves the offset untouched.
func (c *Camera) ResetZoom() {
	c.SetZoom(1)
}

// VisibleBounds returns the world-space rect covered by the viewport.
func (c Camera) VisibleBounds(viewport Size) Rect {
	tl := c.ScreenToWorld(Point{})
	br := c.ScreenToWorld(Point{viewport.Width, viewport.Height})
	return RectFromPoints(tl, br)
}
