package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlesScaleWithZoom(t *testing.T) {
	b := Rect{X: 0, Y: 0, Width: 100, Height: 50}

	hs := Handles(b, 1)
	require.Len(t, hs, 8)
	assert.Equal(t, HandleTopLeft, hs[0].Kind)
	assert.Equal(t, Rect{X: -4, Y: -4, Width: 8, Height: 8}, hs[0].Rect)

	hs = Handles(b, 2)
	assert.Equal(t, Rect{X: -2, Y: -2, Width: 4, Height: 4}, hs[0].Rect)
}

func TestHandleAt(t *testing.T) {
	b := Rect{X: 0, Y: 0, Width: 100, Height: 50}
	tests := []struct {
		name string
		p    Point
		zoom float64
		want HandleKind
	}{
		{"top left", Point{-3, 2}, 1, HandleTopLeft},
		{"top edge", Point{50, -10}, 1, HandleTop},
		{"right edge", Point{104, 25}, 1, HandleRight},
		{"bottom right", Point{110, 60}, 1, HandleBottomRight},
		{"beyond tolerance", Point{111, 60}, 1, HandleNone},
		{"tolerance shrinks with zoom", Point{106, 56}, 2, HandleNone},
		{"tolerance grows when zoomed out", Point{115, 65}, 0.5, HandleBottomRight},
		{"interior", Point{30, 25}, 1, HandleNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HandleAt(b, tt.p, tt.zoom))
		})
	}
}

func TestHandleAtPrefersCorners(t *testing.T) {
	// On a tiny box every handle is within tolerance; the corner wins.
	b := Rect{X: 0, Y: 0, Width: 4, Height: 4}
	assert.Equal(t, HandleTopLeft, HandleAt(b, Point{0, 0}, 1))
}

func TestResizeRect(t *testing.T) {
	tests := []struct {
		name string
		h    HandleKind
		p    Point
		want Rect
	}{
		{"bottom right grows", HandleBottomRight, Point{200, 150}, Rect{X: 100, Y: 100, Width: 100, Height: 50}},
		{"top left moves origin", HandleTopLeft, Point{50, 80}, Rect{X: 50, Y: 80, Width: 100, Height: 70}},
		{"right edge only", HandleRight, Point{300, 999}, Rect{X: 100, Y: 100, Width: 200, Height: 50}},
		{"top edge only", HandleTop, Point{-50, 120}, Rect{X: 100, Y: 120, Width: 50, Height: 30}},
		{"left floors at min size", HandleLeft, Point{500, 0}, Rect{X: 140, Y: 100, Width: MinSize, Height: 50}},
		{"bottom right past origin floors", HandleBottomRight, Point{0, 0}, Rect{X: 100, Y: 100, Width: MinSize, Height: MinSize}},
		{"top left past corner floors", HandleTopLeft, Point{1000, 1000}, Rect{X: 140, Y: 140, Width: MinSize, Height: MinSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := rect(100, 100, 50, 50)
			Resize(s, tt.h, tt.p)
			assert.Equal(t, tt.want, s.Bounds())
		})
	}
}

func TestResizeTextAndCanvas(t *testing.T) {
	txt := &Text{X: 0, Y: 0, Width: 200, Height: 24}
	Resize(txt, HandleBottom, Point{0, 100})
	assert.Equal(t, 100.0, txt.Height)
	assert.Equal(t, 200.0, txt.Width)

	nc := &NestedCanvas{ID: "n", X: 0, Y: 0, Width: 100, Height: 100}
	Resize(nc, HandleTopRight, Point{50, 90})
	assert.Equal(t, Rect{X: 0, Y: 90, Width: 50, Height: MinSize}, nc.Bounds())
	assert.Equal(t, "n", nc.ID)
}

func TestResizeCircle(t *testing.T) {
	c := NewCircle(Point{100, 100}, 20)
	Resize(c, HandleRight, Point{130, 140})
	assert.InDelta(t, 50.0, c.Radius, 1e-9)
	assert.Equal(t, 100.0, c.X, "center is fixed")

	Resize(c, HandleTopLeft, Point{101, 101})
	assert.Equal(t, MinRadius, c.Radius)
}

func TestPathsAreNotResizable(t *testing.T) {
	p := &Path{Points: []Point{{0, 0}, {10, 10}}}
	assert.False(t, Resizable(p))
	Resize(p, HandleBottomRight, Point{100, 100})
	assert.Equal(t, []Point{{0, 0}, {10, 10}}, p.Points)

	assert.True(t, Resizable(rect(0, 0, 10, 10)))
	assert.True(t, Resizable(NewCircle(Point{}, 10)))
	assert.True(t, Resizable(NewText(Point{})))
	assert.True(t, Resizable(&NestedCanvas{}))
}

func TestHandleCursor(t *testing.T) {
	assert.Equal(t, CursorResizeNWSE, HandleTopLeft.Cursor())
	assert.Equal(t, CursorResizeNESW, HandleBottomLeft.Cursor())
	assert.Equal(t, CursorResizeNS, HandleTop.Cursor())
	assert.Equal(t, CursorResizeEW, HandleLeft.Cursor())
	assert.Equal(t, "se", HandleBottomRight.String())
}
