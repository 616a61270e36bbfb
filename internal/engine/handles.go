package engine

import "math"

const (
	// HandleSize is the on-screen edge length of a resize handle in pixels.
	HandleSize = 8.0
	// HandleTolerance is the on-screen hit distance of a handle in pixels.
	HandleTolerance = 10.0
)

// HandleKind names one of the eight resize handles of a bounding box.
type HandleKind uint8

const (
	HandleNone HandleKind = iota
	HandleTopLeft
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
)

var handleNames = [...]string{"none", "nw", "n", "ne", "e", "se", "s", "sw", "w"}

func (h HandleKind) String() string {
	if int(h) < len(handleNames) {
		return handleNames[h]
	}
	return "none"
}

// Cursor returns the cursor hint for hovering the handle.
func (h HandleKind) Cursor() Cursor {
	switch h {
	case HandleTopLeft, HandleBottomRight:
		return CursorResizeNWSE
	case HandleTopRight, HandleBottomLeft:
		return CursorResizeNESW
	case HandleTop, HandleBottom:
		return CursorResizeNS
	case HandleLeft, HandleRight:
		return CursorResizeEW
	}
	return CursorDefault
}

// edges reports which edges of the box the handle moves.
func (h HandleKind) edges() (left, top, right, bottom bool) {
	switch h {
	case HandleTopLeft:
		return true, true, false, false
	case HandleTop:
		return false, true, false, false
	case HandleTopRight:
		return false, true, true, false
	case HandleRight:
		return false, false, true, false
	case HandleBottomRight:
		return false, false, true, true
	case HandleBottom:
		return false, false, false, true
	case HandleBottomLeft:
		return true, false, false, true
	case HandleLeft:
		return true, false, false, false
	}
	return false, false, false, false
}

// anchor returns the world position of handle h on box b.
func (h HandleKind) anchor(b Rect) Point {
	cx, cy := b.X+b.Width/2, b.Y+b.Height/2
	switch h {
	case HandleTopLeft:
		return Point{b.X, b.Y}
	case HandleTop:
		return Point{cx, b.Y}
	case HandleTopRight:
		return Point{b.Right(), b.Y}
	case HandleRight:
		return Point{b.Right(), cy}
	case HandleBottomRight:
		return Point{b.Right(), b.Bottom()}
	case HandleBottom:
		return Point{cx, b.Bottom()}
	case HandleBottomLeft:
		return Point{b.X, b.Bottom()}
	case HandleLeft:
		return Point{b.X, cy}
	}
	return b.Center()
}

// Handle is one resize handle laid out in world coordinates.
type Handle struct {
	Kind HandleKind `json:"kind"`
	Rect Rect       `json:"rect"`
}

// Handles lays out the eight handles of bounds. Their world size is
// HandleSize/zoom so they keep a constant on-screen size.
func Handles(bounds Rect, zoom float64) []Handle {
	size := HandleSize / zoom
	out := make([]Handle, 0, 8)
	for h := HandleTopLeft; h <= HandleLeft; h++ {
		c := h.anchor(bounds)
		out = append(out, Handle{
			Kind: h,
			Rect: Rect{X: c.X - size/2, Y: c.Y - size/2, Width: size, Height: size},
		})
	}
	return out
}

// HandleAt returns the handle of bounds within HandleTolerance/zoom of the
// world point p, or HandleNone. Corners win over edge midpoints.
func HandleAt(bounds Rect, p Point, zoom float64) HandleKind {
	tol := HandleTolerance / zoom
	for _, h := range [...]HandleKind{
		HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft,
		HandleTop, HandleRight, HandleBottom, HandleLeft,
	} {
		c := h.anchor(bounds)
		if math.Abs(p.X-c.X) <= tol && math.Abs(p.Y-c.Y) <= tol {
			return h
		}
	}
	return HandleNone
}

// Resizable reports whether e exposes resize handles. Paths do not.
func Resizable(e Entity) bool {
	switch e.(type) {
	case *Shape, *Text, *NestedCanvas:
		return true
	}
	return false
}

// grabOffset is the distance from the pointer to the handle anchor at the
// moment a resize starts.
func grabOffset(e Entity, h HandleKind, p Point) Point {
	return h.anchor(e.Bounds()).Sub(p)
}

// Resize applies handle h dragged to the world point p.
//
// Rect-like entities move the edges named by h while the opposite edges
// stay put; no dimension drops below MinSize. Circles keep their center
// and take the pointer distance as the new radius, floored to MinRadius.
func Resize(e Entity, h HandleKind, p Point) {
	if h == HandleNone {
		return
	}
	if s, ok := e.(*Shape); ok && s.Type == ShapeCircle {
		s.Radius = math.Max(p.Dist(Point{s.X, s.Y}), MinRadius)
		return
	}
	r, ok := rectOf(e)
	if !ok {
		return
	}
	left, top, right, bottom := r.X, r.Y, r.Right(), r.Bottom()
	ml, mt, mr, mb := h.edges()
	if ml {
		left = math.Min(p.X, right-MinSize)
	}
	if mr {
		right = math.Max(p.X, left+MinSize)
	}
	if mt {
		top = math.Min(p.Y, bottom-MinSize)
	}
	if mb {
		bottom = math.Max(p.Y, top+MinSize)
	}
	setRect(e, floorRect(Rect{X: left, Y: top, Width: right - left, Height: bottom - top}))
}
