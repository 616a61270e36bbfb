package engine

import (
	"fmt"
	"math"
	"slices"
)

// Kind tags the four entity variants. Each kind has its own ordered
// container in a Scene.
type Kind uint8

const (
	KindPath Kind = iota
	KindShape
	KindText
	KindNestedCanvas

	numKinds
)

// hitOrder is the container priority for topmost-wins hit-testing.
var hitOrder = [numKinds]Kind{KindNestedCanvas, KindShape, KindText, KindPath}

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindShape:
		return "shape"
	case KindText:
		return "text"
	case KindNestedCanvas:
		return "nested-canvas"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := Kind(0); k < numKinds; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown entity kind %q", b)
	}
	*k = parsed
	return nil
}

// Entity is a drawable item stored in world coordinates.
type Entity interface {
	Kind() Kind
	// Bounds is the axis-aligned bounding geometry used for containment.
	Bounds() Rect
	// HitTest reports whether the world point p hits the entity.
	HitTest(p Point) bool
	// Overlaps is the permissive area predicate used by box-select preview.
	Overlaps(r Rect) bool
	// Translate moves the whole entity by d.
	Translate(d Point)
	// Clone returns a deep copy.
	Clone() Entity
}

const (
	// PathHitTolerance is the world-space distance within which a point hits a stroke.
	PathHitTolerance = 5.0
	// MinSize is the smallest width/height a rect-like entity may have.
	MinSize = 10.0
	// MinRadius is the smallest radius a circle may have.
	MinRadius = 5.0
)

// --- Path ---

// Path is a freehand stroke polyline.
type Path struct {
	Points []Point `json:"points"`
}

func (p *Path) Kind() Kind { return KindPath }

func (p *Path) Bounds() Rect { return boundsOf(p.Points) }

func (p *Path) HitTest(pt Point) bool {
	switch len(p.Points) {
	case 0:
		return false
	case 1:
		return pt.Dist(p.Points[0]) <= PathHitTolerance
	}
	for i := 1; i < len(p.Points); i++ {
		if DistToSegment(pt, p.Points[i-1], p.Points[i]) <= PathHitTolerance {
			return true
		}
	}
	return false
}

func (p *Path) Overlaps(r Rect) bool {
	if len(p.Points) == 0 {
		return false
	}
	return r.Intersects(p.Bounds())
}

func (p *Path) Translate(d Point) {
	for i := range p.Points {
		p.Points[i] = p.Points[i].Add(d)
	}
}

func (p *Path) Clone() Entity {
	return &Path{Points: slices.Clone(p.Points)}
}

// Append adds a point to a path under construction.
func (p *Path) Append(pt Point) {
	p.Points = append(p.Points, pt)
}

// --- Shape ---

// ShapeKind distinguishes shape variants.
type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
)

// Shape is a rectangle (X,Y = top-left, Width, Height) or a circle
// (X,Y = center, Radius).
type Shape struct {
	Type   ShapeKind `json:"type"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width,omitempty"`
	Height float64   `json:"height,omitempty"`
	Radius float64   `json:"radius,omitempty"`
}

// NewRectangle returns a normalized rectangle floored to MinSize.
func NewRectangle(r Rect) *Shape {
	r = floorRect(r.Normalize())
	return &Shape{Type: ShapeRectangle, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// NewCircle returns a circle with the radius floored to MinRadius.
func NewCircle(center Point, radius float64) *Shape {
	return &Shape{Type: ShapeCircle, X: center.X, Y: center.Y, Radius: math.Max(radius, MinRadius)}
}

// CircleFromDrag builds the circle committed by a drag from start to end:
// centered on the midpoint, radius half the start-end distance.
func CircleFromDrag(start, end Point) *Shape {
	return NewCircle(start.Add(end).Scale(0.5), start.Dist(end)/2)
}

func (s *Shape) Kind() Kind { return KindShape }

// Center returns the geometric center of the shape.
func (s *Shape) Center() Point {
	if s.Type == ShapeCircle {
		return Point{s.X, s.Y}
	}
	return s.Bounds().Center()
}

func (s *Shape) Bounds() Rect {
	if s.Type == ShapeCircle {
		return Rect{X: s.X - s.Radius, Y: s.Y - s.Radius, Width: 2 * s.Radius, Height: 2 * s.Radius}
	}
	return Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}.Normalize()
}

func (s *Shape) HitTest(p Point) bool {
	if s.Type == ShapeCircle {
		return p.Dist(Point{s.X, s.Y}) <= s.Radius
	}
	return s.Bounds().Contains(p)
}

func (s *Shape) Overlaps(r Rect) bool {
	if s.Type == ShapeCircle {
		c := Point{s.X, s.Y}
		return r.ClosestPoint(c).Dist(c) <= s.Radius
	}
	return r.Intersects(s.Bounds())
}

func (s *Shape) Translate(d Point) {
	s.X += d.X
	s.Y += d.Y
}

func (s *Shape) Clone() Entity {
	c := *s
	return &c
}

// --- Text ---

// Text is a text box.
type Text struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	Color      string  `json:"color"`
	IsEditing  bool    `json:"isEditing"`
}

const (
	DefaultFontSize   = 16.0
	DefaultFontFamily = "sans-serif"
	DefaultTextColor  = "#000000"
	DefaultTextWidth  = 200.0

	// LineHeight is the text line advance as a multiple of the font size.
	LineHeight = 1.5
)

// NewText returns an empty text box anchored at p with default styling.
func NewText(p Point) *Text {
	return &Text{
		X:          p.X,
		Y:          p.Y,
		Width:      DefaultTextWidth,
		Height:     DefaultFontSize * LineHeight,
		FontSize:   DefaultFontSize,
		FontFamily: DefaultFontFamily,
		Color:      DefaultTextColor,
	}
}

func (t *Text) Kind() Kind { return KindText }

func (t *Text) Bounds() Rect {
	return Rect{X: t.X, Y: t.Y, Width: t.Width, Height: t.Height}.Normalize()
}

func (t *Text) HitTest(p Point) bool { return t.Bounds().Contains(p) }

func (t *Text) Overlaps(r Rect) bool { return r.Intersects(t.Bounds()) }

func (t *Text) Translate(d Point) {
	t.X += d.X
	t.Y += d.Y
}

func (t *Text) Clone() Entity {
	c := *t
	return &c
}

// --- NestedCanvas ---

// NestedCanvas is the placeholder of an embedded canvas. ID keys the
// nested scene in the document's persistence map.
type NestedCanvas struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (n *NestedCanvas) Kind() Kind { return KindNestedCanvas }

func (n *NestedCanvas) Bounds() Rect {
	return Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}.Normalize()
}

func (n *NestedCanvas) HitTest(p Point) bool { return n.Bounds().Contains(p) }

func (n *NestedCanvas) Overlaps(r Rect) bool { return r.Intersects(n.Bounds()) }

func (n *NestedCanvas) Translate(d Point) {
	n.X += d.X
	n.Y += d.Y
}

func (n *NestedCanvas) Clone() Entity {
	c := *n
	return &c
}

// --- rect-like helpers ---

// floorRect grows a normalized rect to at least MinSize in both dimensions,
// keeping its top-left corner.
func floorRect(r Rect) Rect {
	r.Width = math.Max(r.Width, MinSize)
	r.Height = math.Max(r.Height, MinSize)
	return r
}

// rectOf returns the editable rect of rect-like entities.
func rectOf(e Entity) (Rect, bool) {
	switch v := e.(type) {
	case *Shape:
		if v.Type == ShapeRectangle {
			return v.Bounds(), true
		}
	case *Text:
		return v.Bounds(), true
	case *NestedCanvas:
		return v.Bounds(), true
	}
	return Rect{}, false
}

// setRect writes r back into a rect-like entity.
func setRect(e Entity, r Rect) {
	switch v := e.(type) {
	case *Shape:
		v.X, v.Y, v.Width, v.Height = r.X, r.Y, r.Width, r.Height
	case *Text:
		v.X, v.Y, v.Width, v.Height = r.X, r.Y, r.Width, r.Height
	case *NestedCanvas:
		v.X, v.Y, v.Width, v.Height = r.X, r.Y, r.Width, r.Height
	}
}
