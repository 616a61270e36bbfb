package document

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Board is the persisted form of a whole canvas document: the root scene
// plus the scenes of every nested canvas, keyed by nested canvas id.
type Board struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Version   int                  `json:"version"`
	CreatedAt string               `json:"createdAt"`
	UpdatedAt string               `json:"updatedAt"`
	Root      SceneData            `json:"root"`
	Nested    map[string]SceneData `json:"nested"`
}

// SceneData is one canvas: its camera and its four entity lists in draw
// order. Nested scenes never carry canvases of their own.
type SceneData struct {
	Camera   Camera         `json:"camera"`
	Paths    []Path         `json:"paths"`
	Shapes   []Shape        `json:"shapes"`
	Texts    []Text         `json:"texts"`
	Canvases []NestedCanvas `json:"nestedCanvases,omitempty"`
}

type Camera struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Zoom    float64 `json:"zoom"`
	MinZoom float64 `json:"minZoom,omitempty"`
	MaxZoom float64 `json:"maxZoom,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Path struct {
	Points []Point `json:"points"`
}

type ShapeType string

const (
	ShapeTypeRectangle ShapeType = "rectangle"
	ShapeTypeCircle    ShapeType = "circle"
)

// Shape is a rectangle (X,Y top-left) or a circle (X,Y center).
type Shape struct {
	Type   ShapeType `json:"type"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width,omitempty"`
	Height float64   `json:"height,omitempty"`
	Radius float64   `json:"radius,omitempty"`
}

type Text struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	Color      string  `json:"color"`
}

type NestedCanvas struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var (
	ErrDuplicateCanvas = errors.New("duplicate nested canvas id")
	ErrNestedTooDeep   = errors.New("nested canvas inside nested canvas")
	ErrUnknownShape    = errors.New("unknown shape type")
)

// DefaultCamera is the camera of a canvas that was never visited.
func DefaultCamera() Camera {
	return Camera{X: 0, Y: 0, Zoom: 1}
}

// NewEmptyScene returns an empty scene with the default camera.
func NewEmptyScene() SceneData {
	return SceneData{
		Camera: DefaultCamera(),
		Paths:  []Path{},
		Shapes: []Shape{},
		Texts:  []Text{},
	}
}

// NewEmptyBoard creates an empty board. Timestamps are left to the caller.
func NewEmptyBoard(boardID, name string) *Board {
	return &Board{
		ID:        boardID,
		Name:      name,
		Version:   1,
		CreatedAt: "",
		UpdatedAt: "",
		Root:      NewEmptyScene(),
		Nested:    map[string]SceneData{},
	}
}

// Clone returns a deep copy of the scene.
func (s SceneData) Clone() SceneData {
	out := SceneData{
		Camera:   s.Camera,
		Paths:    make([]Path, len(s.Paths)),
		Shapes:   slices.Clone(s.Shapes),
		Texts:    slices.Clone(s.Texts),
		Canvases: slices.Clone(s.Canvases),
	}
	if out.Shapes == nil {
		out.Shapes = []Shape{}
	}
	if out.Texts == nil {
		out.Texts = []Text{}
	}
	for i, p := range s.Paths {
		out.Paths[i] = Path{Points: slices.Clone(p.Points)}
	}
	return out
}

// IsEmpty reports whether the scene holds no entities.
func (s SceneData) IsEmpty() bool {
	return len(s.Paths) == 0 && len(s.Shapes) == 0 && len(s.Texts) == 0 && len(s.Canvases) == 0
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	out := *b
	out.Root = b.Root.Clone()
	out.Nested = make(map[string]SceneData, len(b.Nested))
	for id, sd := range b.Nested {
		out.Nested[id] = sd.Clone()
	}
	return &out
}

// Normalize repairs a loaded board in place: it allocates the nested map,
// gives every root canvas a nested scene, drops nested scenes whose canvas
// no longer exists and fixes zero cameras.
func (b *Board) Normalize() {
	if b.Nested == nil {
		b.Nested = map[string]SceneData{}
	}
	if b.Root.Camera.Zoom <= 0 {
		b.Root.Camera.Zoom = 1
	}
	live := make(map[string]bool, len(b.Root.Canvases))
	for _, c := range b.Root.Canvases {
		live[c.ID] = true
		if _, ok := b.Nested[c.ID]; !ok {
			b.Nested[c.ID] = NewEmptyScene()
		}
	}
	for id, sd := range b.Nested {
		if !live[id] {
			delete(b.Nested, id)
			continue
		}
		if sd.Camera.Zoom <= 0 {
			sd.Camera.Zoom = 1
			b.Nested[id] = sd
		}
	}
}

// Validate checks the structural invariants of a board.
func (b *Board) Validate() error {
	seen := make(map[string]bool, len(b.Root.Canvases))
	for _, c := range b.Root.Canvases {
		if c.ID == "" {
			return fmt.Errorf("nested canvas without id")
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateCanvas, c.ID)
		}
		seen[c.ID] = true
	}
	if err := validateShapes(b.Root.Shapes); err != nil {
		return fmt.Errorf("root: %w", err)
	}
	for _, id := range slices.Sorted(maps.Keys(b.Nested)) {
		sd := b.Nested[id]
		if len(sd.Canvases) > 0 {
			return fmt.Errorf("%w: %s", ErrNestedTooDeep, id)
		}
		if err := validateShapes(sd.Shapes); err != nil {
			return fmt.Errorf("nested %s: %w", id, err)
		}
	}
	return nil
}

func validateShapes(shapes []Shape) error {
	for i, s := range shapes {
		switch s.Type {
		case ShapeTypeRectangle, ShapeTypeCircle:
		default:
			return fmt.Errorf("%w %q at index %d", ErrUnknownShape, s.Type, i)
		}
	}
	return nil
}
