package document

import (
	"time"

	"github.com/inamate/nestboard/internal/typeid"
)

// NewSampleBoard returns a small board with one entity of every kind and a
// nested canvas that already has content.
func NewSampleBoard(boardID string) *Board {
	now := time.Now().UTC().Format(time.RFC3339)

	canvasID := typeid.NewCanvasID()

	return &Board{
		ID:        boardID,
		Name:      "Untitled",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Root: SceneData{
			Camera: DefaultCamera(),
			Paths: []Path{
				{Points: []Point{{X: 80, Y: 420}, {X: 140, Y: 380}, {X: 220, Y: 430}, {X: 300, Y: 390}}},
			},
			Shapes: []Shape{
				{Type: ShapeTypeRectangle, X: 200, Y: 200, Width: 200, Height: 150},
				{Type: ShapeTypeCircle, X: 640, Y: 360, Radius: 80},
			},
			Texts: []Text{
				{
					X: 120, Y: 80, Width: 240, Height: 32,
					Text: "Double-click the frame to open it", FontSize: 18,
					FontFamily: "sans-serif", Color: "#1a1a2e",
				},
			},
			Canvases: []NestedCanvas{
				{ID: canvasID, X: 860, Y: 160, Width: 320, Height: 220},
			},
		},
		Nested: map[string]SceneData{
			canvasID: {
				Camera: DefaultCamera(),
				Paths:  []Path{},
				Shapes: []Shape{
					{Type: ShapeTypeRectangle, X: 40, Y: 40, Width: 120, Height: 80},
				},
				Texts: []Text{
					{
						X: 40, Y: 140, Width: 200, Height: 24,
						Text: "Inside the nested canvas", FontSize: 16,
						FontFamily: "sans-serif", Color: "#0f3460",
					},
				},
			},
		},
	}
}
