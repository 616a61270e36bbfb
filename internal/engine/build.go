package engine

import (
	"github.com/inamate/nestboard/internal/document"
)

// LoadContext builds a live context from persisted scene data. Entities are
// pushed in draw order, so positional order survives the round trip.
func LoadContext(id string, sd document.SceneData) *Context {
	ctx := NewContext(id)
	ctx.Camera = Camera{
		X:       sd.Camera.X,
		Y:       sd.Camera.Y,
		Zoom:    sd.Camera.Zoom,
		MinZoom: sd.Camera.MinZoom,
		MaxZoom: sd.Camera.MaxZoom,
	}
	ctx.Camera.normalize()

	for _, p := range sd.Paths {
		ctx.Scene.Push(pathFromDoc(p))
	}
	for _, s := range sd.Shapes {
		ctx.Scene.Push(shapeFromDoc(s))
	}
	for _, t := range sd.Texts {
		ctx.Scene.Push(textFromDoc(t))
	}
	// Depth is fixed at one level: nested scenes never load canvases.
	if ctx.IsRoot() {
		for _, c := range sd.Canvases {
			ctx.Scene.Push(canvasFromDoc(c))
		}
	}
	return ctx
}

// SnapshotContext captures the persistent part of a context: the camera
// and the entity lists. Selection, hover and in-progress paths are
// transient and are not saved.
func SnapshotContext(ctx *Context) document.SceneData {
	sd := document.NewEmptyScene()
	sd.Camera = document.Camera{
		X:       ctx.Camera.X,
		Y:       ctx.Camera.Y,
		Zoom:    ctx.Camera.Zoom,
		MinZoom: ctx.Camera.MinZoom,
		MaxZoom: ctx.Camera.MaxZoom,
	}
	for _, e := range ctx.Scene.Entities(KindPath) {
		sd.Paths = append(sd.Paths, pathToDoc(e.(*Path)))
	}
	for _, e := range ctx.Scene.Entities(KindShape) {
		sd.Shapes = append(sd.Shapes, shapeToDoc(e.(*Shape)))
	}
	for _, e := range ctx.Scene.Entities(KindText) {
		sd.Texts = append(sd.Texts, textToDoc(e.(*Text)))
	}
	for _, e := range ctx.Scene.Entities(KindNestedCanvas) {
		sd.Canvases = append(sd.Canvases, canvasToDoc(e.(*NestedCanvas)))
	}
	return sd
}

func pathFromDoc(p document.Path) *Path {
	out := &Path{Points: make([]Point, len(p.Points))}
	for i, pt := range p.Points {
		out.Points[i] = Point{X: pt.X, Y: pt.Y}
	}
	return out
}

func pathToDoc(p *Path) document.Path {
	out := document.Path{Points: make([]document.Point, len(p.Points))}
	for i, pt := range p.Points {
		out.Points[i] = document.Point{X: pt.X, Y: pt.Y}
	}
	return out
}

func shapeFromDoc(s document.Shape) *Shape {
	if s.Type == document.ShapeTypeCircle {
		return NewCircle(Point{X: s.X, Y: s.Y}, s.Radius)
	}
	return NewRectangle(Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height})
}

func shapeToDoc(s *Shape) document.Shape {
	if s.Type == ShapeCircle {
		return document.Shape{Type: document.ShapeTypeCircle, X: s.X, Y: s.Y, Radius: s.Radius}
	}
	return document.Shape{Type: document.ShapeTypeRectangle, X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

func textFromDoc(t document.Text) *Text {
	return &Text{
		X: t.X, Y: t.Y, Width: t.Width, Height: t.Height,
		Text: t.Text, FontSize: t.FontSize, FontFamily: t.FontFamily, Color: t.Color,
	}
}

func textToDoc(t *Text) document.Text {
	return document.Text{
		X: t.X, Y: t.Y, Width: t.Width, Height: t.Height,
		Text: t.Text, FontSize: t.FontSize, FontFamily: t.FontFamily, Color: t.Color,
	}
}

func canvasFromDoc(c document.NestedCanvas) *NestedCanvas {
	return &NestedCanvas{ID: c.ID, X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}

func canvasToDoc(c *NestedCanvas) document.NestedCanvas {
	return document.NestedCanvas{ID: c.ID, X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}
