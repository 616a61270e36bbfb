package engine

import (
	"encoding/json"
)

// DrawCommand is a single drawing operation for the frontend to execute.
// Geometry is in world coordinates; the frame's Transform maps it to the
// screen.
type DrawCommand struct {
	Op          string  `json:"op"`                    // "path", "rect", "circle", "text", "canvas", "draft", "marquee", "handle"
	Ref         *Ref    `json:"ref,omitempty"`         // For hit correlation
	CanvasID    string  `json:"canvasId,omitempty"`    // Nested canvas id for "canvas" ops
	Points      []Point `json:"points,omitempty"`      // Polyline for "path" ops
	X           float64 `json:"x,omitempty"`           // Top-left, or center for circles
	Y           float64 `json:"y,omitempty"`           //
	Width       float64 `json:"width,omitempty"`       //
	Height      float64 `json:"height,omitempty"`      //
	Radius      float64 `json:"radius,omitempty"`      //
	Text        string  `json:"text,omitempty"`        //
	FontSize    float64 `json:"fontSize,omitempty"`    //
	FontFamily  string  `json:"fontFamily,omitempty"`  //
	Fill        string  `json:"fill,omitempty"`        // Fill color
	Stroke      string  `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64 `json:"strokeWidth,omitempty"` // Stroke width in screen pixels
	Handle      string  `json:"handle,omitempty"`      // Handle name for "handle" ops
	Hovered     bool    `json:"hovered,omitempty"`
	Selected    bool    `json:"selected,omitempty"`
	Preview     bool    `json:"preview,omitempty"`
	Editing     bool    `json:"editing,omitempty"`
}

// Frame is everything the frontend needs to paint one canvas.
type Frame struct {
	ContextID       string        `json:"contextId"`
	Camera          Camera        `json:"camera"`
	Transform       []float64     `json:"transform"` // [a, b, c, d, e, f] world-to-screen
	State           string        `json:"state"`
	Tool            Tool          `json:"tool"`
	DragMode        bool          `json:"dragMode"`
	Cursor          Cursor        `json:"cursor"`
	Commands        []DrawCommand `json:"commands"`
	SelectionBounds *Rect         `json:"selectionBounds,omitempty"`
}

const (
	defaultStroke   = "#000000"
	selectionStroke = "#2563eb"
	previewStroke   = "#60a5fa"
	canvasFill      = "#f8fafc"
	handleFill      = "#ffffff"
)

// CompileFrame generates the frame of ctx as seen through machine m.
// Commands are in painter's order (back to front), followed by the draft
// entity, the marquee and the resize handles.
func CompileFrame(ctx *Context, m *Machine, cursor Cursor) Frame {
	f := Frame{
		ContextID: ctx.ID,
		Camera:    ctx.Camera,
		Transform: ctx.Camera.Matrix().ToSlice(),
		State:     StateName(m.State()),
		Tool:      m.Tool(),
		DragMode:  m.DragMode(),
		Cursor:    cursor,
		Commands:  []DrawCommand{},
	}

	ctx.Scene.Each(func(r Ref, e Entity) bool {
		cmd := compileEntity(e)
		ref := r
		cmd.Ref = &ref
		cmd.Hovered = r == ctx.Hovered
		cmd.Selected = ctx.IsSelected(r)
		cmd.Preview = ctx.IsPreviewed(r)
		switch {
		case cmd.Selected:
			cmd.Stroke = selectionStroke
		case cmd.Preview:
			cmd.Stroke = previewStroke
		}
		f.Commands = append(f.Commands, cmd)
		return true
	})

	f.Commands = append(f.Commands, compileGesture(ctx, m.State())...)

	if len(ctx.Selected) > 0 {
		b := SelectionBounds(ctx.Scene, ctx.Selected)
		f.SelectionBounds = &b
	}
	if _, e, ok := ctx.SingleSelected(); ok && Resizable(e) {
		for _, h := range Handles(e.Bounds(), ctx.Camera.Zoom) {
			f.Commands = append(f.Commands, DrawCommand{
				Op:          "handle",
				Handle:      h.Kind.String(),
				X:           h.Rect.X,
				Y:           h.Rect.Y,
				Width:       h.Rect.Width,
				Height:      h.Rect.Height,
				Fill:        handleFill,
				Stroke:      selectionStroke,
				StrokeWidth: 1,
			})
		}
	}
	return f
}

func compileEntity(e Entity) DrawCommand {
	switch v := e.(type) {
	case *Path:
		return DrawCommand{Op: "path", Points: v.Points, Stroke: defaultStroke, StrokeWidth: 2}
	case *Shape:
		if v.Type == ShapeCircle {
			return DrawCommand{Op: "circle", X: v.X, Y: v.Y, Radius: v.Radius, Stroke: defaultStroke, StrokeWidth: 2}
		}
		return DrawCommand{Op: "rect", X: v.X, Y: v.Y, Width: v.Width, Height: v.Height, Stroke: defaultStroke, StrokeWidth: 2}
	case *Text:
		return DrawCommand{
			Op: "text", X: v.X, Y: v.Y, Width: v.Width, Height: v.Height,
			Text: v.Text, FontSize: v.FontSize, FontFamily: v.FontFamily, Fill: v.Color,
			Editing: v.IsEditing,
		}
	case *NestedCanvas:
		return DrawCommand{
			Op: "canvas", CanvasID: v.ID, X: v.X, Y: v.Y, Width: v.Width, Height: v.Height,
			Fill: canvasFill, Stroke: defaultStroke, StrokeWidth: 1,
		}
	}
	return DrawCommand{Op: "unknown"}
}

// compileGesture renders the transient geometry of the gesture in progress.
func compileGesture(ctx *Context, st State) []DrawCommand {
	switch st := st.(type) {
	case Drawing:
		switch st.Tool {
		case ToolPen:
			if ctx.CurrentPath == nil {
				return nil
			}
			return []DrawCommand{{Op: "draft", Points: ctx.CurrentPath.Points, Stroke: defaultStroke, StrokeWidth: 2}}
		case ToolCircle:
			c := CircleFromDrag(st.Start, st.Current)
			return []DrawCommand{{Op: "draft", X: c.X, Y: c.Y, Radius: c.Radius, Stroke: previewStroke, StrokeWidth: 1}}
		default:
			r := RectFromPoints(st.Start, st.Current)
			return []DrawCommand{{Op: "draft", X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Stroke: previewStroke, StrokeWidth: 1}}
		}
	case BoxSelecting:
		r := RectFromPoints(st.Start, st.Current)
		return []DrawCommand{{Op: "marquee", X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Stroke: previewStroke, StrokeWidth: 1}}
	}
	return nil
}

// FrameToJSON serializes a frame to JSON.
func FrameToJSON(f Frame) (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "{}", err
	}
	return string(data), nil
}
