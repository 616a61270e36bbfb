package engine

import (
	"log/slog"

	"github.com/inamate/nestboard/internal/typeid"
)

// PointerEvent is a pointer press, move or release in screen coordinates.
type PointerEvent struct {
	Pos    Point  `json:"pos"`
	Button Button `json:"button"`
}

// Result tells the caller what an input event changed.
type Result struct {
	// Redraw is set when the frame needs to be rendered again.
	Redraw bool
	// Cursor is the cursor hint after the event.
	Cursor Cursor
	// Committed is the entity created by the event, if any.
	Committed Ref
	// EditText is a text entity that should be opened in the text editor.
	EditText Ref
	// ToolChanged is set when the machine reverted the active tool.
	ToolChanged bool
	// Changed is set when the event edited entities: something was
	// created, moved, resized, reordered or removed.
	Changed bool
	// CameraChanged is set when the event panned or zoomed the active
	// camera.
	CameraChanged bool
}

// Machine is the pointer interaction state machine. It holds no canvas
// state of its own: every handler receives the active Context, so the same
// code drives the root canvas and any nested canvas.
type Machine struct {
	state    State
	tool     Tool
	dragMode bool
	newID    func() string
	log      *slog.Logger
}

// NewMachine creates an idle machine with drag mode enabled. newID mints
// ids for nested canvases and defaults to typeid canvas ids.
func NewMachine(newID func() string, log *slog.Logger) *Machine {
	if newID == nil {
		newID = typeid.NewCanvasID
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Machine{state: Idle{}, dragMode: true, newID: newID, log: log}
}

// State returns the current interaction state.
func (m *Machine) State() State { return m.state }

// Tool returns the active tool.
func (m *Machine) Tool() Tool { return m.tool }

// SetTool sets the active tool. It takes effect on the next pointer-down.
func (m *Machine) SetTool(t Tool) { m.tool = t }

// DragMode reports whether pressing on an entity drags it.
func (m *Machine) DragMode() bool { return m.dragMode }

// SetDragMode enables or disables direct manipulation.
func (m *Machine) SetDragMode(on bool) { m.dragMode = on }

func (m *Machine) enter(s State) {
	if StateName(s) != StateName(m.state) {
		m.log.Debug("interaction state", "from", StateName(m.state), "to", StateName(s))
	}
	m.state = s
}

// PointerDown starts a gesture. Presses that arrive while a gesture is in
// progress are ignored.
func (m *Machine) PointerDown(ctx *Context, ev PointerEvent) Result {
	if _, idle := m.state.(Idle); !idle {
		return Result{Cursor: m.cursor(ctx, ctx.Camera.ScreenToWorld(ev.Pos))}
	}
	world := ctx.Camera.ScreenToWorld(ev.Pos)

	switch ev.Button {
	case ButtonMiddle:
		m.enter(Panning{Last: ev.Pos})
		return Result{Cursor: CursorGrabbing}
	case ButtonRight:
		return Result{Cursor: m.cursor(ctx, world)}
	}

	if hit, ok := HitTest(ctx.Scene, world); ok && m.dragMode {
		ctx.Hovered = hit
		if !ctx.IsSelected(hit) {
			ctx.Select(hit)
		}
		m.enter(Dragging{Last: world})
		return Result{Redraw: true, Cursor: CursorMove}
	}

	if ref, e, ok := ctx.SingleSelected(); ok && Resizable(e) {
		if h := HandleAt(e.Bounds(), world, ctx.Camera.Zoom); h != HandleNone {
			m.enter(Resizing{Target: ref, Handle: h, Offset: grabOffset(e, h, world)})
			return Result{Redraw: true, Cursor: h.Cursor()}
		}
	}

	switch {
	case m.tool == ToolNestedCanvas && !ctx.IsRoot():
		// Nested canvases only exist one level deep.
		return Result{Cursor: CursorDefault}
	case m.tool.draws():
		if m.tool == ToolPen {
			ctx.CurrentPath = &Path{Points: []Point{world}}
		}
		m.enter(Drawing{Tool: m.tool, Start: world, Current: world})
		return Result{Redraw: true, Cursor: CursorCrosshair}
	case m.tool == ToolText:
		t := NewText(world)
		t.IsEditing = true
		ref := ctx.Scene.Push(t)
		ctx.Select(ref)
		m.log.Debug("text created", "context", ctx.ID, "ref", ref.ID)
		return Result{Redraw: true, Changed: true, Cursor: CursorText, Committed: ref, EditText: ref}
	case m.tool == ToolSelect:
		ctx.ClearSelection()
		ctx.Preview = nil
		m.enter(BoxSelecting{Start: world, Current: world})
		return Result{Redraw: true, Cursor: CursorCrosshair}
	default:
		m.enter(Panning{Last: ev.Pos})
		return Result{Cursor: CursorGrabbing}
	}
}

// PointerMove advances the current gesture, or updates hover when idle.
func (m *Machine) PointerMove(ctx *Context, ev PointerEvent) Result {
	world := ctx.Camera.ScreenToWorld(ev.Pos)

	switch st := m.state.(type) {
	case Panning:
		ctx.Camera.Pan(ev.Pos.X-st.Last.X, ev.Pos.Y-st.Last.Y)
		m.state = Panning{Last: ev.Pos}
		return Result{Redraw: true, CameraChanged: ev.Pos != st.Last, Cursor: CursorGrabbing}

	case Dragging:
		moved := m.drag(ctx, st, world)
		return Result{Redraw: true, Changed: moved, Cursor: CursorMove}

	case BoxSelecting:
		st.Current = world
		m.state = st
		ctx.Preview = Overlapping(ctx.Scene, RectFromPoints(st.Start, st.Current))
		return Result{Redraw: true, Cursor: CursorCrosshair}

	case Resizing:
		if !resize(ctx, st, world) {
			m.enter(Idle{})
			return Result{Redraw: true, Cursor: CursorDefault}
		}
		return Result{Redraw: true, Changed: true, Cursor: st.Handle.Cursor()}

	case Drawing:
		st.Current = world
		m.state = st
		if st.Tool == ToolPen && ctx.CurrentPath != nil {
			ctx.CurrentPath.Append(world)
		}
		return Result{Redraw: true, Cursor: CursorCrosshair}
	}

	return m.hover(ctx, world)
}

// drag moves the selection by the distance from the last drag point to
// world and reports whether anything moved.
func (m *Machine) drag(ctx *Context, st Dragging, world Point) bool {
	m.state = Dragging{Last: world}
	d := world.Sub(st.Last)
	if d == (Point{}) || len(ctx.Selected) == 0 {
		return false
	}
	ctx.TranslateSelected(d)
	return true
}

// resize drags the grabbed handle to world. It reports false when the
// target no longer exists.
func resize(ctx *Context, st Resizing, world Point) bool {
	e, ok := ctx.Scene.Get(st.Target)
	if !ok {
		return false
	}
	p := world
	if s, isShape := e.(*Shape); !isShape || s.Type != ShapeCircle {
		p = world.Add(st.Offset)
	}
	Resize(e, st.Handle, p)
	return true
}

// hover recomputes the hovered entity under the world point.
func (m *Machine) hover(ctx *Context, world Point) Result {
	hit, _ := HitTest(ctx.Scene, world)
	changed := hit != ctx.Hovered
	ctx.Hovered = hit
	return Result{Redraw: changed, Cursor: m.cursor(ctx, world)}
}

// cursor mirrors the PointerDown priorities so the cursor announces what a
// press would do.
func (m *Machine) cursor(ctx *Context, world Point) Cursor {
	if !ctx.Hovered.IsZero() && m.dragMode {
		return CursorMove
	}
	if _, e, ok := ctx.SingleSelected(); ok && Resizable(e) {
		if h := HandleAt(e.Bounds(), world, ctx.Camera.Zoom); h != HandleNone {
			return h.Cursor()
		}
	}
	switch {
	case m.tool.draws():
		return CursorCrosshair
	case m.tool == ToolText:
		return CursorText
	case m.tool == ToolSelect:
		return CursorDefault
	}
	return CursorGrab
}

// PointerUp ends the current gesture and returns to Idle.
func (m *Machine) PointerUp(ctx *Context, ev PointerEvent) Result {
	world := ctx.Camera.ScreenToWorld(ev.Pos)
	res := Result{Redraw: true}

	switch st := m.state.(type) {
	case Idle:
		res.Redraw = false
	case Dragging:
		res.Changed = m.drag(ctx, st, world)
	case Resizing:
		res.Changed = resize(ctx, st, world)
	case BoxSelecting:
		ctx.Select(Contained(ctx.Scene, RectFromPoints(st.Start, world))...)
		ctx.Preview = nil
	case Drawing:
		st.Current = world
		res.Committed = m.commit(ctx, st)
		res.Changed = !res.Committed.IsZero()
		if m.tool != ToolNone {
			m.tool = ToolNone
			res.ToolChanged = true
		}
	}

	m.enter(Idle{})
	hit, _ := HitTest(ctx.Scene, world)
	ctx.Hovered = hit
	res.Cursor = m.cursor(ctx, world)
	return res
}

// commit turns a finished drawing gesture into an entity.
func (m *Machine) commit(ctx *Context, st Drawing) Ref {
	var e Entity
	switch st.Tool {
	case ToolPen:
		path := ctx.CurrentPath
		ctx.CurrentPath = nil
		if path == nil || len(path.Points) == 0 {
			return Ref{}
		}
		if last := path.Points[len(path.Points)-1]; last != st.Current {
			path.Append(st.Current)
		}
		e = path
	case ToolRectangle:
		e = NewRectangle(RectFromPoints(st.Start, st.Current))
	case ToolCircle:
		e = CircleFromDrag(st.Start, st.Current)
	case ToolNestedCanvas:
		r := floorRect(RectFromPoints(st.Start, st.Current))
		e = &NestedCanvas{ID: m.newID(), X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	default:
		return Ref{}
	}
	ref := ctx.Scene.Push(e)
	m.log.Debug("entity committed", "context", ctx.ID, "kind", ref.Kind, "ref", ref.ID)
	return ref
}

// Cancel aborts the gesture in progress without committing anything.
func (m *Machine) Cancel(ctx *Context) bool {
	if _, idle := m.state.(Idle); idle {
		return false
	}
	ctx.Preview = nil
	ctx.CurrentPath = nil
	m.enter(Idle{})
	return true
}
