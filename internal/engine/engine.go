package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/inamate/nestboard/internal/document"
	"github.com/inamate/nestboard/internal/typeid"
)

// TextEditor is the text-input collaborator. The engine calls BeginEdit when
// a text box should be edited; the editor later reports back through
// Engine.CommitText or Engine.CancelText.
type TextEditor interface {
	BeginEdit(contextID string, ref Ref, t Text)
}

// Modifiers are the keyboard modifiers held during a key press.
type Modifiers struct {
	Ctrl  bool `json:"ctrl"`
	Meta  bool `json:"meta"`
	Shift bool `json:"shift"`
	Alt   bool `json:"alt"`
}

func (m Modifiers) command() bool { return m.Ctrl || m.Meta }

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithIDGenerator sets the function that mints nested canvas ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithTextEditor sets the text-input collaborator.
func WithTextEditor(ed TextEditor) Option {
	return func(e *Engine) { e.editor = ed }
}

// WithViewport sets the initial viewport size.
func WithViewport(s Size) Option {
	return func(e *Engine) { e.viewport = s }
}

// sharedDoc is the document every view of a board edits.
type sharedDoc struct {
	meta   document.Board
	root   *Scene
	nested *NestedStore
	open   map[string]*openCanvas
}

// openCanvas is a nested canvas entered by at least one view. Views inside
// it share the live scene; camera is the one it was last left with.
type openCanvas struct {
	scene  *Scene
	camera Camera
	views  int
}

// Engine is the canvas engine. It owns the root context, the nested canvas
// store and the interaction machine, and routes every input to the active
// context. It is not safe for concurrent use, and neither are views created
// from it with each other.
type Engine struct {
	doc *sharedDoc

	root   *Context
	active *Context

	machine   *Machine
	clipboard Clipboard

	editor  TextEditor
	editing Ref

	viewport Size
	cursor   Cursor

	newID func() string
	log   *slog.Logger
}

// New creates an engine holding an empty board.
func New(opts ...Option) *Engine {
	e := &Engine{
		viewport: Size{Width: 1280, Height: 720},
		cursor:   CursorGrab,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	if e.newID == nil {
		e.newID = typeid.NewCanvasID
	}
	e.machine = NewMachine(e.newID, e.log)
	e.reset(document.NewEmptyBoard("", "Untitled"))
	return e
}

func (e *Engine) reset(b *document.Board) {
	e.root = LoadContext("", b.Root)
	e.active = e.root
	e.doc = &sharedDoc{
		meta: document.Board{
			ID:        b.ID,
			Name:      b.Name,
			Version:   b.Version,
			CreatedAt: b.CreatedAt,
			UpdatedAt: b.UpdatedAt,
		},
		root:   e.root.Scene,
		nested: NewNestedStore(b.Nested),
		open:   make(map[string]*openCanvas),
	}
	e.machine.Cancel(e.active)
	e.clipboard.Clear()
	e.editing = Ref{}
}

// NewView returns an engine editing the same document as e. The view has
// its own cameras, selection, tool, clipboard and gesture; entity edits made
// through any view are seen by all of them. The view starts with e's root
// camera and viewport.
func (e *Engine) NewView(opts ...Option) *Engine {
	v := &Engine{
		viewport: e.viewport,
		cursor:   CursorGrab,
		newID:    e.newID,
		log:      e.log,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.machine = NewMachine(v.newID, v.log)
	v.doc = e.doc
	v.root = &Context{Camera: e.root.Camera, Scene: e.doc.root}
	v.active = v.root
	return v
}

// Close leaves the open nested canvas, if any, so the document stops
// tracking it for this view.
func (e *Engine) Close() {
	e.ExitCanvas()
}

// --- Documents ---

// Load replaces the engine state with a copy of b. Views created before
// the call keep the previous document.
func (e *Engine) Load(b *document.Board) error {
	if b == nil {
		return fmt.Errorf("load board: nil board")
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	b = b.Clone()
	b.Normalize()
	e.reset(b)
	e.log.Debug("board loaded", "board", b.ID, "nested", e.doc.nested.Len())
	return nil
}

// LoadJSON loads a board from its JSON form.
func (e *Engine) LoadJSON(data []byte) error {
	var b document.Board
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("decode board: %w", err)
	}
	return e.Load(&b)
}

// Board returns a snapshot of the whole document. Open nested canvases are
// persisted first so the snapshot includes unsaved edits made inside them.
func (e *Engine) Board() *document.Board {
	e.flushOpen()
	b := e.doc.meta
	b.Root = SnapshotContext(e.root)
	b.Nested = e.doc.nested.Snapshot()
	return &b
}

// flushOpen writes the live scene of every open nested canvas back to the
// store. Canvases whose placeholder was deleted are skipped.
func (e *Engine) flushOpen() {
	for id, oc := range e.doc.open {
		if _, _, ok := e.doc.root.FindCanvas(id); !ok {
			continue
		}
		cam := oc.camera
		if e.active.ID == id {
			cam = e.active.Camera
		}
		e.doc.nested.Save(id, SnapshotContext(&Context{ID: id, Camera: cam, Scene: oc.scene}))
	}
}

// BoardJSON serializes Board.
func (e *Engine) BoardJSON() (string, error) {
	data, err := json.Marshal(e.Board())
	if err != nil {
		return "{}", err
	}
	return string(data), nil
}

// --- Accessors ---

// Active returns the context receiving input.
func (e *Engine) Active() *Context { return e.active }

// Root returns the root context.
func (e *Engine) Root() *Context { return e.root }

// Nested returns the nested canvas store.
func (e *Engine) Nested() *NestedStore { return e.doc.nested }

// InNested reports whether a nested canvas is open.
func (e *Engine) InNested() bool { return !e.active.IsRoot() }

// State returns the interaction state.
func (e *Engine) State() State { return e.machine.State() }

// Tool returns the active tool.
func (e *Engine) Tool() Tool { return e.machine.Tool() }

// DragMode reports whether direct manipulation is on.
func (e *Engine) DragMode() bool { return e.machine.DragMode() }

// Cursor returns the cursor hint of the last event.
func (e *Engine) Cursor() Cursor { return e.cursor }

// Editing returns the text entity being edited, if any.
func (e *Engine) Editing() (Ref, bool) { return e.editing, !e.editing.IsZero() }

// Viewport returns the viewport size.
func (e *Engine) Viewport() Size { return e.viewport }

// ClipboardLen returns the number of entities on the clipboard.
func (e *Engine) ClipboardLen() int { return e.clipboard.Len() }

// --- Tools ---

// SetTool selects the tool used by the next pointer-down.
func (e *Engine) SetTool(t Tool) {
	e.machine.SetTool(t)
	e.log.Debug("tool set", "tool", string(t))
}

// SetDragMode enables or disables dragging entities under the pointer.
func (e *Engine) SetDragMode(on bool) { e.machine.SetDragMode(on) }

// --- Pointer input ---

// PointerDown forwards a press to the machine. A press while a text box is
// being edited ends that edit first.
func (e *Engine) PointerDown(ev PointerEvent) Result {
	blurred := e.finishEdit()
	res := e.machine.PointerDown(e.active, ev)
	res.Redraw = res.Redraw || blurred
	return e.after(res)
}

// PointerMove forwards a move to the machine.
func (e *Engine) PointerMove(ev PointerEvent) Result {
	return e.after(e.machine.PointerMove(e.active, ev))
}

// PointerUp forwards a release to the machine.
func (e *Engine) PointerUp(ev PointerEvent) Result {
	res := e.machine.PointerUp(e.active, ev)
	if res.Committed.Kind == KindNestedCanvas && !res.Committed.IsZero() {
		if _, ok := e.active.Scene.Get(res.Committed); ok {
			e.doc.nested.Ensure(e.canvasID(res.Committed))
		}
	}
	return e.after(res)
}

// DoubleClick opens the nested canvas under pos, or edits the text box
// under pos.
func (e *Engine) DoubleClick(pos Point) Result {
	world := e.active.Camera.ScreenToWorld(pos)
	ref, ok := HitTest(e.active.Scene, world)
	if !ok {
		return Result{Cursor: e.cursor}
	}
	ent, _ := e.active.Scene.Get(ref)
	switch v := ent.(type) {
	case *NestedCanvas:
		if e.EnterCanvas(v.ID) {
			return Result{Redraw: true, Cursor: e.cursor}
		}
	case *Text:
		e.finishEdit()
		e.active.Select(ref)
		return e.after(Result{Redraw: true, Cursor: CursorText, EditText: ref})
	}
	return Result{Cursor: e.cursor}
}

// Wheel zooms the active camera around the pointer.
func (e *Engine) Wheel(pos Point, deltaY float64) Result {
	if deltaY == 0 {
		return Result{Cursor: e.cursor}
	}
	e.active.Camera.Wheel(pos, deltaY)
	return Result{Redraw: true, CameraChanged: true, Cursor: e.cursor}
}

// Pinch applies a two-finger gesture to the active camera.
func (e *Engine) Pinch(prevA, prevB, curA, curB Point) Result {
	e.active.Camera.Pinch(prevA, prevB, curA, curB)
	return Result{Redraw: true, CameraChanged: true, Cursor: e.cursor}
}

func (e *Engine) after(res Result) Result {
	if res.Cursor == "" {
		res.Cursor = e.cursor
	}
	e.cursor = res.Cursor
	if !res.EditText.IsZero() {
		e.beginEdit(res.EditText)
	}
	return res
}

// --- Camera controls ---

// SetViewport records the viewport size used by the discrete zoom
// controls and recentering.
func (e *Engine) SetViewport(s Size) {
	if s.Width > 0 && s.Height > 0 {
		e.viewport = s
	}
}

// ZoomIn zooms the active camera one step toward the viewport center.
func (e *Engine) ZoomIn() { e.active.Camera.ZoomIn(e.viewport) }

// ZoomOut zooms the active camera one step away from the viewport center.
func (e *Engine) ZoomOut() { e.active.Camera.ZoomOut(e.viewport) }

// ResetZoom sets the active zoom to 1.
func (e *Engine) ResetZoom() { e.active.Camera.ResetZoom() }

// Recenter puts the world origin at the viewport center.
func (e *Engine) Recenter() { e.active.Camera.Recenter(e.viewport) }

// --- Selection and edits ---

// SelectAll selects every entity of the active context.
func (e *Engine) SelectAll() Result {
	e.active.SelectAll()
	return Result{Redraw: true, Cursor: e.cursor}
}

// ClearSelection empties the selection of the active context.
func (e *Engine) ClearSelection() Result {
	if len(e.active.Selected) == 0 {
		return Result{Cursor: e.cursor}
	}
	e.active.ClearSelection()
	return Result{Redraw: true, Cursor: e.cursor}
}

// Delete removes the selection. Deleting a nested canvas also deletes its
// persisted data.
func (e *Engine) Delete() Result {
	if len(e.active.Selected) == 0 {
		return Result{Cursor: e.cursor}
	}
	removed := e.active.DeleteSelected()
	for _, ent := range removed {
		if nc, ok := ent.(*NestedCanvas); ok {
			e.doc.nested.Delete(nc.ID)
		}
	}
	if _, ok := e.active.Scene.Get(e.editing); !ok {
		e.editing = Ref{}
	}
	e.log.Debug("entities deleted", "context", e.active.ID, "count", len(removed))
	return Result{Redraw: true, Changed: len(removed) > 0, Cursor: e.cursor}
}

// Copy puts deep copies of the selection on the clipboard.
func (e *Engine) Copy() int {
	e.flushOpen()
	return e.clipboard.copyFrom(e.active, e.doc.nested)
}

// Cut copies the selection and deletes it.
func (e *Engine) Cut() Result {
	if e.Copy() == 0 {
		return Result{Cursor: e.cursor}
	}
	return e.Delete()
}

// Paste adds the clipboard contents to the active context, offset by
// PasteOffset from the previous copy, and selects them.
func (e *Engine) Paste() Result {
	if e.clipboard.Len() == 0 {
		return Result{Cursor: e.cursor}
	}
	refs := e.clipboard.pasteInto(e.active, e.doc.nested, e.newID)
	e.log.Debug("pasted", "context", e.active.ID, "count", len(refs))
	return Result{Redraw: len(refs) > 0, Changed: len(refs) > 0, Cursor: e.cursor}
}

// BringToFront moves the selection to the top of their containers.
func (e *Engine) BringToFront() Result {
	moved := false
	for _, r := range e.active.Selected {
		moved = e.active.Scene.BringToFront(r) || moved
	}
	return Result{Redraw: moved, Changed: moved, Cursor: e.cursor}
}

// SendToBack moves the selection to the bottom of their containers.
func (e *Engine) SendToBack() Result {
	moved := false
	for i := len(e.active.Selected) - 1; i >= 0; i-- {
		moved = e.active.Scene.SendToBack(e.active.Selected[i]) || moved
	}
	return Result{Redraw: moved, Changed: moved, Cursor: e.cursor}
}

// HitTest returns the topmost entity of the active context under the
// screen point pos.
func (e *Engine) HitTest(pos Point) (Ref, bool) {
	return HitTest(e.active.Scene, e.active.Camera.ScreenToWorld(pos))
}

// --- Keyboard ---

// KeyDown applies the keyboard shortcuts. key is a DOM KeyboardEvent.key
// value. Keys other than Escape are ignored while a text box is being
// edited, since the text editor owns them.
func (e *Engine) KeyDown(key string, mods Modifiers) Result {
	if key == "Escape" {
		return e.escape()
	}
	if !e.editing.IsZero() {
		return Result{Cursor: e.cursor}
	}

	if mods.command() {
		switch strings.ToLower(key) {
		case "c":
			e.Copy()
			return Result{Cursor: e.cursor}
		case "x":
			return e.Cut()
		case "v":
			return e.Paste()
		case "a":
			return e.SelectAll()
		}
	}

	switch key {
	case "Delete", "Backspace":
		return e.Delete()
	case "+", "=":
		e.ZoomIn()
	case "-", "_":
		e.ZoomOut()
	case "0":
		e.ResetZoom()
	default:
		return Result{Cursor: e.cursor}
	}
	return Result{Redraw: true, CameraChanged: true, Cursor: e.cursor}
}

// escape unwinds one level: the text edit, then the gesture in progress,
// then the open nested canvas, then the selection.
func (e *Engine) escape() Result {
	switch {
	case !e.editing.IsZero():
		return e.CancelText()
	case e.machine.Cancel(e.active):
		return Result{Redraw: true, Cursor: e.cursor}
	case e.ExitCanvas():
		return Result{Redraw: true, Cursor: e.cursor}
	}
	return e.ClearSelection()
}

// --- Nested canvases ---

// EnterCanvas opens the nested canvas with the given id. The placeholder
// must exist in the root context. Entering while already nested is a
// no-op.
func (e *Engine) EnterCanvas(id string) bool {
	if !e.active.IsRoot() {
		return false
	}
	if _, _, ok := e.root.Scene.FindCanvas(id); !ok {
		return false
	}
	e.finishEdit()
	e.machine.Cancel(e.root)
	e.root.Hovered = Ref{}

	oc, ok := e.doc.open[id]
	if !ok {
		ctx := LoadContext(id, e.doc.nested.Load(id))
		oc = &openCanvas{scene: ctx.Scene, camera: ctx.Camera}
		e.doc.open[id] = oc
	}
	oc.views++
	e.active = &Context{ID: id, Camera: oc.camera, Scene: oc.scene}
	e.cursor = e.machine.cursor(e.active, Point{math.Inf(1), math.Inf(1)})
	e.log.Debug("canvas entered", "canvas", id)
	return true
}

// ExitCanvas saves the open nested canvas and returns to the root. It
// reports false when no nested canvas is open.
func (e *Engine) ExitCanvas() bool {
	if e.active.IsRoot() {
		return false
	}
	e.finishEdit()
	e.machine.Cancel(e.active)

	id := e.active.ID
	if oc, ok := e.doc.open[id]; ok {
		oc.camera = e.active.Camera
		oc.views--
		if oc.views <= 0 {
			delete(e.doc.open, id)
		}
	}
	if _, _, ok := e.root.Scene.FindCanvas(id); ok {
		e.doc.nested.Save(id, SnapshotContext(e.active))
	}
	e.active = e.root
	e.root.Prune()
	e.log.Debug("canvas exited", "canvas", id)
	return true
}

func (e *Engine) canvasID(r Ref) string {
	ent, ok := e.active.Scene.Get(r)
	if !ok {
		return ""
	}
	if nc, ok := ent.(*NestedCanvas); ok {
		return nc.ID
	}
	return ""
}

// --- Text editing ---

func (e *Engine) beginEdit(r Ref) {
	ent, ok := e.active.Scene.Get(r)
	if !ok {
		return
	}
	t, ok := ent.(*Text)
	if !ok {
		return
	}
	t.IsEditing = true
	e.editing = r
	if e.editor != nil {
		e.editor.BeginEdit(e.active.ID, r, *t)
	}
}

// CommitText stores s as the content of the text box being edited. An
// empty string removes the text box.
func (e *Engine) CommitText(s string) Result {
	t, ok := e.editingText()
	if !ok {
		return Result{Cursor: e.cursor}
	}
	r := e.editing
	e.editing = Ref{}
	if strings.TrimSpace(s) == "" {
		e.active.Remove(r)
		return Result{Redraw: true, Changed: true, Cursor: e.cursor}
	}
	changed := t.Text != s
	t.Text = s
	t.IsEditing = false
	lines := strings.Count(s, "\n") + 1
	t.Height = float64(lines) * t.FontSize * LineHeight
	return Result{Redraw: true, Changed: changed, Cursor: e.cursor}
}

// CancelText abandons the edit. A text box that never had content is
// removed.
func (e *Engine) CancelText() Result {
	t, ok := e.editingText()
	if !ok {
		return Result{Cursor: e.cursor}
	}
	r := e.editing
	e.editing = Ref{}
	if t.Text == "" {
		e.active.Remove(r)
		return Result{Redraw: true, Changed: true, Cursor: e.cursor}
	}
	t.IsEditing = false
	return Result{Redraw: true, Cursor: e.cursor}
}

// finishEdit ends an edit the editor never reported, keeping the stored
// content.
func (e *Engine) finishEdit() bool {
	if e.editing.IsZero() {
		return false
	}
	e.CancelText()
	return true
}

func (e *Engine) editingText() (*Text, bool) {
	if e.editing.IsZero() {
		return nil, false
	}
	ent, ok := e.active.Scene.Get(e.editing)
	if !ok {
		e.editing = Ref{}
		return nil, false
	}
	t, ok := ent.(*Text)
	return t, ok
}

// --- Queries ---

// Frame compiles the active context into draw commands.
func (e *Engine) Frame() Frame {
	return CompileFrame(e.active, e.machine, e.cursor)
}

// FrameJSON serializes Frame.
func (e *Engine) FrameJSON() (string, error) {
	return FrameToJSON(e.Frame())
}

// SelectionBounds returns the bounds of the active selection.
func (e *Engine) SelectionBounds() Rect {
	return SelectionBounds(e.active.Scene, e.active.Selected)
}
