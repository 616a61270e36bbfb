package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ncv_test%d", n)
	}
}

func left(x, y float64) PointerEvent {
	return PointerEvent{Pos: Point{x, y}, Button: ButtonLeft}
}

// gesture runs a press, the moves and a release at the last point.
func gesture(m *Machine, ctx *Context, pts ...Point) Result {
	m.PointerDown(ctx, PointerEvent{Pos: pts[0]})
	for _, p := range pts[1:] {
		m.PointerMove(ctx, PointerEvent{Pos: p})
	}
	return m.PointerUp(ctx, PointerEvent{Pos: pts[len(pts)-1]})
}

func newTestMachine() *Machine {
	return NewMachine(seqIDs(), nil)
}

func TestMachineStartsIdle(t *testing.T) {
	m := newTestMachine()
	assert.IsType(t, Idle{}, m.State())
	assert.Equal(t, ToolNone, m.Tool())
	assert.True(t, m.DragMode())
}

func TestDragTranslatesSelection(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	r := ctx.Scene.Push(rect(100, 100, 50, 50))

	res := m.PointerDown(ctx, left(120, 120))
	assert.Equal(t, CursorMove, res.Cursor)
	require.IsType(t, Dragging{}, m.State())
	assert.Equal(t, []Ref{r}, ctx.Selected)

	m.PointerMove(ctx, left(125, 122))
	m.PointerMove(ctx, left(130, 125))
	m.PointerUp(ctx, left(130, 125))

	e, _ := ctx.Scene.Get(r)
	assert.Equal(t, Rect{X: 110, Y: 105, Width: 50, Height: 50}, e.Bounds())
	assert.IsType(t, Idle{}, m.State())
}

func TestZeroDeltaDragChangesNothing(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	r := ctx.Scene.Push(rect(100, 100, 50, 50))
	before := ctx.Scene.layers[KindShape][0].e.Clone()

	gesture(m, ctx, Point{120, 120}, Point{120, 120})

	e, _ := ctx.Scene.Get(r)
	assert.Equal(t, before, e)
}

func TestDragKeepsExistingMultiSelection(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	a := ctx.Scene.Push(rect(0, 0, 50, 50))
	b := ctx.Scene.Push(rect(200, 0, 50, 50))
	ctx.Select(a, b)

	gesture(m, ctx, Point{10, 10}, Point{20, 30})

	assert.Equal(t, []Ref{a, b}, ctx.Selected)
	eb, _ := ctx.Scene.Get(b)
	assert.Equal(t, Point{210, 20}, Point{eb.Bounds().X, eb.Bounds().Y})
}

func TestDragReplacesSelectionWhenTargetNotSelected(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	a := ctx.Scene.Push(rect(0, 0, 50, 50))
	b := ctx.Scene.Push(rect(200, 0, 50, 50))
	ctx.Select(a)

	m.PointerDown(ctx, left(210, 10))
	assert.Equal(t, []Ref{b}, ctx.Selected)
}

func TestResizeThroughHandle(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	r := ctx.Scene.Push(rect(100, 100, 50, 50))
	ctx.Select(r)

	// Just outside the bottom-right corner so the press misses the entity.
	res := m.PointerDown(ctx, left(155, 155))
	require.IsType(t, Resizing{}, m.State())
	assert.Equal(t, CursorResizeNWSE, res.Cursor)

	m.PointerMove(ctx, left(205, 205))
	e, _ := ctx.Scene.Get(r)
	assert.Equal(t, Rect{X: 100, Y: 100, Width: 100, Height: 100}, e.Bounds(), "grab offset is preserved")

	m.PointerMove(ctx, left(0, 0))
	assert.Equal(t, Rect{X: 100, Y: 100, Width: MinSize, Height: MinSize}, e.Bounds())

	m.PointerUp(ctx, left(0, 0))
	assert.IsType(t, Idle{}, m.State())
}

func TestResizeCircleIgnoresOffset(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	r := ctx.Scene.Push(NewCircle(Point{100, 100}, 20))
	ctx.Select(r)

	m.PointerDown(ctx, left(125, 100))
	require.IsType(t, Resizing{}, m.State())
	m.PointerMove(ctx, left(160, 100))

	e, _ := ctx.Scene.Get(r)
	assert.InDelta(t, 60.0, e.(*Shape).Radius, 1e-9)
}

func TestPressOnEntityWinsOverHandle(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	r := ctx.Scene.Push(rect(100, 100, 50, 50))
	ctx.Select(r)

	m.PointerDown(ctx, left(148, 148))
	assert.IsType(t, Dragging{}, m.State())
}

func TestHandlesWorkWithDragModeOff(t *testing.T) {
	m := newTestMachine()
	m.SetDragMode(false)
	ctx := NewContext("")
	r := ctx.Scene.Push(rect(100, 100, 50, 50))
	ctx.Select(r)

	m.PointerDown(ctx, left(148, 148))
	assert.IsType(t, Resizing{}, m.State())
}

func TestDrawingCommits(t *testing.T) {
	tests := []struct {
		name string
		tool Tool
		pts  []Point
		kind Kind
		want func(t *testing.T, e Entity)
	}{
		{
			name: "circle from midpoint",
			tool: ToolCircle,
			pts:  []Point{{100, 100}, {200, 140}},
			kind: KindShape,
			want: func(t *testing.T, e Entity) {
				c := e.(*Shape)
				assert.Equal(t, ShapeCircle, c.Type)
				assert.Equal(t, 150.0, c.X)
				assert.Equal(t, 120.0, c.Y)
				assert.InDelta(t, 53.85, c.Radius, 0.01)
			},
		},
		{
			name: "rectangle normalized",
			tool: ToolRectangle,
			pts:  []Point{{200, 150}, {120, 130}, {100, 100}},
			kind: KindShape,
			want: func(t *testing.T, e Entity) {
				assert.Equal(t, Rect{X: 100, Y: 100, Width: 100, Height: 50}, e.Bounds())
			},
		},
		{
			name: "rectangle floored",
			tool: ToolRectangle,
			pts:  []Point{{50, 50}, {53, 52}},
			kind: KindShape,
			want: func(t *testing.T, e Entity) {
				assert.Equal(t, Rect{X: 50, Y: 50, Width: MinSize, Height: MinSize}, e.Bounds())
			},
		},
		{
			name: "tiny circle floored",
			tool: ToolCircle,
			pts:  []Point{{0, 0}, {2, 0}},
			kind: KindShape,
			want: func(t *testing.T, e Entity) {
				assert.Equal(t, MinRadius, e.(*Shape).Radius)
			},
		},
		{
			name: "pen path",
			tool: ToolPen,
			pts:  []Point{{0, 0}, {10, 0}, {20, 5}},
			kind: KindPath,
			want: func(t *testing.T, e Entity) {
				assert.Equal(t, []Point{{0, 0}, {10, 0}, {20, 5}}, e.(*Path).Points)
			},
		},
		{
			name: "nested canvas",
			tool: ToolNestedCanvas,
			pts:  []Point{{10, 10}, {210, 160}},
			kind: KindNestedCanvas,
			want: func(t *testing.T, e Entity) {
				nc := e.(*NestedCanvas)
				assert.Equal(t, "ncv_test1", nc.ID)
				assert.Equal(t, Rect{X: 10, Y: 10, Width: 200, Height: 150}, nc.Bounds())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine()
			ctx := NewContext("")
			m.SetTool(tt.tool)

			res := gesture(m, ctx, tt.pts...)

			require.False(t, res.Committed.IsZero())
			assert.Equal(t, tt.kind, res.Committed.Kind)
			assert.True(t, res.ToolChanged)
			assert.Equal(t, ToolNone, m.Tool(), "tool reverts after a commit")
			assert.Equal(t, 1, ctx.Scene.Count())
			assert.Nil(t, ctx.CurrentPath)

			e, ok := ctx.Scene.Get(res.Committed)
			require.True(t, ok)
			tt.want(t, e)
		})
	}
}

func TestNestedCanvasToolInertInsideNestedContext(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("ncv_parent")
	m.SetTool(ToolNestedCanvas)

	res := gesture(m, ctx, Point{0, 0}, Point{100, 100})

	assert.True(t, res.Committed.IsZero())
	assert.Equal(t, 0, ctx.Scene.Count())
	assert.Equal(t, ToolNestedCanvas, m.Tool())
}

func TestTextToolCreatesTextAndRequestsEdit(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	m.SetTool(ToolText)

	res := m.PointerDown(ctx, left(40, 60))

	require.False(t, res.EditText.IsZero())
	assert.Equal(t, res.Committed, res.EditText)
	e, ok := ctx.Scene.Get(res.EditText)
	require.True(t, ok)
	txt := e.(*Text)
	assert.True(t, txt.IsEditing)
	assert.Equal(t, Point{40, 60}, Point{txt.X, txt.Y})
	assert.Equal(t, []Ref{res.EditText}, ctx.Selected)
	assert.IsType(t, Idle{}, m.State())
}

func TestBoxSelect(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	inside := ctx.Scene.Push(rect(10, 10, 20, 20))
	partial := ctx.Scene.Push(rect(90, 90, 50, 50))
	m.SetTool(ToolSelect)
	ctx.Select(partial)

	m.PointerDown(ctx, left(0, 0))
	require.IsType(t, BoxSelecting{}, m.State())
	assert.Empty(t, ctx.Selected, "selection is cleared when the box starts")

	m.PointerMove(ctx, left(100, 100))
	assert.ElementsMatch(t, []Ref{inside, partial}, ctx.Preview)

	m.PointerUp(ctx, left(100, 100))
	assert.Equal(t, []Ref{inside}, ctx.Selected)
	assert.Empty(t, ctx.Preview)
	assert.Equal(t, ToolSelect, m.Tool(), "select tool stays active")
}

func TestPanning(t *testing.T) {
	t.Run("middle button", func(t *testing.T) {
		m := newTestMachine()
		ctx := NewContext("")
		ctx.Scene.Push(rect(0, 0, 100, 100))
		m.SetTool(ToolPen)

		m.PointerDown(ctx, PointerEvent{Pos: Point{50, 50}, Button: ButtonMiddle})
		require.IsType(t, Panning{}, m.State())
		m.PointerMove(ctx, left(60, 40))
		m.PointerUp(ctx, left(60, 40))

		assert.Equal(t, 10.0, ctx.Camera.X)
		assert.Equal(t, -10.0, ctx.Camera.Y)
		assert.Equal(t, 1, ctx.Scene.Count())
	})

	t.Run("empty space without tool", func(t *testing.T) {
		m := newTestMachine()
		ctx := NewContext("")
		ctx.Camera.SetZoom(2)

		gesture(m, ctx, Point{0, 0}, Point{20, 10})

		assert.Equal(t, 10.0, ctx.Camera.X)
		assert.Equal(t, 5.0, ctx.Camera.Y)
	})
}

func TestRightButtonIgnored(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	m.PointerDown(ctx, PointerEvent{Pos: Point{}, Button: ButtonRight})
	assert.IsType(t, Idle{}, m.State())
}

func TestPressDuringGestureIgnored(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	m.SetTool(ToolRectangle)
	m.PointerDown(ctx, left(0, 0))
	m.PointerDown(ctx, PointerEvent{Pos: Point{5, 5}, Button: ButtonMiddle})

	st, ok := m.State().(Drawing)
	require.True(t, ok)
	assert.Equal(t, Point{0, 0}, st.Start)
}

func TestHoverTracking(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	r := ctx.Scene.Push(rect(0, 0, 50, 50))

	res := m.PointerMove(ctx, left(10, 10))
	assert.True(t, res.Redraw)
	assert.Equal(t, r, ctx.Hovered)
	assert.Equal(t, CursorMove, res.Cursor)

	res = m.PointerMove(ctx, left(20, 20))
	assert.False(t, res.Redraw, "same hover target")

	res = m.PointerMove(ctx, left(200, 200))
	assert.True(t, res.Redraw)
	assert.True(t, ctx.Hovered.IsZero())
	assert.Equal(t, CursorGrab, res.Cursor)
}

func TestCancelDropsDraft(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("")
	m.SetTool(ToolPen)
	m.PointerDown(ctx, left(0, 0))
	m.PointerMove(ctx, left(10, 10))

	require.True(t, m.Cancel(ctx))
	assert.IsType(t, Idle{}, m.State())
	assert.Nil(t, ctx.CurrentPath)
	assert.Equal(t, 0, ctx.Scene.Count())
	assert.False(t, m.Cancel(ctx))
}

func TestReleaseAppliesFinalPosition(t *testing.T) {
	t.Run("drag without move", func(t *testing.T) {
		m := newTestMachine()
		ctx := NewContext("")
		r := ctx.Scene.Push(rect(100, 100, 50, 50))

		m.PointerDown(ctx, left(120, 120))
		res := m.PointerUp(ctx, left(150, 140))

		e, _ := ctx.Scene.Get(r)
		assert.Equal(t, Rect{X: 130, Y: 120, Width: 50, Height: 50}, e.Bounds())
		assert.True(t, res.Changed)
		assert.IsType(t, Idle{}, m.State())
	})

	t.Run("drag released past last move", func(t *testing.T) {
		m := newTestMachine()
		ctx := NewContext("")
		r := ctx.Scene.Push(rect(100, 100, 50, 50))

		m.PointerDown(ctx, left(120, 120))
		m.PointerMove(ctx, left(125, 120))
		m.PointerUp(ctx, left(130, 120))

		e, _ := ctx.Scene.Get(r)
		assert.Equal(t, Rect{X: 110, Y: 100, Width: 50, Height: 50}, e.Bounds())
	})

	t.Run("resize without move", func(t *testing.T) {
		m := newTestMachine()
		ctx := NewContext("")
		r := ctx.Scene.Push(rect(100, 100, 50, 50))
		ctx.Select(r)

		m.PointerDown(ctx, left(155, 155))
		require.IsType(t, Resizing{}, m.State())
		res := m.PointerUp(ctx, left(205, 205))

		e, _ := ctx.Scene.Get(r)
		assert.Equal(t, Rect{X: 100, Y: 100, Width: 100, Height: 100}, e.Bounds())
		assert.True(t, res.Changed)
	})

	t.Run("resize target removed", func(t *testing.T) {
		m := newTestMachine()
		ctx := NewContext("")
		r := ctx.Scene.Push(rect(100, 100, 50, 50))
		ctx.Select(r)

		m.PointerDown(ctx, left(155, 155))
		ctx.Remove(r)
		res := m.PointerUp(ctx, left(205, 205))

		assert.False(t, res.Changed)
		assert.IsType(t, Idle{}, m.State())
	})
}

func TestResultFlags(t *testing.T) {
	t.Run("hover is not an edit", func(t *testing.T) {
		m := newTestMachine()
		ctx := NewContext("")
		ctx.Scene.Push(rect(0, 0, 50, 50))

		res := m.PointerMove(ctx, left(10, 10))
		assert.True(t, res.Redraw)
		assert.False(t, res.Changed)
		assert.False(t, res.CameraChanged)
	})

	t.Run("box select is not an edit", func(t *testing.T) {
		m := newTestMachine()
		m.SetTool(ToolSelect)
		ctx := NewContext("")
		ctx.Scene.Push(rect(10, 10, 10, 10))

		res := gesture(m, ctx, Point{0, 0}, Point{50, 50})
		assert.Len(t, ctx.Selected, 1)
		assert.False(t, res.Changed)
	})

	t.Run("drawing commits an edit", func(t *testing.T) {
		m := newTestMachine()
		m.SetTool(ToolRectangle)
		ctx := NewContext("")

		res := gesture(m, ctx, Point{0, 0}, Point{40, 40})
		assert.True(t, res.Changed)
		assert.True(t, res.ToolChanged)
	})

	t.Run("drag moves are edits", func(t *testing.T) {
		m := newTestMachine()
		ctx := NewContext("")
		ctx.Scene.Push(rect(0, 0, 50, 50))

		m.PointerDown(ctx, left(10, 10))
		assert.True(t, m.PointerMove(ctx, left(20, 10)).Changed)
		assert.False(t, m.PointerMove(ctx, left(20, 10)).Changed)
	})

	t.Run("panning moves the camera only", func(t *testing.T) {
		m := newTestMachine()
		ctx := NewContext("")

		m.PointerDown(ctx, left(0, 0))
		res := m.PointerMove(ctx, left(10, 10))
		assert.True(t, res.CameraChanged)
		assert.False(t, res.Changed)
	})

	t.Run("text tool creates an entity", func(t *testing.T) {
		m := newTestMachine()
		m.SetTool(ToolText)
		ctx := NewContext("")

		res := m.PointerDown(ctx, left(10, 10))
		assert.True(t, res.Changed)
	})
}
