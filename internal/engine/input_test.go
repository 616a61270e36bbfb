package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInput(t *testing.T, typ string, payload any) Input {
	t.Helper()
	in, err := NewInput(typ, payload)
	require.NoError(t, err)
	return in
}

func TestApplyDrawsRectangle(t *testing.T) {
	e := newTestEngine()
	steps := []Input{
		mustInput(t, InputTool, ToolInput{Tool: "rectangle"}),
		mustInput(t, InputPointer, PointerInput{Phase: "down", X: 10, Y: 10}),
		mustInput(t, InputPointer, PointerInput{Phase: "move", X: 60, Y: 50}),
		mustInput(t, InputPointer, PointerInput{Phase: "up", X: 60, Y: 50}),
	}
	var last Result
	for _, in := range steps {
		res, err := e.Apply(in)
		require.NoError(t, err, in.Type)
		last = res
	}

	assert.Equal(t, KindShape, last.Committed.Kind)
	require.Equal(t, 1, e.Root().Scene.Len(KindShape))
	ent, _ := e.Root().Scene.Get(last.Committed)
	assert.Equal(t, Rect{X: 10, Y: 10, Width: 50, Height: 40}, ent.Bounds())
	assert.Equal(t, ToolNone, e.Tool())
}

func TestApplyNestedRoundTrip(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Load(boardWithCanvas("N1")))

	_, err := e.Apply(mustInput(t, InputCanvasEnter, CanvasInput{ID: "N1"}))
	require.NoError(t, err)
	assert.True(t, e.InNested())

	_, err = e.Apply(mustInput(t, InputKey, KeyInput{Key: "a", Modifiers: Modifiers{Ctrl: true}}))
	require.NoError(t, err)
	assert.Len(t, e.Active().Selected, 1)

	res, err := e.Apply(Input{Type: InputCanvasExit})
	require.NoError(t, err)
	assert.True(t, res.Redraw)
	assert.False(t, e.InNested())

	_, err = e.Apply(mustInput(t, InputCanvasEnter, CanvasInput{ID: "missing"}))
	assert.Error(t, err)
}

func TestApplyToolAndViewport(t *testing.T) {
	e := newTestEngine()
	off := false

	_, err := e.Apply(mustInput(t, InputTool, ToolInput{Tool: "pen", DragMode: &off}))
	require.NoError(t, err)
	assert.Equal(t, ToolPen, e.Tool())
	assert.False(t, e.DragMode())

	_, err = e.Apply(mustInput(t, InputViewport, Size{Width: 800, Height: 600}))
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 800, Height: 600}, e.Viewport())

	res, err := e.Apply(mustInput(t, InputWheel, WheelInput{X: 400, Y: 300, DeltaY: -100}))
	require.NoError(t, err)
	assert.True(t, res.Redraw)
	assert.Greater(t, e.Active().Camera.Zoom, 1.0)
}

func TestApplyRejects(t *testing.T) {
	e := newTestEngine()
	tests := []struct {
		name string
		in   Input
	}{
		{"unknown type", Input{Type: "teleport"}},
		{"missing payload", Input{Type: InputPointer}},
		{"bad payload", Input{Type: InputWheel, Payload: []byte(`{"x":"left"}`)}},
		{"bad phase", mustInput(t, InputPointer, PointerInput{Phase: "hover"})},
		{"unknown tool", mustInput(t, InputTool, ToolInput{Tool: "laser"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Apply(tt.in)
			assert.Error(t, err)
		})
	}
}
