//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/nestboard/internal/document"
	"github.com/inamate/nestboard/internal/engine"
)

var (
	eng       *engine.Engine
	onEdit    js.Value
	editorSet bool
)

// jsEditor forwards text edit requests to the callback registered with
// setTextEditor.
type jsEditor struct{}

func (jsEditor) BeginEdit(contextID string, ref engine.Ref, t engine.Text) {
	if !editorSet {
		return
	}
	data, err := json.Marshal(map[string]any{"contextId": contextID, "ref": ref, "text": t})
	if err != nil {
		return
	}
	onEdit.Invoke(string(data))
}

func main() {
	eng = engine.New(engine.WithTextEditor(jsEditor{}))

	// Create the engine API object
	nestboardEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	nestboardEngine.Set("loadBoard", js.FuncOf(loadBoard))
	nestboardEngine.Set("loadSampleBoard", js.FuncOf(loadSampleBoard))
	nestboardEngine.Set("apply", js.FuncOf(apply))
	nestboardEngine.Set("setTextEditor", js.FuncOf(setTextEditor))

	// --- Queries (frontend ← engine) ---
	nestboardEngine.Set("frame", js.FuncOf(frame))
	nestboardEngine.Set("board", js.FuncOf(board))
	nestboardEngine.Set("hitTest", js.FuncOf(hitTest))
	nestboardEngine.Set("selectionBounds", js.FuncOf(selectionBounds))
	nestboardEngine.Set("state", js.FuncOf(state))

	// Register on global scope
	js.Global().Set("nestboardEngine", nestboardEngine)

	// Signal that WASM is ready
	js.Global().Set("nestboardWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorValue(err error) any {
	return js.ValueOf(map[string]any{"error": err.Error()})
}

func okValue() any {
	return js.ValueOf(map[string]any{"ok": true})
}

// --- Command Handlers ---

func loadBoard(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing board JSON"})
	}
	if err := eng.LoadJSON([]byte(args[0].String())); err != nil {
		return errorValue(err)
	}
	return okValue()
}

func loadSampleBoard(this js.Value, args []js.Value) any {
	boardID := "board_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		boardID = args[0].String()
	}
	if err := eng.Load(document.NewSampleBoard(boardID)); err != nil {
		return errorValue(err)
	}
	return okValue()
}

// apply takes one input as JSON, {"type": ..., "payload": ...}, and returns
// the result flags.
func apply(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing input JSON"})
	}
	var in engine.Input
	if err := json.Unmarshal([]byte(args[0].String()), &in); err != nil {
		return errorValue(err)
	}
	res, err := eng.Apply(in)
	if err != nil {
		return errorValue(err)
	}
	return js.ValueOf(map[string]any{
		"redraw":      res.Redraw,
		"toolChanged": res.ToolChanged,
		"changed":     res.Changed || res.CameraChanged,
		"cursor":      string(res.Cursor),
	})
}

func setTextEditor(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		editorSet = false
		return nil
	}
	onEdit = args[0]
	editorSet = true
	return nil
}

// --- Query Handlers ---

func frame(this js.Value, args []js.Value) any {
	s, err := eng.FrameJSON()
	if err != nil {
		return errorValue(err)
	}
	return js.ValueOf(s)
}

func board(this js.Value, args []js.Value) any {
	s, err := eng.BoardJSON()
	if err != nil {
		return errorValue(err)
	}
	return js.ValueOf(s)
}

func hitTest(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	ref, ok := eng.HitTest(engine.Point{X: args[0].Float(), Y: args[1].Float()})
	if !ok {
		return js.ValueOf("")
	}
	data, _ := json.Marshal(ref)
	return js.ValueOf(string(data))
}

func selectionBounds(this js.Value, args []js.Value) any {
	data, _ := json.Marshal(eng.SelectionBounds())
	return js.ValueOf(string(data))
}

func state(this js.Value, args []js.Value) any {
	data, _ := json.Marshal(map[string]any{
		"state":    engine.StateName(eng.State()),
		"tool":     eng.Tool(),
		"dragMode": eng.DragMode(),
		"cursor":   eng.Cursor(),
		"context":  eng.Active().ID,
		"nested":   eng.InNested(),
	})
	return js.ValueOf(string(data))
}
