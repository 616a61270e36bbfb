package engine

import "fmt"

// Tool is the active tool identifier set by the toolbar.
type Tool string

const (
	ToolNone         Tool = ""
	ToolPen          Tool = "pen"
	ToolRectangle    Tool = "rectangle"
	ToolCircle       Tool = "circle"
	ToolText         Tool = "text"
	ToolNestedCanvas Tool = "nested-canvas"
	ToolSelect       Tool = "select"
)

// ParseTool accepts the toolbar identifiers; "none", "pan" and "null" all
// mean no tool.
func ParseTool(s string) (Tool, error) {
	switch t := Tool(s); t {
	case ToolPen, ToolRectangle, ToolCircle, ToolText, ToolNestedCanvas, ToolSelect, ToolNone:
		return t, nil
	}
	switch s {
	case "none", "pan", "null":
		return ToolNone, nil
	}
	return ToolNone, fmt.Errorf("unknown tool %q", s)
}

// draws reports whether the tool creates an entity by dragging.
func (t Tool) draws() bool {
	switch t {
	case ToolPen, ToolRectangle, ToolCircle, ToolNestedCanvas:
		return true
	}
	return false
}

// Button identifies the pointer button of a press.
type Button uint8

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Cursor is the cursor hint the UI should show.
type Cursor string

const (
	CursorDefault    Cursor = "default"
	CursorGrab       Cursor = "grab"
	CursorGrabbing   Cursor = "grabbing"
	CursorMove       Cursor = "move"
	CursorCrosshair  Cursor = "crosshair"
	CursorText       Cursor = "text"
	CursorResizeNWSE Cursor = "nwse-resize"
	CursorResizeNESW Cursor = "nesw-resize"
	CursorResizeNS   Cursor = "ns-resize"
	CursorResizeEW   Cursor = "ew-resize"
)

// State is the interaction state. Exactly one value is current, which makes
// panning, drawing, box-selecting, dragging and resizing mutually exclusive.
type State interface {
	stateName() string
}

// Idle is the resting state; hover is tracked here.
type Idle struct{}

// Panning moves the camera. Last is the previous pointer position in
// screen space.
type Panning struct {
	Last Point
}

// Drawing builds a new entity with Tool. Start and Current are world points.
type Drawing struct {
	Tool    Tool
	Start   Point
	Current Point
}

// BoxSelecting tracks a marquee from Start to Current in world space.
type BoxSelecting struct {
	Start   Point
	Current Point
}

// Dragging translates the selection. Last is the previous pointer position
// in world space; deltas are taken from it, not from the gesture origin.
type Dragging struct {
	Last Point
}

// Resizing drags Handle of the single selected entity Target. Offset is
// added to the pointer so the grabbed edge does not jump.
type Resizing struct {
	Target Ref
	Handle HandleKind
	Offset Point
}

func (Idle) stateName() string         { return "idle" }
func (Panning) stateName() string      { return "panning" }
func (Drawing) stateName() string      { return "drawing" }
func (BoxSelecting) stateName() string { return "box-selecting" }
func (Dragging) stateName() string     { return "dragging" }
func (Resizing) stateName() string     { return "resizing" }

// StateName returns a short name of s for logs and frames.
func StateName(s State) string {
	if s == nil {
		return Idle{}.stateName()
	}
	return s.stateName()
}
