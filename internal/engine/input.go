package engine

import (
	"encoding/json"
	"fmt"
)

// Input types accepted by Engine.Apply.
const (
	InputPointer     = "input.pointer"
	InputWheel       = "input.wheel"
	InputPinch       = "input.pinch"
	InputKey         = "input.key"
	InputDoubleClick = "input.dblclick"
	InputTool        = "tool.set"
	InputTextCommit  = "text.commit"
	InputTextCancel  = "text.cancel"
	InputCanvasEnter = "canvas.enter"
	InputCanvasExit  = "canvas.exit"
	InputViewport    = "viewport.set"
	InputFront       = "order.front"
	InputBack        = "order.back"
)

// Input is one serialized input event: a live session message or a line
// of a recorded session.
type Input struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PointerInput is the payload of InputPointer. Phase is "down", "move"
// or "up".
type PointerInput struct {
	Phase  string  `json:"phase"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button Button  `json:"button"`
}

type WheelInput struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
}

type PinchInput struct {
	PrevA Point `json:"prevA"`
	PrevB Point `json:"prevB"`
	CurA  Point `json:"curA"`
	CurB  Point `json:"curB"`
}

type KeyInput struct {
	Key string `json:"key"`
	Modifiers
}

type PointInput struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToolInput selects a tool; DragMode is left alone when nil.
type ToolInput struct {
	Tool     string `json:"tool"`
	DragMode *bool  `json:"dragMode,omitempty"`
}

type TextInput struct {
	Text string `json:"text"`
}

type CanvasInput struct {
	ID string `json:"id"`
}

// NewInput builds an Input from a payload value.
func NewInput(typ string, payload any) (Input, error) {
	if payload == nil {
		return Input{Type: typ}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Input{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Input{Type: typ, Payload: data}, nil
}

// Apply decodes in and routes it to the matching engine operation. Refs
// left stale by edits from other views are dropped first.
func (e *Engine) Apply(in Input) (Result, error) {
	e.active.Prune()
	switch in.Type {
	case InputPointer:
		var p PointerInput
		if err := decodePayload(in, &p); err != nil {
			return Result{}, err
		}
		ev := PointerEvent{Pos: Point{p.X, p.Y}, Button: p.Button}
		switch p.Phase {
		case "down":
			return e.PointerDown(ev), nil
		case "move":
			return e.PointerMove(ev), nil
		case "up":
			return e.PointerUp(ev), nil
		}
		return Result{}, fmt.Errorf("unknown pointer phase %q", p.Phase)

	case InputWheel:
		var p WheelInput
		if err := decodePayload(in, &p); err != nil {
			return Result{}, err
		}
		return e.Wheel(Point{p.X, p.Y}, p.DeltaY), nil

	case InputPinch:
		var p PinchInput
		if err := decodePayload(in, &p); err != nil {
			return Result{}, err
		}
		return e.Pinch(p.PrevA, p.PrevB, p.CurA, p.CurB), nil

	case InputKey:
		var p KeyInput
		if err := decodePayload(in, &p); err != nil {
			return Result{}, err
		}
		return e.KeyDown(p.Key, p.Modifiers), nil

	case InputDoubleClick:
		var p PointInput
		if err := decodePayload(in, &p); err != nil {
			return Result{}, err
		}
		return e.DoubleClick(Point{p.X, p.Y}), nil

	case InputTool:
		var p ToolInput
		if err := decodePayload(in, &p); err != nil {
			return Result{}, err
		}
		t, err := ParseTool(p.Tool)
		if err != nil {
			return Result{}, err
		}
		e.SetTool(t)
		if p.DragMode != nil {
			e.SetDragMode(*p.DragMode)
		}
		return Result{Redraw: true, Cursor: e.cursor}, nil

	case InputTextCommit:
		var p TextInput
		if err := decodePayload(in, &p); err != nil {
			return Result{}, err
		}
		return e.CommitText(p.Text), nil

	case InputTextCancel:
		return e.CancelText(), nil

	case InputCanvasEnter:
		var p CanvasInput
		if err := decodePayload(in, &p); err != nil {
			return Result{}, err
		}
		if !e.EnterCanvas(p.ID) {
			return Result{Cursor: e.cursor}, fmt.Errorf("cannot enter canvas %q", p.ID)
		}
		return Result{Redraw: true, Cursor: e.cursor}, nil

	case InputCanvasExit:
		return Result{Redraw: e.ExitCanvas(), Cursor: e.cursor}, nil

	case InputViewport:
		var p Size
		if err := decodePayload(in, &p); err != nil {
			return Result{}, err
		}
		e.SetViewport(p)
		return Result{Cursor: e.cursor}, nil

	case InputFront:
		return e.BringToFront(), nil

	case InputBack:
		return e.SendToBack(), nil
	}
	return Result{}, fmt.Errorf("unknown input type %q", in.Type)
}

func decodePayload(in Input, v any) error {
	if len(in.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", in.Type)
	}
	if err := json.Unmarshal(in.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", in.Type, err)
	}
	return nil
}
