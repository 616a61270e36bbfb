package collab

import (
	"encoding/json"

	"github.com/inamate/nestboard/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	BoardID  string          `json:"boardId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

// PresencePayload is one client's cursor. Cursor is in world coordinates
// of the canvas named by ContextID ("" for the root canvas).
type PresencePayload struct {
	UserID      string     `json:"userId,omitempty"`
	Cursor      *CursorPos `json:"cursor,omitempty"`
	ContextID   string     `json:"contextId,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresenceStatePayload maps client ids to their last reported presence.
type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	BoardID  string `json:"boardId"`
	UserID   string `json:"userId"`
}

// TextEditPayload asks the client that triggered it to open its text
// editor over the given text box.
type TextEditPayload struct {
	ContextID string      `json:"contextId"`
	Ref       engine.Ref  `json:"ref"`
	Text      engine.Text `json:"text"`
}

type SavedPayload struct {
	Version int `json:"version"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Engine output
	TypeFrame    = "frame"
	TypeTextEdit = "text.edit"
	TypeSaved    = "doc.saved"
)

// inputTypes are the message types forwarded to the room engine.
var inputTypes = map[string]bool{
	engine.InputPointer:     true,
	engine.InputWheel:       true,
	engine.InputPinch:       true,
	engine.InputKey:         true,
	engine.InputDoubleClick: true,
	engine.InputTool:        true,
	engine.InputTextCommit:  true,
	engine.InputTextCancel:  true,
	engine.InputCanvasEnter: true,
	engine.InputCanvasExit:  true,
	engine.InputViewport:    true,
	engine.InputFront:       true,
	engine.InputBack:        true,
}

func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}
	return &Message{Type: typ, Payload: data}
}
