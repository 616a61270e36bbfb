package collab

import (
	"context"
	"log/slog"
	"time"

	"github.com/inamate/nestboard/internal/engine"
)

const saveTimeout = 10 * time.Second

type eventKind int

const (
	eventInput eventKind = iota
	eventJoin
	eventLeave
)

type roomEvent struct {
	kind   eventKind
	sender *Client
	input  engine.Input
}

// Room is one open board. The document lives in a base engine that never
// receives input; every client edits it through its own view, so gestures,
// hover, selection, tool and camera stay per client. Engines are only
// touched by the room's goroutine, which applies events in arrival order.
type Room struct {
	hub      *Hub
	boardID  string
	clients  map[string]*Client // clientID -> client, guarded by hub.mu
	presence *PresenceManager

	engine *engine.Engine
	views  map[string]*engine.Engine // clientID -> view
	dirty  bool
	seq    int64

	events chan roomEvent
	quit   chan struct{}
	done   chan struct{}
}

func newRoom(hub *Hub, boardID string, base *engine.Engine) *Room {
	return &Room{
		hub:      hub,
		boardID:  boardID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		engine:   base,
		views:    make(map[string]*engine.Engine),
		events:   make(chan roomEvent, 256),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// clientEditor opens the text editor of the client owning a view.
type clientEditor struct {
	client *Client
}

func (ed clientEditor) BeginEdit(contextID string, ref engine.Ref, t engine.Text) {
	ed.client.Send(newMessage(TypeTextEdit, TextEditPayload{ContextID: contextID, Ref: ref, Text: t}))
}

func (r *Room) enqueue(ev roomEvent) {
	select {
	case r.events <- ev:
	case <-r.quit:
	}
}

func (r *Room) run(autosave time.Duration) {
	defer close(r.done)

	ticker := time.NewTicker(autosave)
	defer ticker.Stop()

	for {
		select {
		case ev := <-r.events:
			r.handle(ev)
		case <-ticker.C:
			r.save()
		case <-r.quit:
			r.save()
			return
		}
	}
}

// stop saves the board if it changed and waits for the room goroutine.
func (r *Room) stop() {
	close(r.quit)
	<-r.done
}

// view returns the engine view of c, creating it on first use.
func (r *Room) view(c *Client) *engine.Engine {
	v, ok := r.views[c.ClientID]
	if !ok {
		v = r.engine.NewView(
			engine.WithTextEditor(clientEditor{client: c}),
			engine.WithLogger(r.hub.log.With("board", r.boardID, "client", c.ClientID)),
		)
		r.views[c.ClientID] = v
	}
	return v
}

func (r *Room) handle(ev roomEvent) {
	if ev.sender == nil {
		return
	}

	switch ev.kind {
	case eventJoin:
		ev.sender.Send(r.frameMessage(r.view(ev.sender)))
		return
	case eventLeave:
		if v, ok := r.views[ev.sender.ClientID]; ok {
			v.Close()
			delete(r.views, ev.sender.ClientID)
		}
		return
	}

	v := r.view(ev.sender)
	res, err := v.Apply(ev.input)
	if err != nil {
		slog.Warn("apply input", "error", err, "board", r.boardID, "type", ev.input.Type)
		ev.sender.sendError(err.Error())
		return
	}

	// Cameras belong to views, so only entity edits make the board dirty.
	r.dirty = r.dirty || res.Changed

	switch {
	case res.Changed:
		for _, c := range r.hub.roomClients(r.boardID, "") {
			c.Send(r.frameMessage(r.view(c)))
		}
	case res.Redraw || res.ToolChanged || res.CameraChanged:
		ev.sender.Send(r.frameMessage(v))
	}
}

func (r *Room) frameMessage(v *engine.Engine) *Message {
	r.seq++
	msg := newMessage(TypeFrame, v.Frame())
	msg.BoardID = r.boardID
	msg.Seq = r.seq
	return msg
}

func (r *Room) save() {
	if !r.dirty || r.hub.saver == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	doc := r.engine.Board()
	if err := r.hub.saver(ctx, r.boardID, doc); err != nil {
		slog.Error("save board", "error", err, "board", r.boardID)
		return
	}
	r.dirty = false
	r.hub.broadcastToRoom(r.boardID, newMessage(TypeSaved, SavedPayload{Version: doc.Version}), "")
	slog.Info("board saved", "board", r.boardID, "version", doc.Version)
}
