package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/nestboard/internal/document"
	"github.com/inamate/nestboard/internal/engine"
)

// DocLoader returns the stored document of a board.
type DocLoader func(ctx context.Context, boardID string) (*document.Board, error)

// DocSaver stores doc as the next version of a board and updates
// doc.Version.
type DocSaver func(ctx context.Context, boardID string, doc *document.Board) error

// Hub tracks the open board rooms and the clients connected to each. Its
// Run goroutine serializes registration; input is handed to the room of
// the sender.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // boardID -> room
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	loader   DocLoader
	saver    DocSaver
	autosave time.Duration
	viewport engine.Size
	log      *slog.Logger
}

// NewHub creates a hub that opens boards through loader and saves changed
// boards through saver every autosave interval and when a room closes.
func NewHub(loader DocLoader, saver DocSaver, autosave time.Duration, viewport engine.Size) *Hub {
	if autosave <= 0 {
		autosave = 30 * time.Second
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		loader:     loader,
		saver:      saver,
		autosave:   autosave,
		viewport:   viewport,
		log:        slog.Default(),
	}
}

// Run processes registrations until Stop is called, then stops every room,
// saving changed boards.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.quit:
			h.mu.Lock()
			rooms := make([]*Room, 0, len(h.rooms))
			for id, room := range h.rooms {
				rooms = append(rooms, room)
				delete(h.rooms, id)
			}
			h.mu.Unlock()
			for _, room := range rooms {
				room.stop()
			}
			return
		}
	}
}

// Stop saves every open board and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
}

// Register adds client to the room of its board, opening the room when it
// is the first client. A client registered after Stop is closed.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.close()
	}
}

// Unregister removes client from its room. The room is saved and closed
// when its last client leaves.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// IsOpen reports whether boardID has a live room.
func (h *Hub) IsOpen(boardID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[boardID]
	return ok
}

// RoomCount returns the number of open boards.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) openRoom(boardID string) (*Room, error) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	doc, err := h.loader(ctx, boardID)
	if err != nil {
		return nil, err
	}

	base := engine.New(
		engine.WithViewport(h.viewport),
		engine.WithLogger(h.log.With("board", boardID)),
	)
	if err := base.Load(doc); err != nil {
		return nil, err
	}
	room := newRoom(h, boardID, base)
	go room.run(h.autosave)
	return room, nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.RLock()
	room, ok := h.rooms[client.BoardID]
	h.mu.RUnlock()

	if !ok {
		var err error
		room, err = h.openRoom(client.BoardID)
		if err != nil {
			slog.Error("open board", "error", err, "board", client.BoardID)
			client.sendError("could not open board")
			client.close()
			return
		}
		h.mu.Lock()
		h.rooms[client.BoardID] = room
		h.mu.Unlock()
	}

	h.mu.Lock()
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		BoardID:  client.BoardID,
		UserID:   client.UserID,
	}))

	// Send current presence state to new client
	stateMsg := room.presence.StateMessage(client.ClientID)
	if stateMsg != nil {
		client.Send(stateMsg)
	}
	room.enqueue(roomEvent{kind: eventJoin, sender: client})

	// Broadcast join to other clients
	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		ClientID:    client.ClientID,
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}
	h.broadcastToRoom(client.BoardID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.ClientID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.BoardID)
	}
	h.mu.Unlock()

	if empty {
		room.stop()
		slog.Info("board closed", "board", client.BoardID)
		return
	}
	room.enqueue(roomEvent{kind: eventLeave, sender: client})

	// Broadcast leave to remaining clients
	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
	})
	leaveMsg := &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}
	h.broadcastToRoom(client.BoardID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[sender.BoardID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	switch {
	case msg.Type == TypePresenceUpdate:
		h.handlePresenceUpdate(sender, room, msg)
	case inputTypes[msg.Type]:
		room.enqueue(roomEvent{kind: eventInput, sender: sender, input: engine.Input{Type: msg.Type, Payload: msg.Payload}})
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.sendError("unknown message type " + msg.Type)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, room *Room, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.UserID = sender.UserID
	presence.DisplayName = sender.DisplayName
	room.presence.Update(sender.ClientID, &presence)

	// Broadcast to other clients in room
	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:     TypePresenceUpdate,
		UserID:   sender.UserID,
		ClientID: sender.ClientID,
		Payload:  outPayload,
	}
	h.broadcastToRoom(sender.BoardID, outMsg, sender.ClientID)
}

// roomClients returns the clients of boardID except excludeClientID.
func (h *Hub) roomClients(boardID, excludeClientID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[boardID]
	if !ok {
		return nil
	}
	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	return clients
}

func (h *Hub) broadcastToRoom(boardID string, msg *Message, excludeClientID string) {
	for _, c := range h.roomClients(boardID, excludeClientID) {
		c.Send(msg)
	}
}
