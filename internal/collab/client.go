package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	outboxSize = 256
)

// errClientClosed ends the writer once the hub has closed the outbox.
var errClientClosed = errors.New("client closed")

// Client is one websocket connection to a board room. Messages for the
// connection are encoded by Send and queued on the outbox until the writer
// picks them up.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool

	UserID      string
	DisplayName string
	BoardID     string
	ClientID    string
}

// NewClient creates a client of hub for one board. conn may be nil for
// clients that never call Serve.
func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, boardID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, outboxSize),
		UserID:      userID,
		DisplayName: displayName,
		BoardID:     boardID,
		ClientID:    clientID,
	}
}

// Serve pumps the connection until the peer goes away, ctx ends or the hub
// closes the client. The client is unregistered before Serve returns.
func (c *Client) Serve(ctx context.Context) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")
	c.conn.SetReadLimit(maxMsgSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer c.hub.Unregister(c)
		return c.readLoop(gctx)
	})
	g.Go(func() error {
		return c.writeLoop(gctx)
	})

	if err := g.Wait(); err != nil && !isClosure(err) {
		slog.Debug("connection ended", "error", err, "user", c.UserID, "client", c.ClientID)
	}
}

func isClosure(err error) bool {
	if errors.Is(err, errClientClosed) || errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return err
		}

		msg, ok := decodeMessage(data)
		if !ok {
			slog.Warn("invalid message", "user", c.UserID, "client", c.ClientID)
			c.sendError("invalid message")
			continue
		}

		// The connection, not the payload, says who sent it.
		msg.UserID = c.UserID
		msg.ClientID = c.ClientID
		msg.BoardID = c.BoardID
		c.hub.handleMessage(c, msg)
	}
}

func decodeMessage(data []byte) (*Message, bool) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		return nil, false
	}
	return &msg, true
}

func (c *Client) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return errClientClosed
			}
			if err := c.withDeadline(ctx, func(ctx context.Context) error {
				return c.conn.Write(ctx, websocket.MessageText, data)
			}); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.withDeadline(ctx, c.conn.Ping); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) withDeadline(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return fn(ctx)
}

// Send queues msg for the connection. Messages to a closed client, or to
// one whose outbox is full, are dropped.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err, "type", msg.Type)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("outbox full, dropping message", "client", c.ClientID, "type", msg.Type)
	}
}

// close shuts the outbox, which stops the writer. Later sends are dropped.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) sendError(text string) {
	c.Send(newMessage(TypeError, ErrorPayload{Message: text}))
}
