package ws

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"wordguess/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Conn is the part of *websocket.Conn a client uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Identity is the optional verified owner of a connection.
type Identity struct {
	StudentID string
	ClassID   string
}

// route is set by a successful join and cleared on leave. Only the read
// goroutine touches it.
type route struct {
	room     *Room
	playerID string
}

type Client struct {
	ID       string
	Conn     Conn
	Send     chan []byte
	Hub      *Hub
	Identity *Identity

	route *route
	alive atomic.Bool

	closing   chan struct{}
	closeOnce sync.Once
	Done      chan struct{}

	log *slog.Logger
}

func NewClient(conn Conn, hub *Hub, identity *Identity) *Client {
	id := uuid.NewString()
	c := &Client{
		ID:       id,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		Hub:      hub,
		Identity: identity,
		closing:  make(chan struct{}),
		Done:     make(chan struct{}),
		log:      logger.With("conn", id),
	}
	c.alive.Store(true)
	return c
}

// Run serves the connection until it closes.
func (c *Client) Run() {
	c.Hub.register(c)
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.leave()
		c.Hub.unregister(c)
		c.finish()
		close(c.Done)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetPongHandler(func(string) error {
		c.alive.Store(true)
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read error", "error", err)
			}
			return
		}
		c.handleFrame(raw)
	}
}

func (c *Client) handleFrame(raw []byte) {
	msg, err := DecodeClientMessage(raw)
	if err != nil {
		MessagesTotal.WithLabelValues("invalid").Inc()
		c.sendError(err)
		return
	}
	MessagesTotal.WithLabelValues(string(msg.Type())).Inc()

	switch m := msg.(type) {
	case *JoinGame:
		c.join(m)
	case *LeaveGame:
		c.leave()
	default:
		if c.route == nil {
			c.sendError(ErrNotInGame)
			return
		}
		c.route.room.action(c, c.route.playerID, msg)
	}
}

func (c *Client) join(m *JoinGame) {
	if c.route != nil {
		c.leave()
	}
	room, playerID, seat, err := c.Hub.Join(c, m)
	if err != nil {
		DomainErrorsTotal.WithLabelValues(string(TypeJoinGame)).Inc()
		c.sendError(err)
		return
	}
	c.route = &route{room: room, playerID: playerID}
	c.log.Debug("joined", "room", room.Code, "player", playerID, "seat", seat)
}

// leave clears routing state before telling the room, so a second close
// signal finds nothing to do.
func (c *Client) leave() {
	r := c.route
	if r == nil {
		return
	}
	c.route = nil
	r.room.disconnect(c)
}

func (c *Client) writePump() {
	defer c.Conn.Close()

	for {
		select {
		case msg := <-c.Send:
			if err := c.write(msg); err != nil {
				c.log.Debug("write error", "error", err)
				return
			}
		case <-c.closing:
			// flush what the room queued before asking us to close
			for {
				select {
				case msg := <-c.Send:
					if err := c.write(msg); err != nil {
						return
					}
				default:
					_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
					_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (c *Client) write(msg []byte) error {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.TextMessage, msg)
}

// send queues msg without blocking. A full or closing client drops it.
func (c *Client) send(msg ServerMessage) bool {
	select {
	case <-c.closing:
		return false
	default:
	}

	data, err := encode(msg)
	if err != nil {
		c.log.Error("encode failed", "type", msg.messageType(), "error", err)
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		c.log.Warn("send buffer full, dropping message", "type", msg.messageType())
		return false
	}
}

func (c *Client) sendError(err error) {
	c.send(errorMessage(err))
}

// finish flushes queued messages and closes the socket.
func (c *Client) finish() {
	c.closeOnce.Do(func() { close(c.closing) })
}

// terminate drops the socket immediately; the read loop then runs the
// normal disconnect path.
func (c *Client) terminate() {
	_ = c.Conn.Close()
}

// ping sends a heartbeat ping and reports whether the previous one was
// answered.
func (c *Client) ping() bool {
	if !c.alive.Swap(false) {
		return false
	}
	if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			c.log.Debug("ping failed", "error", err)
		}
	}
	return true
}
