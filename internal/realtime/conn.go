package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mfigueroa/shopsync-backend/pkg/config"
)

// Conn is one live websocket with its outbound queue. Writes go through the
// send channel only; deliver never blocks the hub.
type Conn struct {
	id     string
	hub    *Hub
	sock   *websocket.Conn
	send   chan Envelope
	done   chan struct{}
	once   sync.Once
	cfg config.RealtimeConfig

	// guarded by hub.mu
	userID uuid.UUID
	authed bool
	closed bool
}

// NewConn registers a freshly upgraded socket with the hub.
func NewConn(hub *Hub, sock *websocket.Conn, cfg config.RealtimeConfig) *Conn {
	c := &Conn{
		id:   uuid.NewString(),
		hub:  hub,
		sock: sock,
		send: make(chan Envelope, cfg.SendBufferSize),
		done: make(chan struct{}),
		cfg:  cfg,
	}
	hub.attach(c)
	return c
}

// ID returns the server-assigned connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// deliver queues one outbound message, reporting false when the connection
// is gone or its buffer is full. Slow consumers lose messages instead of
// stalling their siblings.
func (c *Conn) deliver(env Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

func (c *Conn) authenticated() bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.authed
}

func (c *Conn) shutdown() {
	c.once.Do(func() {
		c.hub.detach(c)
		close(c.done)
		_ = c.sock.Close()
	})
}

// Run pumps the socket until either side closes. It blocks the HTTP handler
// goroutine for the connection's lifetime.
func (c *Conn) Run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

func (c *Conn) readPump(ctx context.Context) {
	defer c.shutdown()

	if c.cfg.MaxMessageBytes > 0 {
		c.sock.SetReadLimit(c.cfg.MaxMessageBytes)
	}
	pongWait := c.cfg.PingInterval + c.cfg.WriteTimeout
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			return
		}
		_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
		c.hub.HandleMessage(ctx, c, raw)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case env := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.sock.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			// liveness pings start with the handshake
			if !c.authenticated() {
				continue
			}
			_ = c.sock.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.sock.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
