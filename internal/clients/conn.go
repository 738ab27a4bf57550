package clients

import (
	"context"
	"sync"
	"time"

	"chatpush/internal/constants"
	"chatpush/internal/push"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Role tells the hub what a connection can do
type Role string

const (
	// RoleWindow is an application window
	RoleWindow Role = "window"
	// RoleShell is the native wrapper that can open new windows
	RoleShell Role = "shell"
)

// sender delivers one JSON message to the remote end
type sender interface {
	send(ctx context.Context, v interface{}) error
	close(reason string) error
}

type wsSender struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (s *wsSender) send(ctx context.Context, v interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, s.conn, v)
}

func (s *wsSender) close(reason string) error {
	return s.conn.Close(websocket.StatusGoingAway, reason)
}

// Conn is one connected window or shell
type Conn struct {
	id         string
	role       Role
	controlled bool
	hub        *Hub
	out        sender

	// serialises writes so messages arrive in the order they were sent
	writeMu sync.Mutex

	mu  sync.RWMutex
	url string
}

var _ push.WindowClient = (*Conn)(nil)

func (c *Conn) ID() string {
	return c.id
}

// Role returns the connection role
func (c *Conn) Role() Role {
	return c.role
}

// URL returns the URL the window last reported
func (c *Conn) URL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.url
}

func (c *Conn) setURL(u string) {
	c.mu.Lock()
	c.url = u
	c.mu.Unlock()
}

// Focus asks the window to bring itself to the front
func (c *Conn) Focus(ctx context.Context) error {
	return c.write(ctx, Outbound{Type: TypeFocus})
}

// PostMessage delivers msg to the window as JSON
func (c *Conn) PostMessage(ctx context.Context, msg interface{}) error {
	return c.write(ctx, msg)
}

func (c *Conn) write(ctx context.Context, v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.out.send(ctx, v); err != nil {
		return err
	}
	c.hub.metrics.HubMessage("out", messageType(v))
	return nil
}

func defaultWriteTimeout() time.Duration {
	return time.Duration(constants.DefaultWebsocketWriteTimeoutSec) * time.Second
}
