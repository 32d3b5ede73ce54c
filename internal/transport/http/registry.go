package http

import (
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/domain"
)

// Connection is the registry's canonical record of one live websocket.
// All writes to the socket go through the send channel so the single
// writer pump is the only goroutine touching the gorilla connection.
type Connection struct {
	ID   string
	sock *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	closed   bool
	identity *domain.Identity
}

// Identity returns the identity attached at authentication, if any.
func (c *Connection) Identity() (domain.Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return domain.Identity{}, false
	}
	return *c.identity, true
}

// Authenticated reports whether the handshake has completed.
func (c *Connection) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity != nil
}

func (c *Connection) setIdentity(identity domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = &identity
}

// enqueue hands a serialized frame to the writer pump. Fire-and-forget:
// frames for a full (slow) client are dropped rather than blocking the
// sender.
func (c *Connection) enqueue(frame []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// Close stops accepting frames. The writer pump drains what is already
// queued, then closes the socket.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Connection) writePump() {
	for frame := range c.send {
		if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Printf("ws write error on %s: %v", c.ID, err)
			break
		}
	}
	_ = c.sock.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.sock.Close()
}

// Registry owns every live connection and the userID -> connection binding
// set at authentication. Sessions never hold socket handles; they go through
// the registry, so a disconnect can never leave a dangling reference.
type Registry struct {
	mu     sync.RWMutex
	nextID int64
	conns  map[string]*Connection
	users  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Connection),
		users: make(map[string]string),
	}
}

// Add registers a freshly upgraded socket and starts its writer pump.
func (r *Registry) Add(sock *websocket.Conn) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	conn := &Connection{
		ID:   fmt.Sprintf("conn-%d", r.nextID),
		sock: sock,
		send: make(chan []byte, 32),
	}
	r.conns[conn.ID] = conn
	go conn.writePump()
	return conn
}

// Remove forgets a connection and any user binding pointing at it. The
// session-side participant records are untouched; they outlive the socket.
func (r *Registry) Remove(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, conn.ID)
	for userID, connID := range r.users {
		if connID == conn.ID {
			delete(r.users, userID)
		}
	}
}

// Bind points a user at a connection. A later login from another tab simply
// rebinds; broadcasts follow the most recent connection.
func (r *Registry) Bind(userID string, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = conn.ID
}

// Resolve maps a user to their live connection. Missing users are a normal
// condition (disconnected member), not an error.
func (r *Registry) Resolve(userID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.users[userID]
	if !ok {
		return nil, false
	}
	conn, ok := r.conns[connID]
	return conn, ok
}

// Lookup fetches a connection by its ID.
func (r *Registry) Lookup(connID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connID]
	return conn, ok
}
