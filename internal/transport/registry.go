// Package transport binds protocol-server instances to physical
// channels: stdio, stateless HTTP, and SSE streaming sessions.
package transport

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// sseSession is one live streaming connection: an opaque identifier,
// the event queue feeding the open HTTP response, and the MCP server
// instance attached to this connection. It implements
// mcpserver.ClientSession so the protocol layer can route
// notifications to it.
type sseSession struct {
	id     string
	srv    *mcpserver.MCPServer
	events chan string // wire-ready SSE data payloads
	notifs chan mcp.JSONRPCNotification
	done   chan struct{}

	initialized atomic.Bool
	closeOnce   sync.Once
}

func newSSESession(id string, srv *mcpserver.MCPServer) *sseSession {
	return &sseSession{
		id:     id,
		srv:    srv,
		events: make(chan string, 16),
		notifs: make(chan mcp.JSONRPCNotification, 16),
		done:   make(chan struct{}),
	}
}

// SessionID implements mcpserver.ClientSession.
func (s *sseSession) SessionID() string { return s.id }

// NotificationChannel implements mcpserver.ClientSession.
func (s *sseSession) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.notifs }

// Initialize implements mcpserver.ClientSession.
func (s *sseSession) Initialize() { s.initialized.Store(true) }

// Initialized implements mcpserver.ClientSession.
func (s *sseSession) Initialized() bool { return s.initialized.Load() }

// enqueue queues one outbound SSE payload, dropping it if the session
// is already closed.
func (s *sseSession) enqueue(data string) {
	select {
	case s.events <- data:
	case <-s.done:
	}
}

// enqueueMessage marshals a protocol message onto the event queue.
func (s *sseSession) enqueueMessage(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.enqueue(string(data))
}

func (s *sseSession) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

var _ mcpserver.ClientSession = (*sseSession)(nil)

// SessionRegistry tracks open streaming sessions so out-of-band client
// messages can be routed to the correct live connection. Exactly one
// record exists per open connection; identifiers are UUIDs and never
// reused while registered. Safe for concurrent use.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*sseSession
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*sseSession)}
}

func (r *SessionRegistry) add(s *sseSession) {
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
}

func (r *SessionRegistry) get(id string) (*sseSession, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	return s, ok
}

func (r *SessionRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
