// Package websocket implements the live reload hub of the development
// server. Browsers connect over a websocket and are told to reload whenever
// a rebuild finishes.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/quire/internal/logging"
	"github.com/conneroisu/quire/internal/validation"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Browsers never send anything meaningful to the reload hub.
	maxMessageSize = 512
)

// Manager tracks connected browsers and fans reload messages out to them.
//
// A single hub goroutine owns registration, unregistration and broadcasts.
// clients is guarded by clientsMutex so ClientCount can be read from any
// goroutine.
type Manager struct {
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *websocket.Conn

	allowedOrigins []string
	logger         logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	isShutdown   atomic.Bool
}

// NewManager creates a hub accepting connections from allowedOrigins and
// starts its goroutine. Requests without an Origin header, which browsers
// always send for websockets, are accepted so local tools can connect.
func NewManager(allowedOrigins []string, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		clients:        make(map[*websocket.Conn]*Client),
		broadcast:      make(chan []byte, 16),
		register:       make(chan *Client, 32),
		unregister:     make(chan *websocket.Conn, 32),
		allowedOrigins: allowedOrigins,
		logger:         logger.WithComponent("livereload"),
		ctx:            ctx,
		cancel:         cancel,
	}

	go m.runHub()
	return m
}

// HandleWebSocket upgrades the request and registers the browser.
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if m.isShutdown.Load() {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	if origin := r.Header.Get("Origin"); origin != "" {
		if err := validation.ValidateOrigin(origin, m.allowedOrigins); err != nil {
			m.logger.Warn(r.Context(), err, "WebSocket connection rejected", "remote", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origins were checked above against the configured list
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		m.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	client := &Client{
		conn:         conn,
		send:         make(chan []byte, 16),
		remoteAddr:   r.RemoteAddr,
		lastActivity: time.Now(),
	}

	select {
	case m.register <- client:
	case <-m.ctx.Done():
		_ = conn.Close(websocket.StatusServiceRestart, "server shutting down")
		return
	}

	go m.handleClient(client)
}

func (m *Manager) runHub() {
	for {
		select {
		case client := <-m.register:
			m.clientsMutex.Lock()
			m.clients[client.conn] = client
			count := len(m.clients)
			m.clientsMutex.Unlock()
			m.logger.Debug(m.ctx, "Browser connected", "remote", client.remoteAddr, "clients", count)

		case conn := <-m.unregister:
			m.removeClient(conn)

		case message := <-m.broadcast:
			m.broadcastToClients(message)

		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Manager) removeClient(conn *websocket.Conn) {
	m.clientsMutex.Lock()
	client, exists := m.clients[conn]
	if exists {
		delete(m.clients, conn)
		close(client.send)
	}
	count := len(m.clients)
	m.clientsMutex.Unlock()

	if exists {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		m.logger.Debug(m.ctx, "Browser disconnected", "remote", client.remoteAddr, "clients", count)
	}
}

func (m *Manager) broadcastToClients(message []byte) {
	m.clientsMutex.RLock()
	var stalled []*websocket.Conn
	for conn, client := range m.clients {
		select {
		case client.send <- message:
		default:
			stalled = append(stalled, conn)
		}
	}
	m.clientsMutex.RUnlock()

	for _, conn := range stalled {
		m.removeClient(conn)
	}
}

func (m *Manager) handleClient(client *Client) {
	defer func() {
		select {
		case m.unregister <- client.conn:
		case <-m.ctx.Done():
		}
	}()

	go m.writeToClient(client)
	m.readFromClient(client)
}

func (m *Manager) readFromClient(client *Client) {
	for {
		ctx, cancel := context.WithTimeout(m.ctx, pongWait)
		_, _, err := client.conn.Read(ctx)
		cancel()
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && m.ctx.Err() == nil {
				m.logger.Debug(m.ctx, "WebSocket read ended", "remote", client.remoteAddr, "error", err.Error())
			}
			return
		}
		client.lastActivity = time.Now()
	}
}

func (m *Manager) writeToClient(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(m.ctx, writeWait)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				m.logger.Debug(m.ctx, "WebSocket write failed", "remote", client.remoteAddr, "error", err.Error())
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(m.ctx, writeWait)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-m.ctx.Done():
			return
		}
	}
}

// Broadcast queues msg for every connected browser. It never blocks; when
// the queue is full the message is dropped, since a newer reload follows.
func (m *Manager) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error(m.ctx, err, "Failed to encode reload message")
		return
	}

	select {
	case m.broadcast <- data:
	case <-m.ctx.Done():
	default:
		m.logger.Warn(m.ctx, nil, "Reload queue full, dropping message", "type", msg.Type)
	}
}

// ClientCount returns the number of connected browsers.
func (m *Manager) ClientCount() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}

// Shutdown closes every connection and stops the hub. It is safe to call
// more than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(func() {
		m.isShutdown.Store(true)
		m.cancel()

		m.clientsMutex.Lock()
		for conn := range m.clients {
			_ = conn.Close(websocket.StatusGoingAway, "server shutdown")
		}
		m.clients = make(map[*websocket.Conn]*Client)
		m.clientsMutex.Unlock()

		m.logger.Debug(ctx, "Reload hub stopped")
	})
	return nil
}

// IsShutdown reports whether Shutdown has been called.
func (m *Manager) IsShutdown() bool {
	return m.isShutdown.Load()
}
