package websocket

import (
	"time"

	"github.com/coder/websocket"
)

// Message types sent to the browser.
const (
	MessageReload = "reload"
	MessageFailed = "build_failed"
)

// Client represents a WebSocket client connection
type Client struct {
	conn         *websocket.Conn
	send         chan []byte
	remoteAddr   string
	lastActivity time.Time
}

// Message is the JSON document broadcast to every connected browser after a
// build.
type Message struct {
	Type      string    `json:"type"`
	BuildID   string    `json:"build_id,omitempty"`
	Failures  int       `json:"failures,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
