package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"orbitviz/internal"
	"orbitviz/internal/diagnostics"
)

// SSEClient represents a connected SSE client
type SSEClient struct {
	SessionID string
	Channel   chan MarkerEvent
}

// MarkerEvent announces new marker positions of a session
type MarkerEvent struct {
	SessionID string                      `json:"session_id"`
	EventType string                      `json:"event_type"`
	Positions diagnostics.MarkerPositions `json:"positions"`
	Timestamp time.Time                   `json:"timestamp"`
}

// SSEHub fans marker updates out to Server-Sent Events listeners
type SSEHub struct {
	clients    map[string]map[chan MarkerEvent]bool
	gone       map[string]bool // disconnected sessions
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan MarkerEvent
	done       chan struct{}
	closeOnce  sync.Once
	logger     *internal.Logger
	keepAlive  time.Duration
}

// NewSSEHub creates a new SSE hub
func NewSSEHub(logger *internal.Logger) *SSEHub {
	hub := &SSEHub{
		clients:    make(map[string]map[chan MarkerEvent]bool),
		gone:       make(map[string]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan MarkerEvent, 100),
		done:       make(chan struct{}),
		logger:     logger.With("sse"),
		keepAlive:  30 * time.Second,
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			if h.gone[client.SessionID] {
				close(client.Channel)
				h.clientsMu.Unlock()
				continue
			}
			if h.clients[client.SessionID] == nil {
				h.clients[client.SessionID] = make(map[chan MarkerEvent]bool)
			}
			h.clients[client.SessionID][client.Channel] = true
			h.logger.Debug("Client registered for session %s (total clients: %d)",
				client.SessionID, len(h.clients[client.SessionID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.SessionID]; exists {
				if clients[client.Channel] {
					delete(clients, client.Channel)
					close(client.Channel)
				}
				h.logger.Debug("Client unregistered from session %s (remaining clients: %d)",
					client.SessionID, len(clients))
				if len(clients) == 0 {
					delete(h.clients, client.SessionID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.SessionID] {
				select {
				case clientChan <- event:
				default:
					h.logger.Warn("Client channel full for session %s, skipping event", event.SessionID)
				}
			}
			h.clientsMu.RUnlock()

		case <-h.done:
			return
		}
	}
}

// Close stops the hub loop; later calls do nothing
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Broadcast sends an event to all clients listening to a session
func (h *SSEHub) Broadcast(event MarkerEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast channel full, dropping event: %s", event.EventType)
	}
}

// Disconnect drops every listener of a session and refuses new ones
func (h *SSEHub) Disconnect(sessionID string) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.gone[sessionID] = true
	for clientChan := range h.clients[sessionID] {
		close(clientChan)
	}
	delete(h.clients, sessionID)
}

// stream writes events of sessionID to the response until the client leaves
func (h *SSEHub) stream(c *gin.Context, sessionID string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientChan := make(chan MarkerEvent, 10)
	select {
	case h.register <- SSEClient{SessionID: sessionID, Channel: clientChan}:
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SSE hub registration failed"})
		return
	}

	defer func() {
		select {
		case h.unregister <- SSEClient{SessionID: sessionID, Channel: clientChan}:
		default:
		}
	}()

	c.SSEvent("connected", `{"session_id": "`+sessionID+`"}`)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-clientChan:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.EventType, string(eventJSON))
			return true

		case <-time.After(h.keepAlive):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// GetClientCount returns the number of active clients for a session
func (h *SSEHub) GetClientCount(sessionID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[sessionID])
}
