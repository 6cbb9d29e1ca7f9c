// internal/handler/websocket_types.go
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"serial-service/internal/model"
)

// WebSocket client kinds
const (
	ClientTypeEvents = "events"
	ClientTypeSerial = "serial"
)

// Client represents a WebSocket client
type Client struct {
	ID          string          `json:"id"`
	Connection  *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
	Type        string          `json:"type"`
	UserAgent   string          `json:"user_agent"`
	RemoteAddr  string          `json:"remote_addr"`
	ConnectedAt time.Time       `json:"connected_at"`

	mu            sync.Mutex
	subscriptions map[model.EventType]bool
}

// Subscribe limits delivered events to the given types
func (c *Client) Subscribe(eventType model.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subscriptions == nil {
		c.subscriptions = make(map[model.EventType]bool)
	}
	c.subscriptions[eventType] = true
}

// Unsubscribe removes an event type filter
func (c *Client) Unsubscribe(eventType model.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.subscriptions, eventType)
}

// Wants reports whether the client should receive eventType. A client with
// no subscriptions receives everything.
func (c *Client) Wants(eventType model.EventType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.subscriptions) == 0 || c.subscriptions[eventType]
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ClientRegistry tracks connected WebSocket clients
type ClientRegistry struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

// NewClientRegistry creates an empty registry
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
	}
}

// Register registers a new client
func (r *ClientRegistry) Register(client *Client) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.clients[client.ID] = client
}

// Unregister removes a client and closes its send channel
func (r *ClientRegistry) Unregister(client *Client) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.clients[client.ID]; ok {
		delete(r.clients, client.ID)
		close(client.Send)
	}
}

// ClientsOfType returns all clients of the given kind
func (r *ClientRegistry) ClientsOfType(clientType string) []*Client {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var clients []*Client
	for _, client := range r.clients {
		if client.Type == clientType {
			clients = append(clients, client)
		}
	}
	return clients
}

// Broadcast queues message for every client of clientType that accepts it.
// Slow clients are skipped; the number of skipped clients is returned.
func (r *ClientRegistry) Broadcast(clientType string, accept func(*Client) bool, message []byte) int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	dropped := 0
	for _, client := range r.clients {
		if client.Type != clientType || (accept != nil && !accept(client)) {
			continue
		}
		select {
		case client.Send <- message:
		default:
			dropped++
		}
	}
	return dropped
}

// SendTo queues message for a single registered client. It reports false if
// the client is gone or its queue is full.
func (r *ClientRegistry) SendTo(client *Client, message []byte) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if _, ok := r.clients[client.ID]; !ok {
		return false
	}

	select {
	case client.Send <- message:
		return true
	default:
		return false
	}
}

// GetStats returns connection statistics
func (r *ClientRegistry) GetStats() *ClientStats {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := &ClientStats{
		TotalConnections: len(r.clients),
		ByType:           make(map[string]int),
		Clients:          make([]*Client, 0, len(r.clients)),
	}

	for _, client := range r.clients {
		stats.ByType[client.Type]++
		stats.Clients = append(stats.Clients, client)
	}

	return stats
}

// ClientStats represents WebSocket connection statistics
type ClientStats struct {
	TotalConnections int            `json:"total_connections"`
	ByType           map[string]int `json:"by_type"`
	Clients          []*Client      `json:"clients"`
}
