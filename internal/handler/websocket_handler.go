// internal/handler/websocket_handler.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"serial-service/internal/config"
	"serial-service/internal/model"
	"serial-service/internal/protocol/serial"
	"serial-service/internal/service"
	"serial-service/internal/utils"
)

const (
	writeWait      = 10 * time.Second
	commandTimeout = 30 * time.Second
	sendBuffer     = 256
)

// WebSocketHandler streams connection events and accepts serial commands
type WebSocketHandler struct {
	upgrader     websocket.Upgrader
	clients      *ClientRegistry
	manager      *service.ConnectionManager
	ports        *service.PortService
	eventBus     *EventBus
	pingInterval time.Duration
	pongWait     time.Duration
	logger       *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	manager *service.ConnectionManager,
	ports *service.PortService,
	eventBus *EventBus,
	cfg *config.Config,
	logger *zap.Logger,
) *WebSocketHandler {
	allowed := make(map[string]bool, len(cfg.Security.AllowedOrigins))
	for _, origin := range cfg.Security.AllowedOrigins {
		allowed[origin] = true
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || origin == "" || allowed[origin]
		},
	}

	pongWait := cfg.WebSocket.PongWait
	if pongWait <= 0 {
		pongWait = 60 * time.Second
	}
	pingInterval := cfg.WebSocket.PingInterval
	if pingInterval <= 0 || pingInterval >= pongWait {
		pingInterval = pongWait * 9 / 10
	}

	return &WebSocketHandler{
		upgrader:     upgrader,
		clients:      NewClientRegistry(),
		manager:      manager,
		ports:        ports,
		eventBus:     eventBus,
		pingInterval: pingInterval,
		pongWait:     pongWait,
		logger:       utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/events", h.HandleEventConnection)
	router.GET("/serial", h.HandleSerialConnection)
}

// Run forwards bus events to event clients until ctx is done
func (h *WebSocketHandler) Run(ctx context.Context) {
	events := h.eventBus.SubscribeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.BroadcastConnectionEvent(event)
		}
	}
}

// HandleEventConnection streams connection events
// @Summary Connection event stream
// @Description WebSocket delivering connection_event messages. Send {"type":"subscribe","data":{"topic":"WRITE_FAILED"}} to filter.
// @Tags WebSocket
// @Router /ws/events [get]
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	h.accept(c, ClientTypeEvents)
}

// HandleSerialConnection accepts serial commands over a WebSocket
// @Summary Serial command channel
// @Description WebSocket accepting {"type":"command","data":{"command":"open|close|write|read|status|ports",...}} and replying with command_response
// @Tags WebSocket
// @Router /ws/serial [get]
func (h *WebSocketHandler) HandleSerialConnection(c *gin.Context) {
	h.accept(c, ClientTypeSerial)
}

func (h *WebSocketHandler) accept(c *gin.Context, clientType string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, sendBuffer),
		Type:        clientType,
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.clients.Register(client)
	h.logger.Info("WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("client_type", clientType),
		zap.String("remote_addr", client.RemoteAddr),
	)

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// handleClientRead reads client messages. Commands run inline so one client's
// commands are applied in the order sent.
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.clients.Unregister(client)
		client.Connection.Close()
		h.logger.Info("WebSocket client disconnected", zap.String("client_id", client.ID))
	}()

	client.Connection.SetReadDeadline(time.Now().Add(h.pongWait))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			return
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "", "invalid message")
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite drains the client's queue and keeps the socket alive
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage dispatches one incoming message
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe", "unsubscribe":
		h.handleSubscription(client, message)
	case "command":
		h.handleCommand(client, message)
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	default:
		h.sendError(client, message.RequestID, fmt.Sprintf("unknown message type: %s", message.Type))
	}
}

// handleSubscription updates the event type filter of a client
func (h *WebSocketHandler) handleSubscription(client *Client, message *WebSocketMessage) {
	data, _ := message.Data.(map[string]interface{})
	topic, _ := data["topic"].(string)
	if topic == "" {
		h.sendError(client, message.RequestID, "topic is required")
		return
	}

	eventType := model.EventType(topic)
	if message.Type == "subscribe" {
		client.Subscribe(eventType)
	} else {
		client.Unsubscribe(eventType)
	}

	h.sendMessage(client, &WebSocketMessage{
		Type:      message.Type + "_confirmed",
		Data:      map[string]interface{}{"topic": topic},
		Timestamp: time.Now(),
		RequestID: message.RequestID,
	})
}

// handleCommand validates and executes a serial command
func (h *WebSocketHandler) handleCommand(client *Client, message *WebSocketMessage) {
	if client.Type != ClientTypeSerial {
		h.sendError(client, message.RequestID, "commands are only accepted on /ws/serial")
		return
	}

	data, ok := message.Data.(map[string]interface{})
	if !ok {
		h.sendError(client, message.RequestID, "invalid command data")
		return
	}

	command, _ := data["command"].(string)
	if command == "" {
		h.sendError(client, message.RequestID, "command is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	result, err := h.ExecuteCommand(ctx, command, data)

	response := map[string]interface{}{
		"command": command,
		"success": err == nil,
		"result":  result,
	}
	if err != nil {
		response["error"] = err.Error()
		if errors.Is(err, serial.ErrNoActiveConnection) {
			response["code"] = "NO_ACTIVE_CONNECTION"
		}
	}

	h.sendMessage(client, &WebSocketMessage{
		Type:      "command_response",
		Data:      response,
		Timestamp: time.Now(),
		RequestID: message.RequestID,
	})
}

// ExecuteCommand runs one serial command given as loosely typed JSON data
func (h *WebSocketHandler) ExecuteCommand(ctx context.Context, command string, data map[string]interface{}) (interface{}, error) {
	switch command {
	case "open":
		req, problems := openRequestFromMap(data)
		if len(problems) > 0 {
			return nil, errors.New("path and baud_rate are required")
		}

		info, err := h.manager.Open(ctx, req)
		if err != nil {
			return OpenResponse{Opened: false}, err
		}
		return OpenResponse{Opened: true, Connection: info}, nil

	case "close":
		wasOpen, err := h.manager.Close(ctx)
		if err != nil {
			return nil, err
		}
		return CloseResponse{WasOpen: wasOpen}, nil

	case "write":
		text, _ := data["data"].(string)
		encoding, _ := data["encoding"].(string)
		payload, err := DecodePayload(text, encoding)
		if err != nil {
			return nil, err
		}

		result, err := h.manager.Write(ctx, payload)
		if result == nil {
			return nil, err
		}
		return newWriteResponse(result), err

	case "read":
		size, _ := serial.IntValue(data["size"])
		encoding, _ := data["encoding"].(string)
		if _, err := EncodePayload(nil, encoding); err != nil {
			return nil, err
		}

		result, err := h.manager.Read(ctx, size)
		if result == nil {
			return nil, err
		}
		return newReadResponse(result, encoding), err

	case "status":
		return h.manager.Status(), nil

	case "ports":
		if detailed, _ := data["detailed"].(bool); detailed {
			return h.ports.ListDetailedPorts(ctx), nil
		}
		return h.ports.ListPorts(ctx), nil

	default:
		return nil, fmt.Errorf("unknown command: %s", command)
	}
}

// BroadcastConnectionEvent sends an event to every interested event client
func (h *WebSocketHandler) BroadcastConnectionEvent(event model.ConnectionEvent) {
	messageBytes, err := json.Marshal(&WebSocketMessage{
		Type:      "connection_event",
		Data:      event,
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	accept := func(client *Client) bool { return client.Wants(event.EventType) }
	if dropped := h.clients.Broadcast(ClientTypeEvents, accept, messageBytes); dropped > 0 {
		h.logger.Warn("Client send channel full during broadcast",
			zap.Int("dropped", dropped),
			zap.String("event_type", string(event.EventType)),
		)
	}
}

// sendMessage sends a message to a client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	if !h.clients.SendTo(client, messageBytes) {
		h.logger.Warn("Dropping message for client",
			zap.String("client_id", client.ID),
			zap.String("type", message.Type),
		)
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, requestID, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "error",
		Data:      map[string]interface{}{"error": errorMsg},
		Timestamp: time.Now(),
		RequestID: requestID,
	})
}

// GetConnectionStats returns WebSocket client statistics
func (h *WebSocketHandler) GetConnectionStats() *ClientStats {
	return h.clients.GetStats()
}
