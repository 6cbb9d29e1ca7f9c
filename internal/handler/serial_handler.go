// internal/handler/serial_handler.go
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"serial-service/internal/model"
	"serial-service/internal/protocol/serial"
	"serial-service/internal/repository"
	"serial-service/internal/service"
	"serial-service/internal/utils"
)

// SerialHandler exposes the connection manager over HTTP
type SerialHandler struct {
	manager *service.ConnectionManager
	ports   *service.PortService
	journal *service.JournalService
	logger  *utils.ServiceLogger
}

// NewSerialHandler creates a new serial handler. journal may be nil when the
// journal is disabled.
func NewSerialHandler(
	manager *service.ConnectionManager,
	ports *service.PortService,
	journal *service.JournalService,
	logger *zap.Logger,
) *SerialHandler {
	return &SerialHandler{
		manager: manager,
		ports:   ports,
		journal: journal,
		logger:  utils.NewServiceLogger(logger, "serial-handler"),
	}
}

// RegisterRoutes registers serial routes
func (h *SerialHandler) RegisterRoutes(router *gin.RouterGroup) {
	serialRoutes := router.Group("/serial")
	{
		serialRoutes.GET("/ports", h.ListPorts)
		serialRoutes.GET("/status", h.GetStatus)
		serialRoutes.POST("/open", h.Open)
		serialRoutes.POST("/close", h.Close)
		serialRoutes.POST("/write", h.Write)
		serialRoutes.POST("/read", h.Read)
		serialRoutes.GET("/journal", h.ListJournal)
	}
}

// ListPorts lists the serial ports present on the host
// @Summary List serial ports
// @Description Get the device names known to the OS, sorted by name. Enumeration failures yield an empty list.
// @Tags Serial
// @Produce json
// @Param detailed query bool false "Include USB metadata"
// @Success 200 {object} utils.APIResponse{data=PortListResponse} "Ports listed"
// @Router /serial/ports [get]
func (h *SerialHandler) ListPorts(c *gin.Context) {
	response := PortListResponse{}

	if detailed, _ := strconv.ParseBool(c.Query("detailed")); detailed {
		response.Details = h.ports.ListDetailedPorts(c.Request.Context())
		response.Ports = make([]string, 0, len(response.Details))
		for _, d := range response.Details {
			response.Ports = append(response.Ports, d.Name)
		}
	} else {
		response.Ports = h.ports.ListPorts(c.Request.Context())
	}

	utils.SuccessResponse(c, http.StatusOK, "Ports listed", response)
}

// GetStatus returns the connection state
// @Summary Connection status
// @Description Get whether a port is open and, if so, its profile and transfer statistics
// @Tags Serial
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.ConnectionStatus} "Status retrieved"
// @Router /serial/status [get]
func (h *SerialHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Status retrieved", h.manager.Status())
}

// Open opens a serial port, replacing any open connection
// @Summary Open serial port
// @Description Open a port with the given baud rate. Unrecognised line options fall back to 8 data bits, no parity, 2 stop bits, no flow control, 200ms timeout.
// @Tags Serial
// @Accept json
// @Produce json
// @Param request body service.OpenRequest true "Open request"
// @Success 200 {object} utils.APIResponse{data=OpenResponse} "Port opened"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 503 {object} utils.APIResponse{data=OpenResponse} "Port could not be opened"
// @Router /serial/open [post]
func (h *SerialHandler) Open(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req, problems := openRequestFromMap(body)
	if len(problems) > 0 {
		utils.ValidationErrorResponse(c, problems)
		return
	}

	info, err := h.manager.Open(c.Request.Context(), req)
	if err != nil {
		utils.LoggerWithRequestID(h.logger.Logger, c.GetString(utils.RequestIDKey)).Warn("Failed to open serial port",
			zap.String("port", req.Path),
			zap.Error(err),
		)
		utils.ErrorResponseWithData(c, statusForError(err), "Failed to open serial port", err, OpenResponse{Opened: false})
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Serial port opened", OpenResponse{
		Opened:     true,
		Connection: info,
	})
}

// Close closes the open serial port
// @Summary Close serial port
// @Description Release the open port. Closing when nothing is open succeeds.
// @Tags Serial
// @Produce json
// @Success 200 {object} utils.APIResponse{data=CloseResponse} "Port closed"
// @Failure 408 {object} utils.APIResponse "Request cancelled"
// @Router /serial/close [post]
func (h *SerialHandler) Close(c *gin.Context) {
	wasOpen, err := h.manager.Close(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, statusForError(err), "Failed to close serial port", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Serial port closed", CloseResponse{WasOpen: wasOpen})
}

// Write writes bytes to the open port
// @Summary Write to serial port
// @Description Send a payload in a single driver call. A short write is reported, not retried.
// @Tags Serial
// @Accept json
// @Produce json
// @Param request body WriteRequest true "Write request"
// @Success 200 {object} utils.APIResponse{data=WriteResponse} "Payload written"
// @Failure 400 {object} utils.APIResponse "Invalid payload"
// @Failure 409 {object} utils.APIResponse "No open connection"
// @Failure 502 {object} utils.APIResponse{data=WriteResponse} "Transport failure"
// @Router /serial/write [post]
func (h *SerialHandler) Write(c *gin.Context) {
	var req WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payload, err := DecodePayload(req.Data, req.Encoding)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid payload", err)
		return
	}

	result, err := h.manager.Write(c.Request.Context(), payload)
	if err != nil {
		utils.LoggerWithRequestID(h.logger.Logger, c.GetString(utils.RequestIDKey)).Warn("Serial write failed",
			zap.Int("bytes", len(payload)),
			zap.Error(err),
		)
		var data interface{}
		if result != nil {
			data = newWriteResponse(result)
		}
		utils.ErrorResponseWithData(c, statusForError(err), "Write failed", err, data)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Payload written", newWriteResponse(result))
}

// Read reads bytes from the open port
// @Summary Read from serial port
// @Description One read bounded by the connection timeout. An empty result means the timeout elapsed. Text reads that are not valid UTF-8 are returned as base64; the encoding field names the one used.
// @Tags Serial
// @Accept json
// @Produce json
// @Param request body ReadRequest false "Read request"
// @Success 200 {object} utils.APIResponse{data=ReadResponse} "Read completed"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "No open connection"
// @Failure 502 {object} utils.APIResponse{data=ReadResponse} "Transport failure"
// @Router /serial/read [post]
func (h *SerialHandler) Read(c *gin.Context) {
	var req ReadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, err := EncodePayload(nil, req.Encoding); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid encoding", err)
		return
	}

	result, err := h.manager.Read(c.Request.Context(), req.Size)
	if err != nil {
		utils.LoggerWithRequestID(h.logger.Logger, c.GetString(utils.RequestIDKey)).Warn("Serial read failed",
			zap.Int("size", req.Size),
			zap.Error(err),
		)
		var data interface{}
		if result != nil {
			data = newReadResponse(result, req.Encoding)
		}
		utils.ErrorResponseWithData(c, statusForError(err), "Read failed", err, data)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Read completed", newReadResponse(result, req.Encoding))
}

// ListJournal lists recent connection events
// @Summary Transfer journal
// @Description Get recorded connection events, newest first
// @Tags Serial
// @Produce json
// @Param limit query int false "Maximum entries" default(50)
// @Param connection_id query string false "Filter by connection"
// @Param event_type query string false "Filter by event type"
// @Success 200 {object} utils.APIResponse{data=[]model.JournalEntry} "Journal retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid filter"
// @Failure 404 {object} utils.APIResponse "Journal disabled"
// @Router /serial/journal [get]
func (h *SerialHandler) ListJournal(c *gin.Context) {
	if h.journal == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Journal is disabled", nil)
		return
	}

	filter := &repository.JournalFilter{}
	if limit := c.Query("limit"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filter.Limit = l
	}
	if connectionID := c.Query("connection_id"); connectionID != "" {
		id, err := uuid.Parse(connectionID)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid connection_id", err)
			return
		}
		filter.ConnectionID = &id
	}
	if eventType := c.Query("event_type"); eventType != "" {
		et := model.EventType(eventType)
		filter.EventType = &et
	}

	entries, err := h.journal.Recent(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list journal", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list journal", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Journal retrieved", entries)
}

// openRequestFromMap builds an open request from loosely typed JSON. Line
// options may sit at the top level or under "config"; values of the wrong
// type are dropped and normalized to their defaults.
func openRequestFromMap(data map[string]interface{}) (*service.OpenRequest, map[string]string) {
	problems := make(map[string]string)

	path, _ := data["path"].(string)
	if path == "" {
		problems["path"] = "path is required"
	}
	baudRate, ok := serial.IntValue(data["baud_rate"])
	if !ok {
		problems["baud_rate"] = "baud_rate must be an integer"
	}
	if len(problems) > 0 {
		return nil, problems
	}

	options, ok := data["config"].(map[string]interface{})
	if !ok {
		options = data
	}

	return &service.OpenRequest{
		Path:      path,
		BaudRate:  baudRate,
		RawConfig: serial.RawConfigFromMap(options),
	}, nil
}

// statusForError maps manager errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, serial.ErrNoActiveConnection):
		return http.StatusConflict
	case errors.Is(err, serial.ErrOpenFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, serial.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func newWriteResponse(result *service.WriteResult) WriteResponse {
	return WriteResponse{
		ConnectionID: result.ConnectionID,
		Requested:    result.Requested,
		BytesWritten: result.BytesWritten,
		DurationMs:   result.Duration.Milliseconds(),
	}
}

func newReadResponse(result *service.ReadResult, encoding string) ReadResponse {
	encoding = ReadEncoding(result.Data, encoding)
	data, _ := EncodePayload(result.Data, encoding)

	return ReadResponse{
		ConnectionID: result.ConnectionID,
		Requested:    result.Requested,
		BytesRead:    result.BytesRead,
		Data:         data,
		Encoding:     encoding,
		DurationMs:   result.Duration.Milliseconds(),
	}
}

// PortListResponse lists host ports
type PortListResponse struct {
	Ports   []string              `json:"ports"`
	Details []*serial.PortDetails `json:"details,omitempty"`
}

// OpenResponse reports the outcome of an open
type OpenResponse struct {
	Opened     bool                    `json:"opened"`
	Connection *service.ConnectionInfo `json:"connection,omitempty"`
}

// CloseResponse reports whether a connection was released
type CloseResponse struct {
	WasOpen bool `json:"was_open"`
}

// WriteRequest carries a payload to transmit
type WriteRequest struct {
	Data     string `json:"data"`
	Encoding string `json:"encoding,omitempty" enums:"text,hex,base64"`
}

// WriteResponse reports the outcome of a write
type WriteResponse struct {
	ConnectionID uuid.UUID `json:"connection_id"`
	Requested    int       `json:"requested"`
	BytesWritten int       `json:"bytes_written"`
	DurationMs   int64     `json:"duration_ms"`
}

// ReadRequest bounds a read. Size <= 0 reads up to 1024 bytes.
type ReadRequest struct {
	Size     int    `json:"size,omitempty"`
	Encoding string `json:"encoding,omitempty" enums:"text,hex,base64"`
}

// ReadResponse carries the bytes received
type ReadResponse struct {
	ConnectionID uuid.UUID `json:"connection_id"`
	Requested    int       `json:"requested"`
	BytesRead    int       `json:"bytes_read"`
	Data         string    `json:"data"`
	Encoding     string    `json:"encoding"`
	DurationMs   int64     `json:"duration_ms"`
}
