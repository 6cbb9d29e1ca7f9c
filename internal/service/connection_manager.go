// internal/service/connection_manager.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"serial-service/internal/config"
	"serial-service/internal/model"
	"serial-service/internal/protocol/serial"
	"serial-service/internal/utils"
)

// Read sizes
const (
	DefaultReadSize = 1024
	MaxReadSize     = 64 * 1024
)

// ConnectionState is the state of the single managed connection
type ConnectionState string

const (
	StateClosed ConnectionState = "CLOSED"
	StateOpen   ConnectionState = "OPEN"
)

// EventPublisher receives connection events. Publish must not block.
type EventPublisher interface {
	Publish(event model.ConnectionEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(model.ConnectionEvent) {}

// ConnectionManager owns at most one open serial port. Every operation holds
// mu for its whole duration, driver I/O included, so callers never observe a
// half-replaced connection.
type ConnectionManager struct {
	mu     sync.Mutex
	active *ActiveConnection

	driver      serial.Driver
	publisher   EventPublisher
	maxReadSize int
	logger      *utils.ServiceLogger
}

// NewConnectionManager creates a manager in the Closed state
func NewConnectionManager(
	driver serial.Driver,
	publisher EventPublisher,
	cfg *config.SerialConfig,
	logger *zap.Logger,
) *ConnectionManager {
	if publisher == nil {
		publisher = noopPublisher{}
	}

	maxReadSize := MaxReadSize
	if cfg != nil && cfg.MaxReadSize > 0 {
		maxReadSize = cfg.MaxReadSize
	}

	return &ConnectionManager{
		driver:      driver,
		publisher:   publisher,
		maxReadSize: maxReadSize,
		logger:      utils.NewServiceLogger(logger, "connection-manager"),
	}
}

// Open opens req.Path with the normalized profile. If a connection is already
// open it is closed only after the new port opened successfully; on failure
// the manager is left exactly as it was.
func (cm *ConnectionManager) Open(ctx context.Context, req *OpenRequest) (*ConnectionInfo, error) {
	profile := serial.NewProfile(req.BaudRate, req.RawConfig)

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	connectionID := uuid.New()
	opLogger := utils.NewOperationLogger(cm.logger.Logger, "open", connectionID.String())
	opLogger.Start(
		zap.String("port", req.Path),
		zap.String("profile", profile.String()),
		zap.String("driver", cm.driver.Name()),
	)

	port, err := cm.driver.Open(req.Path, profile)
	if err != nil {
		opLogger.Error(err, zap.String("port", req.Path))
		cm.publisher.Publish(model.NewConnectionEvent(model.EventConnectionFailed, req.Path, nil, model.JSONObject{
			"baud_rate": req.BaudRate,
			"error":     err.Error(),
		}))
		return nil, fmt.Errorf("%w: %w", serial.ErrOpenFailed, err)
	}

	conn := newActiveConnection(connectionID, req.Path, profile, cm.driver.Name(), port, cm.publisher, cm.logger.Logger)
	previous := cm.active
	cm.active = conn

	if previous != nil {
		previous.release("replaced")
		cm.publisher.Publish(model.NewConnectionEvent(model.EventConnectionReplaced, req.Path, &conn.ID, model.JSONObject{
			"previous_connection_id": previous.ID.String(),
			"previous_path":          previous.Path,
		}))
	}

	conn.logger.LogConnection("open", true, nil)
	conn.notify(model.EventConnectionOpened, model.JSONObject{
		"baud_rate":    profile.BaudRate,
		"data_bits":    int(profile.DataBits),
		"flow_control": string(profile.FlowControl),
		"parity":       string(profile.Parity),
		"stop_bits":    int(profile.StopBits),
		"timeout_ms":   profile.TimeoutMs,
	})
	opLogger.Success(zap.String("port", req.Path), zap.Bool("replaced", previous != nil))

	return conn.Info(), nil
}

// Close releases the current connection. It reports whether one was open;
// closing an already closed manager is a no-op. A cancelled context leaves
// the connection open.
func (cm *ConnectionManager) Close(ctx context.Context) (bool, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.active == nil {
		cm.logger.Debug("Close requested with no active connection")
		return false, nil
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	cm.active.release("closed")
	cm.active = nil
	return true, nil
}

// Write sends data to the open port in a single driver call. A short write is
// reported as is; nothing is retried. Transport errors leave the connection
// open.
func (cm *ConnectionManager) Write(ctx context.Context, data []byte) (*WriteResult, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn := cm.active
	if conn == nil {
		cm.logger.Warn("Write rejected, no active connection", zap.Int("bytes", len(data)))
		return nil, serial.ErrNoActiveConnection
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return conn.write(data)
}

// Read performs one bounded driver read. size <= 0 reads up to
// DefaultReadSize; larger requests are capped at the configured maximum. An
// elapsed timeout yields an empty result, not an error.
func (cm *ConnectionManager) Read(ctx context.Context, size int) (*ReadResult, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn := cm.active
	if conn == nil {
		cm.logger.Warn("Read rejected, no active connection", zap.Int("size", size))
		return nil, serial.ErrNoActiveConnection
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return conn.read(cm.readSize(size))
}

// Status reports the current state and, when open, the connection details
func (cm *ConnectionManager) Status() *ConnectionStatus {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.active == nil {
		return &ConnectionStatus{State: StateClosed, Driver: cm.driver.Name()}
	}

	return &ConnectionStatus{
		State:      StateOpen,
		Driver:     cm.driver.Name(),
		Connection: cm.active.Info(),
	}
}

// IsOpen reports whether a connection is currently held
func (cm *ConnectionManager) IsOpen() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	return cm.active != nil
}

// Shutdown releases any open connection. The manager stays usable afterwards.
func (cm *ConnectionManager) Shutdown() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.active == nil {
		return
	}

	cm.logger.Info("Releasing serial connection on shutdown", zap.String("port", cm.active.Path))
	cm.active.release("shutdown")
	cm.active = nil
}

func (cm *ConnectionManager) readSize(size int) int {
	if size <= 0 {
		size = DefaultReadSize
	}
	if size > cm.maxReadSize {
		size = cm.maxReadSize
	}
	return size
}

// OpenRequest is the caller's open command. Line options are optional and
// normalized; Path and BaudRate are passed to the driver untouched.
type OpenRequest struct {
	Path     string `json:"path" binding:"required"`
	BaudRate int    `json:"baud_rate" binding:"required"`
	serial.RawConfig
}

// ConnectionInfo describes the open connection
type ConnectionInfo struct {
	ID       uuid.UUID                  `json:"id"`
	Path     string                     `json:"path"`
	Driver   string                     `json:"driver"`
	Profile  serial.TransmissionProfile `json:"profile"`
	OpenedAt time.Time                  `json:"opened_at"`
	Stats    ConnectionStats            `json:"stats"`
}

// ConnectionStatus is the manager state snapshot
type ConnectionStatus struct {
	State      ConnectionState `json:"state"`
	Driver     string          `json:"driver"`
	Connection *ConnectionInfo `json:"connection,omitempty"`
}

// WriteResult reports the outcome of a write
type WriteResult struct {
	ConnectionID uuid.UUID     `json:"connection_id"`
	Requested    int           `json:"requested"`
	BytesWritten int           `json:"bytes_written"`
	Duration     time.Duration `json:"duration"`
}

// ReadResult reports the outcome of a read
type ReadResult struct {
	ConnectionID uuid.UUID     `json:"connection_id"`
	Requested    int           `json:"requested"`
	BytesRead    int           `json:"bytes_read"`
	Data         []byte        `json:"data"`
	Duration     time.Duration `json:"duration"`
}
