// internal/service/active_connection.go
package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"serial-service/internal/model"
	"serial-service/internal/protocol/serial"
	"serial-service/internal/utils"
)

// ConnectionStats provides transfer statistics for one connection
type ConnectionStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	WriteCount     int64         `json:"write_count"`
	ReadCount      int64         `json:"read_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
}

func (s *ConnectionStats) record(duration time.Duration) {
	s.LastActivity = time.Now()
	ops := s.WriteCount + s.ReadCount
	if ops <= 1 {
		s.AverageLatency = duration
		return
	}
	s.AverageLatency = (s.AverageLatency*time.Duration(ops-1) + duration) / time.Duration(ops)
}

// ActiveConnection is an open port together with the profile it was opened
// with and the notifier captured at open time. It is only touched while the
// owning manager's lock is held.
type ActiveConnection struct {
	ID       uuid.UUID
	Path     string
	Driver   string
	Profile  serial.TransmissionProfile
	OpenedAt time.Time

	port     serial.Port
	notifier EventPublisher
	stats    ConnectionStats
	logger   *utils.ConnectionLogger
}

func newActiveConnection(
	id uuid.UUID,
	path string,
	profile serial.TransmissionProfile,
	driver string,
	port serial.Port,
	notifier EventPublisher,
	logger *zap.Logger,
) *ActiveConnection {
	return &ActiveConnection{
		ID:       id,
		Path:     path,
		Driver:   driver,
		Profile:  profile,
		OpenedAt: time.Now(),
		port:     port,
		notifier: notifier,
		logger:   utils.NewConnectionLogger(logger, id.String(), path, profile.BaudRate),
	}
}

// Info returns a snapshot of the connection
func (c *ActiveConnection) Info() *ConnectionInfo {
	return &ConnectionInfo{
		ID:       c.ID,
		Path:     c.Path,
		Driver:   c.Driver,
		Profile:  c.Profile,
		OpenedAt: c.OpenedAt,
		Stats:    c.stats,
	}
}

func (c *ActiveConnection) write(data []byte) (*WriteResult, error) {
	start := time.Now()
	n, err := c.port.Write(data)
	duration := time.Since(start)

	result := &WriteResult{
		ConnectionID: c.ID,
		Requested:    len(data),
		BytesWritten: n,
		Duration:     duration,
	}

	c.stats.WriteCount++
	c.stats.BytesWritten += int64(n)
	c.stats.record(duration)
	c.logger.LogTransfer("write", len(data), n, duration, err)

	if err != nil {
		c.stats.ErrorCount++
		c.notify(model.EventWriteFailed, model.JSONObject{
			"requested":     len(data),
			"bytes_written": n,
			"error":         err.Error(),
		})
		return result, fmt.Errorf("%w: write: %w", serial.ErrTransport, err)
	}

	c.notify(model.EventWriteCompleted, model.JSONObject{
		"requested":     len(data),
		"bytes_written": n,
		"duration_ms":   duration.Milliseconds(),
	})
	return result, nil
}

func (c *ActiveConnection) read(size int) (*ReadResult, error) {
	buffer := make([]byte, size)

	start := time.Now()
	n, err := c.port.Read(buffer)
	duration := time.Since(start)

	result := &ReadResult{
		ConnectionID: c.ID,
		Requested:    size,
		BytesRead:    n,
		Data:         buffer[:n],
		Duration:     duration,
	}

	c.stats.ReadCount++
	c.stats.BytesRead += int64(n)
	c.stats.record(duration)
	c.logger.LogTransfer("read", size, n, duration, err)

	if err != nil {
		c.stats.ErrorCount++
		c.notify(model.EventReadFailed, model.JSONObject{
			"requested":  size,
			"bytes_read": n,
			"error":      err.Error(),
		})
		return result, fmt.Errorf("%w: read: %w", serial.ErrTransport, err)
	}

	c.notify(model.EventReadCompleted, model.JSONObject{
		"requested":   size,
		"bytes_read":  n,
		"duration_ms": duration.Milliseconds(),
	})
	return result, nil
}

// release closes the port. A close error is logged and otherwise ignored;
// the handle is considered gone either way.
func (c *ActiveConnection) release(reason string) {
	err := c.port.Close()
	c.logger.LogConnection("close", err == nil, err)

	c.notify(model.EventConnectionClosed, model.JSONObject{
		"reason":        reason,
		"bytes_written": c.stats.BytesWritten,
		"bytes_read":    c.stats.BytesRead,
		"open_for_ms":   time.Since(c.OpenedAt).Milliseconds(),
	})
}

func (c *ActiveConnection) notify(eventType model.EventType, data model.JSONObject) {
	c.notifier.Publish(model.NewConnectionEvent(eventType, c.Path, &c.ID, data))
}
