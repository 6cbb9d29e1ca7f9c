// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventConnectionOpened   EventType = "CONNECTION_OPENED"
	EventConnectionFailed   EventType = "CONNECTION_OPEN_FAILED"
	EventConnectionReplaced EventType = "CONNECTION_REPLACED"
	EventConnectionClosed   EventType = "CONNECTION_CLOSED"
	EventWriteCompleted     EventType = "WRITE_COMPLETED"
	EventWriteFailed        EventType = "WRITE_FAILED"
	EventReadCompleted      EventType = "READ_COMPLETED"
	EventReadFailed         EventType = "READ_FAILED"
)

// Event severities
const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// ConnectionEvent represents something that happened to the serial connection
type ConnectionEvent struct {
	ID           uuid.UUID  `json:"id"`
	EventType    EventType  `json:"event_type"`
	ConnectionID *uuid.UUID `json:"connection_id,omitempty"`
	Path         string     `json:"path,omitempty"`
	Data         JSONObject `json:"data,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
	Source       string     `json:"source"`
	Severity     string     `json:"severity"`
}

// NewConnectionEvent creates an event stamped with a fresh id and time
func NewConnectionEvent(eventType EventType, path string, connectionID *uuid.UUID, data JSONObject) ConnectionEvent {
	return ConnectionEvent{
		ID:           uuid.New(),
		EventType:    eventType,
		ConnectionID: connectionID,
		Path:         path,
		Data:         data,
		Timestamp:    time.Now(),
		Source:       "connection-manager",
		Severity:     severityOf(eventType),
	}
}

// IsFailure reports whether the event records a failed operation
func (e ConnectionEvent) IsFailure() bool {
	return e.Severity == SeverityError
}

func severityOf(eventType EventType) string {
	switch eventType {
	case EventConnectionFailed, EventWriteFailed, EventReadFailed:
		return SeverityError
	case EventConnectionReplaced:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
