// internal/model/journal.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// JournalEntry is a stored connection event
type JournalEntry struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	EventType    EventType  `json:"event_type" db:"event_type"`
	ConnectionID *uuid.UUID `json:"connection_id,omitempty" db:"connection_id"`
	Path         string     `json:"path" db:"path"`
	Severity     string     `json:"severity" db:"severity"`
	Data         JSONObject `json:"data" db:"data"`
	RecordedAt   time.Time  `json:"recorded_at" db:"recorded_at"`
}

// NewJournalEntry converts an event into a journal entry
func NewJournalEntry(event ConnectionEvent) *JournalEntry {
	return &JournalEntry{
		ID:           event.ID,
		EventType:    event.EventType,
		ConnectionID: event.ConnectionID,
		Path:         event.Path,
		Severity:     event.Severity,
		Data:         event.Data,
		RecordedAt:   event.Timestamp,
	}
}
