// internal/repository/interfaces.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"serial-service/internal/model"
)

// JournalRepository stores connection events
type JournalRepository interface {
	Record(ctx context.Context, entry *model.JournalEntry) error

	// ListRecent returns entries newest first
	ListRecent(ctx context.Context, filter *JournalFilter) ([]*model.JournalEntry, error)

	// Prune removes entries recorded before olderThan
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// JournalFilter narrows a journal listing
type JournalFilter struct {
	Limit        int
	ConnectionID *uuid.UUID
	EventType    *model.EventType
}

// Journal listing bounds
const (
	DefaultJournalLimit = 50
	MaxJournalLimit     = 500
)

// EffectiveLimit clamps the requested limit into range
func (f *JournalFilter) EffectiveLimit() int {
	if f == nil || f.Limit <= 0 {
		return DefaultJournalLimit
	}
	if f.Limit > MaxJournalLimit {
		return MaxJournalLimit
	}
	return f.Limit
}

func (f *JournalFilter) matches(entry *model.JournalEntry) bool {
	if f == nil {
		return true
	}
	if f.ConnectionID != nil && (entry.ConnectionID == nil || *entry.ConnectionID != *f.ConnectionID) {
		return false
	}
	if f.EventType != nil && entry.EventType != *f.EventType {
		return false
	}
	return true
}
