// internal/repository/memory_journal_repository.go
package repository

import (
	"context"
	"sync"
	"time"

	"serial-service/internal/model"
)

// memoryJournalRepository keeps the newest entries in a fixed size ring
type memoryJournalRepository struct {
	mu      sync.RWMutex
	entries []*model.JournalEntry
	next    int
	full    bool
}

// NewMemoryJournalRepository creates an in-process journal holding at most
// capacity entries
func NewMemoryJournalRepository(capacity int) JournalRepository {
	if capacity <= 0 {
		capacity = MaxJournalLimit
	}
	return &memoryJournalRepository{
		entries: make([]*model.JournalEntry, capacity),
	}
}

// Record stores an entry, evicting the oldest when full
func (r *memoryJournalRepository) Record(ctx context.Context, entry *model.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = entry
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// ListRecent walks the ring backwards from the newest entry
func (r *memoryJournalRepository) ListRecent(ctx context.Context, filter *JournalFilter) ([]*model.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.EffectiveLimit()
	result := []*model.JournalEntry{}

	for i := 0; i < r.size() && len(result) < limit; i++ {
		idx := (r.next - 1 - i + len(r.entries)) % len(r.entries)
		entry := r.entries[idx]
		if filter.matches(entry) {
			result = append(result, entry)
		}
	}

	return result, nil
}

// Prune drops entries older than the cutoff, keeping insertion order
func (r *memoryJournalRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]*model.JournalEntry, 0, r.size())
	for i := r.size(); i > 0; i-- {
		entry := r.entries[(r.next-i+len(r.entries))%len(r.entries)]
		if !entry.RecordedAt.Before(olderThan) {
			kept = append(kept, entry)
		}
	}

	removed := int64(r.size() - len(kept))

	capacity := len(r.entries)
	r.entries = make([]*model.JournalEntry, capacity)
	copy(r.entries, kept)
	r.next = len(kept) % capacity
	r.full = len(kept) == capacity

	return removed, nil
}

func (r *memoryJournalRepository) size() int {
	if r.full {
		return len(r.entries)
	}
	return r.next
}
