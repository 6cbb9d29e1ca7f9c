package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serial-service/internal/model"
)

func newEntry(eventType model.EventType, connectionID *uuid.UUID, at time.Time) *model.JournalEntry {
	entry := model.NewJournalEntry(model.NewConnectionEvent(eventType, "/dev/ttyUSB0", connectionID, nil))
	entry.RecordedAt = at
	return entry
}

func TestMemoryJournal_ListRecentNewestFirst(t *testing.T) {
	repo := NewMemoryJournalRepository(10)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Record(ctx, newEntry(model.EventWriteCompleted, nil, base.Add(time.Duration(i)*time.Second))))
	}

	entries, err := repo.ListRecent(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].RecordedAt.After(entries[1].RecordedAt))
	assert.True(t, entries[1].RecordedAt.After(entries[2].RecordedAt))
}

func TestMemoryJournal_EvictsOldest(t *testing.T) {
	repo := NewMemoryJournalRepository(3)
	ctx := context.Background()
	base := time.Now()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		entry := newEntry(model.EventReadCompleted, nil, base.Add(time.Duration(i)*time.Second))
		ids = append(ids, entry.ID)
		require.NoError(t, repo.Record(ctx, entry))
	}

	entries, err := repo.ListRecent(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ids[4], entries[0].ID)
	assert.Equal(t, ids[3], entries[1].ID)
	assert.Equal(t, ids[2], entries[2].ID)
}

func TestMemoryJournal_Filter(t *testing.T) {
	repo := NewMemoryJournalRepository(10)
	ctx := context.Background()
	now := time.Now()

	first, second := uuid.New(), uuid.New()
	require.NoError(t, repo.Record(ctx, newEntry(model.EventConnectionOpened, &first, now)))
	require.NoError(t, repo.Record(ctx, newEntry(model.EventWriteCompleted, &first, now)))
	require.NoError(t, repo.Record(ctx, newEntry(model.EventConnectionOpened, &second, now)))
	require.NoError(t, repo.Record(ctx, newEntry(model.EventConnectionFailed, nil, now)))

	entries, err := repo.ListRecent(ctx, &JournalFilter{ConnectionID: &first})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	opened := model.EventConnectionOpened
	entries, err = repo.ListRecent(ctx, &JournalFilter{EventType: &opened})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = repo.ListRecent(ctx, &JournalFilter{EventType: &opened, ConnectionID: &second})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second, *entries[0].ConnectionID)

	entries, err = repo.ListRecent(ctx, &JournalFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.EventConnectionFailed, entries[0].EventType)
}

func TestMemoryJournal_Prune(t *testing.T) {
	repo := NewMemoryJournalRepository(4)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 6; i++ {
		at := now.Add(-time.Duration(6-i) * time.Hour)
		require.NoError(t, repo.Record(ctx, newEntry(model.EventWriteCompleted, nil, at)))
	}

	removed, err := repo.Prune(ctx, now.Add(-150*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	entries, err := repo.ListRecent(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].RecordedAt.After(entries[1].RecordedAt))

	require.NoError(t, repo.Record(ctx, newEntry(model.EventReadCompleted, nil, now)))
	entries, err = repo.ListRecent(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, model.EventReadCompleted, entries[0].EventType)
}

func TestJournalFilter_EffectiveLimit(t *testing.T) {
	var nilFilter *JournalFilter
	assert.Equal(t, DefaultJournalLimit, nilFilter.EffectiveLimit())
	assert.Equal(t, DefaultJournalLimit, (&JournalFilter{Limit: -1}).EffectiveLimit())
	assert.Equal(t, 20, (&JournalFilter{Limit: 20}).EffectiveLimit())
	assert.Equal(t, MaxJournalLimit, (&JournalFilter{Limit: 10000}).EffectiveLimit())
}
