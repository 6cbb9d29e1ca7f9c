package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionEvent_Severity(t *testing.T) {
	id := uuid.New()

	opened := NewConnectionEvent(EventConnectionOpened, "COM1", &id, nil)
	assert.Equal(t, SeverityInfo, opened.Severity)
	assert.False(t, opened.IsFailure())
	assert.Equal(t, &id, opened.ConnectionID)

	assert.Equal(t, SeverityWarning, NewConnectionEvent(EventConnectionReplaced, "COM1", &id, nil).Severity)

	for _, eventType := range []EventType{EventConnectionFailed, EventWriteFailed, EventReadFailed} {
		event := NewConnectionEvent(eventType, "COM1", nil, nil)
		assert.True(t, event.IsFailure(), eventType)
	}
}

func TestNewJournalEntry(t *testing.T) {
	event := NewConnectionEvent(EventWriteCompleted, "/dev/ttyUSB0", nil, JSONObject{"bytes_written": 4})
	entry := NewJournalEntry(event)

	assert.Equal(t, event.ID, entry.ID)
	assert.Equal(t, event.Timestamp, entry.RecordedAt)
	assert.Equal(t, event.Data, entry.Data)
}

func TestJSONObject_ScanValue(t *testing.T) {
	value, err := JSONObject{"reason": "closed"}.Value()
	require.NoError(t, err)

	var scanned JSONObject
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, "closed", scanned["reason"])

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	assert.Error(t, scanned.Scan(42))

	value, err = JSONObject(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}
