package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)

	level, err = ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestConnectionLogger_LogTransfer(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewConnectionLogger(zap.New(core), "conn-1", "/dev/ttyUSB0", 9600)

	logger.LogTransfer("write", 4, 4, time.Millisecond, nil)
	logger.LogTransfer("read", 16, 0, time.Millisecond, errors.New("device disconnected"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)

	fields := entries[1].ContextMap()
	assert.Equal(t, "conn-1", fields["connection_id"])
	assert.Equal(t, "/dev/ttyUSB0", fields["port"])
}
