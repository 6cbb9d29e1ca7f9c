package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"serial-service/internal/model"
)

func receive(t *testing.T, ch <-chan model.ConnectionEvent) model.ConnectionEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return model.ConnectionEvent{}
	}
}

func TestEventBus_Distributes(t *testing.T) {
	bus := NewEventBus(10, zap.NewNop())
	all := bus.SubscribeAll()
	writes := bus.Subscribe(model.EventWriteCompleted)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Start(ctx)

	bus.Publish(model.NewConnectionEvent(model.EventConnectionOpened, "COM1", nil, nil))
	bus.Publish(model.NewConnectionEvent(model.EventWriteCompleted, "COM1", nil, nil))

	assert.Equal(t, model.EventConnectionOpened, receive(t, all).EventType)
	assert.Equal(t, model.EventWriteCompleted, receive(t, all).EventType)
	assert.Equal(t, model.EventWriteCompleted, receive(t, writes).EventType)

	select {
	case event := <-writes:
		t.Fatalf("unexpected event %s", event.EventType)
	default:
	}
}

func TestEventBus_PublishNeverBlocks(t *testing.T) {
	bus := NewEventBus(1, zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(model.NewConnectionEvent(model.EventReadCompleted, "COM1", nil, nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a running bus")
	}
}

func TestEventBus_StopClosesSubscribers(t *testing.T) {
	bus := NewEventBus(10, zap.NewNop())
	all := bus.SubscribeAll()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		bus.Start(ctx)
		close(stopped)
	}()

	cancel()
	<-stopped

	_, ok := <-all
	assert.False(t, ok)

	late := bus.Subscribe(model.EventConnectionClosed)
	_, ok = <-late
	assert.False(t, ok)
}
