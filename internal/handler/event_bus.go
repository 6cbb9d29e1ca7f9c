// internal/handler/event_bus.go
package handler

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"serial-service/internal/model"
)

const (
	defaultEventBuffer = 1000
	subscriberBuffer   = 100
)

// EventBus fans connection events out to subscribers. Publish never blocks:
// when the queue is full the event is dropped and logged.
type EventBus struct {
	events      chan model.ConnectionEvent
	subscribers map[model.EventType][]chan model.ConnectionEvent
	all         []chan model.ConnectionEvent
	closed      bool
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(bufferSize int, logger *zap.Logger) *EventBus {
	if bufferSize <= 0 {
		bufferSize = defaultEventBuffer
	}

	return &EventBus{
		events:      make(chan model.ConnectionEvent, bufferSize),
		subscribers: make(map[model.EventType][]chan model.ConnectionEvent),
		logger:      logger.With(zap.String("component", "event-bus")),
	}
}

// Start distributes events until ctx is done, then closes every subscriber
// channel
func (eb *EventBus) Start(ctx context.Context) {
	defer eb.closeSubscribers()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eb.events:
			eb.distributeEvent(event)
		}
	}
}

// Publish queues an event for distribution
func (eb *EventBus) Publish(event model.ConnectionEvent) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
		)
	}
}

// Subscribe subscribes to events of a specific type
func (eb *EventBus) Subscribe(eventType model.EventType) <-chan model.ConnectionEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.ConnectionEvent, subscriberBuffer)
	if eb.closed {
		close(subscriber)
		return subscriber
	}

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
	return subscriber
}

// SubscribeAll subscribes to every event
func (eb *EventBus) SubscribeAll() <-chan model.ConnectionEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.ConnectionEvent, subscriberBuffer)
	if eb.closed {
		close(subscriber)
		return subscriber
	}

	eb.all = append(eb.all, subscriber)
	return subscriber
}

// distributeEvent distributes an event to subscribers, skipping slow ones
func (eb *EventBus) distributeEvent(event model.ConnectionEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	deliver := func(subscriber chan model.ConnectionEvent) {
		select {
		case subscriber <- event:
		default:
			eb.logger.Debug("Subscriber is slow, skipping event",
				zap.String("event_type", string(event.EventType)),
			)
		}
	}

	for _, subscriber := range eb.subscribers[event.EventType] {
		deliver(subscriber)
	}
	for _, subscriber := range eb.all {
		deliver(subscriber)
	}
}

func (eb *EventBus) closeSubscribers() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true

	for _, subscribers := range eb.subscribers {
		for _, subscriber := range subscribers {
			close(subscriber)
		}
	}
	for _, subscriber := range eb.all {
		close(subscriber)
	}
}
