package mocks

import (
	"context"
	"sync"
)

// EmittedEvent is one call recorded by MockRealtimeEmitter.
type EmittedEvent struct {
	Channel string
	Event   string
	Payload any
}

// MockRealtimeEmitter implements realtime.Emitter for testing
type MockRealtimeEmitter struct {
	EmitFn func(ctx context.Context, channel, event string, payload any) error

	mu     sync.Mutex
	Events []EmittedEvent
}

// Emit implements realtime.Emitter
func (m *MockRealtimeEmitter) Emit(ctx context.Context, channel, event string, payload any) error {
	m.mu.Lock()
	m.Events = append(m.Events, EmittedEvent{Channel: channel, Event: event, Payload: payload})
	m.mu.Unlock()

	if m.EmitFn != nil {
		return m.EmitFn(ctx, channel, event, payload)
	}
	return nil
}

// Emitted returns a copy of the recorded events.
func (m *MockRealtimeEmitter) Emitted() []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmittedEvent(nil), m.Events...)
}
