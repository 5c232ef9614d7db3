package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, directory.AggregateTypeProfile, uuid.New())}
}

type testHandler struct {
	eventTypes []string
	err        error
	panicWith  any

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func startedBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	return bus
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := startedBus(t)
	handler := newTestHandler(directory.EventTypeProfileSaved)
	bus.Subscribe(handler)

	event := newTestEvent(directory.EventTypeProfileSaved)
	require.NoError(t, bus.Publish(context.Background(), event))

	handled := handler.getHandled()
	require.Len(t, handled, 1)
	assert.Equal(t, event, handled[0])
}

func TestInMemoryEventBus_PublishRoutesByType(t *testing.T) {
	bus := startedBus(t)
	saved := newTestHandler(directory.EventTypeProfileSaved)
	deleted := newTestHandler(directory.EventTypeProfileDeleted)
	all := newTestHandler()
	bus.Subscribe(saved)
	bus.Subscribe(deleted)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent(directory.EventTypeProfileSaved),
		newTestEvent(directory.EventTypeProfileDeleted),
		newTestEvent(directory.EventTypeProfileDeleted),
	))

	assert.Len(t, saved.getHandled(), 1)
	assert.Len(t, deleted.getHandled(), 2)
	assert.Len(t, all.getHandled(), 3)
}

func TestInMemoryEventBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := startedBus(t)
	failing := newTestHandler("X")
	failing.err = errors.New("queue full")
	panicking := newTestHandler("X")
	panicking.panicWith = "boom"
	healthy := newTestHandler("X")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("X"))

	require.Error(t, err)
	assert.ErrorIs(t, err, failing.err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Len(t, healthy.getHandled(), 1)
}

func TestInMemoryEventBus_StoppedBusRejectsPublish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("X")
	bus.Subscribe(handler)

	assert.ErrorIs(t, bus.Publish(context.Background(), newTestEvent("X")), ErrBusNotRunning)

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("X")))
	require.NoError(t, bus.Stop(context.Background()))
	assert.ErrorIs(t, bus.Publish(context.Background(), newTestEvent("X")), ErrBusNotRunning)
	assert.Len(t, handler.getHandled(), 1)
}
