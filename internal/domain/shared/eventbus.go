package shared

import "context"

// EventHandler reacts to domain events, typically by queueing a background
// job such as a newsletter sync or a reindex.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the events the handler wants; nil means all of them.
	EventTypes() []string
}

// EventPublisher is what services and the reaper need to announce changes
// to profiles and groups.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers handlers. With no types given, the handler's
// own EventTypes apply.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
}

// EventBus is an EventPublisher that can also be subscribed to, started and
// stopped with the process.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
