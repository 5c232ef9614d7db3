package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mozillians/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Deduplicator remembers keys for a while. MarkProcessed returns true the
// first time a key is seen within ttl.
type Deduplicator interface {
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// DefaultDedupTTL is how long an event id is remembered
const DefaultDedupTTL = 24 * time.Hour

// DedupStats is a snapshot of a DedupHandler's counters
type DedupStats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// DedupHandler drops redelivered events so a task is enqueued once per event
type DedupHandler struct {
	handler shared.EventHandler
	store   Deduplicator
	ttl     time.Duration
	logger  *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// NewDedupHandler wraps handler. A non-positive ttl uses DefaultDedupTTL.
func NewDedupHandler(handler shared.EventHandler, store Deduplicator, ttl time.Duration, logger *zap.Logger) *DedupHandler {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &DedupHandler{handler: handler, store: store, ttl: ttl, logger: logger}
}

// EventTypes returns the wrapped handler's event types
func (h *DedupHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle forwards the event unless its id was already seen.
// When the store fails the event is forwarded anyway.
func (h *DedupHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := event.EventType() + ":" + event.EventID().String()

	isNew, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		h.logger.Warn("Dedup store unavailable, handling event anyway",
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
	case !isNew:
		h.duplicates.Add(1)
		h.logger.Debug("Duplicate event skipped",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns the current counters
func (h *DedupHandler) Stats() DedupStats {
	return DedupStats{
		Processed:  h.processed.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

var _ shared.EventHandler = (*DedupHandler)(nil)
