// Package maintenance holds periodic housekeeping tasks.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultMaxDays is how long an incomplete sign-up is kept
const DefaultMaxDays = 7

// Reaper removes sign-ups that never completed their profile
type Reaper struct {
	profiles  directory.ProfileRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewReaper creates a Reaper
func NewReaper(profiles directory.ProfileRepository, publisher shared.EventPublisher, logger *zap.Logger) *Reaper {
	return &Reaper{profiles: profiles, publisher: publisher, logger: logger, now: time.Now}
}

// RemoveIncompleteAccounts deletes profiles without a full name that
// joined more than days ago and publishes a deletion event for each, so
// their newsletter subscription and index entries are removed too.
func (r *Reaper) RemoveIncompleteAccounts(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		days = DefaultMaxDays
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "maintenance", "remove_incomplete_accounts")
	defer span.End()

	cutoff := r.now().AddDate(0, 0, -days)
	deleted, err := r.profiles.DeleteIncompleteJoinedBefore(ctx, cutoff)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to delete incomplete accounts: %w", err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrObjectCount, len(deleted))

	var events []shared.DomainEvent
	for _, p := range deleted {
		p.MarkDeleted()
		events = append(events, p.GetDomainEvents()...)
		p.ClearDomainEvents()
	}
	if len(events) > 0 {
		if err := r.publisher.Publish(ctx, events...); err != nil {
			r.logger.Error("Failed to publish deletion events",
				zap.Int("profiles", len(deleted)),
				zap.Error(err),
			)
		}
	}

	r.logger.Info("Incomplete accounts removed",
		zap.Int("count", len(deleted)),
		zap.Time("cutoff", cutoff),
	)
	return len(deleted), nil
}

// Fire returns a callback suitable for a daily trigger
func (r *Reaper) Fire(days int) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := r.RemoveIncompleteAccounts(ctx, days)
		return err
	}
}
