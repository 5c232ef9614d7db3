package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ProfileWriter persists profiles and publishes the events their changes
// raised. Subscribers turn those events into background tasks.
type ProfileWriter struct {
	profiles  directory.ProfileRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewProfileWriter creates a ProfileWriter
func NewProfileWriter(profiles directory.ProfileRepository, publisher shared.EventPublisher, logger *zap.Logger) *ProfileWriter {
	return &ProfileWriter{profiles: profiles, publisher: publisher, logger: logger}
}

// Save stores p and publishes its pending events. Publish failures are
// logged and never undo the save.
func (w *ProfileWriter) Save(ctx context.Context, p *directory.Profile) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "directory", "save_profile",
		telemetry.WithAttribute(telemetry.SpanAttrProfileID, p.ID.String()))
	defer span.End()

	p.PrepareSave()
	if err := w.profiles.Save(ctx, p); err != nil {
		telemetry.RecordError(span, err)
		p.ClearDomainEvents()
		return fmt.Errorf("failed to save profile %s: %w", p.ID, err)
	}

	events := p.GetDomainEvents()
	p.ClearDomainEvents()
	if err := w.publisher.Publish(ctx, events...); err != nil {
		w.logger.Error("Failed to publish profile events",
			zap.String("profile_id", p.ID.String()),
			zap.Int("events", len(events)),
			zap.Error(err),
		)
	}
	return nil
}

// Resave loads the profile with id and saves it unchanged, which replays
// newsletter sync and indexing for it.
func (w *ProfileWriter) Resave(ctx context.Context, id uuid.UUID) error {
	p, err := w.profiles.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return w.Save(ctx, p)
}
