// Package event turns profile domain events into background jobs.
package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/application/indexing"
	"github.com/mozillians/backend/internal/application/newsletter"
	"github.com/mozillians/backend/internal/application/photo"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/config"
	infraevent "github.com/mozillians/backend/internal/infrastructure/event"
	"github.com/mozillians/backend/internal/infrastructure/scheduler"
	"github.com/mozillians/backend/internal/infrastructure/search"
	"go.uber.org/zap"
)

// JobSubmitter enqueues background jobs
type JobSubmitter interface {
	Submit(job *scheduler.Job) error
}

func unexpected(logger *zap.Logger, expected string, event shared.DomainEvent) error {
	logger.Error("unexpected event type",
		zap.String("expected", expected),
		zap.String("actual", event.EventType()),
	)
	return fmt.Errorf("unexpected event type: expected %s, got %s", expected, event.EventType())
}

func submitAll(jobs JobSubmitter, batch ...*scheduler.Job) error {
	var errs []error
	for _, job := range batch {
		if err := jobs.Submit(job); err != nil {
			errs = append(errs, fmt.Errorf("submit %s: %w", job.Kind, err))
		}
	}
	return errors.Join(errs...)
}

// ProfileSavedHandler refreshes the newsletter subscription and the
// search indexes of a saved profile
type ProfileSavedHandler struct {
	jobs   JobSubmitter
	basket config.BasketConfig
	logger *zap.Logger
}

// NewProfileSavedHandler creates a ProfileSavedHandler
func NewProfileSavedHandler(jobs JobSubmitter, basket config.BasketConfig, logger *zap.Logger) *ProfileSavedHandler {
	return &ProfileSavedHandler{jobs: jobs, basket: basket, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ProfileSavedHandler) EventTypes() []string {
	return []string{directory.EventTypeProfileSaved}
}

// Handle processes a ProfileSavedEvent. Profiles that are no longer
// public are removed from the public index.
func (h *ProfileSavedHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	saved, ok := event.(*directory.ProfileSavedEvent)
	if !ok {
		return unexpected(h.logger, directory.EventTypeProfileSaved, event)
	}
	ids := []uuid.UUID{saved.AggregateID()}

	batch := []*scheduler.Job{indexing.NewIndexJob(search.MappingProfile, ids, false)}
	if saved.IsPublic {
		batch = append(batch, indexing.NewIndexJob(search.MappingProfile, ids, true))
	} else {
		batch = append(batch, indexing.NewUnindexJob(search.MappingProfile, ids, true))
	}
	if h.basket.Enabled() {
		batch = append(batch, newsletter.NewSyncJob(h.basket, saved.AggregateID()))
	}

	h.logger.Debug("profile saved",
		zap.String("profile_id", saved.AggregateID().String()),
		zap.Bool("is_public", saved.IsPublic),
		zap.Int("jobs", len(batch)),
	)
	return submitAll(h.jobs, batch...)
}

// ProfileDeletedHandler unsubscribes a removed profile and drops it from
// both indexes
type ProfileDeletedHandler struct {
	jobs   JobSubmitter
	basket config.BasketConfig
	logger *zap.Logger
}

// NewProfileDeletedHandler creates a ProfileDeletedHandler
func NewProfileDeletedHandler(jobs JobSubmitter, basket config.BasketConfig, logger *zap.Logger) *ProfileDeletedHandler {
	return &ProfileDeletedHandler{jobs: jobs, basket: basket, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ProfileDeletedHandler) EventTypes() []string {
	return []string{directory.EventTypeProfileDeleted}
}

// Handle processes a ProfileDeletedEvent
func (h *ProfileDeletedHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	deleted, ok := event.(*directory.ProfileDeletedEvent)
	if !ok {
		return unexpected(h.logger, directory.EventTypeProfileDeleted, event)
	}
	ids := []uuid.UUID{deleted.AggregateID()}

	batch := []*scheduler.Job{
		indexing.NewUnindexJob(search.MappingProfile, ids, false),
		indexing.NewUnindexJob(search.MappingProfile, ids, true),
	}
	if h.basket.Enabled() && deleted.Email != "" {
		batch = append(batch, newsletter.NewUnsubscribeJob(h.basket, deleted.Email, deleted.BasketToken))
	}

	h.logger.Info("profile deleted",
		zap.String("profile_id", deleted.AggregateID().String()),
		zap.String("username", deleted.Username),
	)
	return submitAll(h.jobs, batch...)
}

// PhotoChangedHandler schedules thumbnail rendering for new photos
type PhotoChangedHandler struct {
	jobs   JobSubmitter
	logger *zap.Logger
}

// NewPhotoChangedHandler creates a PhotoChangedHandler
func NewPhotoChangedHandler(jobs JobSubmitter, logger *zap.Logger) *PhotoChangedHandler {
	return &PhotoChangedHandler{jobs: jobs, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PhotoChangedHandler) EventTypes() []string {
	return []string{directory.EventTypeProfilePhotoChanged}
}

// Handle processes a ProfilePhotoChangedEvent
func (h *PhotoChangedHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*directory.ProfilePhotoChangedEvent)
	if !ok {
		return unexpected(h.logger, directory.EventTypeProfilePhotoChanged, event)
	}
	if changed.PhotoKey == "" {
		return nil
	}
	return submitAll(h.jobs, photo.NewThumbnailJob(changed.PhotoKey))
}

// Register subscribes every job-producing handler to bus. With a non-nil
// dedup store each event enqueues its jobs at most once.
func Register(bus shared.EventSubscriber, jobs JobSubmitter, basket config.BasketConfig, dedup infraevent.Deduplicator, logger *zap.Logger) {
	handlers := []shared.EventHandler{
		NewProfileSavedHandler(jobs, basket, logger),
		NewProfileDeletedHandler(jobs, basket, logger),
		NewPhotoChangedHandler(jobs, logger),
	}
	for _, h := range handlers {
		if dedup != nil {
			h = infraevent.NewDedupHandler(h, dedup, infraevent.DefaultDedupTTL, logger)
		}
		bus.Subscribe(h)
	}
}
