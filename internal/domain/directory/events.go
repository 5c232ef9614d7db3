package directory

import (
	"github.com/mozillians/backend/internal/domain/shared"
)

// AggregateTypeProfile is the aggregate type of profile events
const AggregateTypeProfile = "Profile"

// Profile domain event types
const (
	EventTypeProfileSaved        = "ProfileSaved"
	EventTypeProfilePhotoChanged = "ProfilePhotoChanged"
	EventTypeProfileDeleted      = "ProfileDeleted"
)

// ProfileSavedEvent is published after a profile was persisted
type ProfileSavedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	Email    string `json:"email"`
	IsPublic bool   `json:"is_public"`
}

// NewProfileSavedEvent creates a new ProfileSavedEvent
func NewProfileSavedEvent(p *Profile) *ProfileSavedEvent {
	return &ProfileSavedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProfileSaved, AggregateTypeProfile, p.ID),
		Username:        p.Username,
		Email:           p.Email,
		IsPublic:        p.IsPublic,
	}
}

// ProfilePhotoChangedEvent is published when a new photo was uploaded
type ProfilePhotoChangedEvent struct {
	shared.BaseDomainEvent
	PhotoKey string `json:"photo_key"`
}

// NewProfilePhotoChangedEvent creates a new ProfilePhotoChangedEvent
func NewProfilePhotoChangedEvent(p *Profile) *ProfilePhotoChangedEvent {
	return &ProfilePhotoChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProfilePhotoChanged, AggregateTypeProfile, p.ID),
		PhotoKey:        p.Photo,
	}
}

// ProfileDeletedEvent is published after a profile row was removed
type ProfileDeletedEvent struct {
	shared.BaseDomainEvent
	Username    string `json:"username"`
	Email       string `json:"email"`
	BasketToken string `json:"basket_token"`
}

// NewProfileDeletedEvent creates a new ProfileDeletedEvent
func NewProfileDeletedEvent(p *Profile) *ProfileDeletedEvent {
	return &ProfileDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProfileDeleted, AggregateTypeProfile, p.ID),
		Username:        p.Username,
		Email:           p.Email,
		BasketToken:     p.BasketToken,
	}
}
