package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
)

// APIAppModel is the persistence model for a registered API consumer.
// Only the digest of the key is stored.
type APIAppModel struct {
	ID           uuid.UUID              `gorm:"type:uuid;primary_key"`
	Name         string                 `gorm:"type:varchar(100);not null"`
	KeyDigest    string                 `gorm:"type:char(64);not null;uniqueIndex"`
	PrivacyLevel directory.PrivacyLevel `gorm:"not null;default:1"`
	Enabled      bool                   `gorm:"not null;default:true"`
	CreatedAt    time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (APIAppModel) TableName() string {
	return "api_apps"
}

// ToDomain converts the persistence model to a domain APIApp.
func (m *APIAppModel) ToDomain() *directory.APIApp {
	return &directory.APIApp{
		ID:           m.ID,
		Name:         m.Name,
		KeyDigest:    m.KeyDigest,
		PrivacyLevel: m.PrivacyLevel,
		Enabled:      m.Enabled,
		CreatedAt:    m.CreatedAt,
	}
}

// APIAppModelFromDomain creates a new persistence model from a domain APIApp.
func APIAppModelFromDomain(a *directory.APIApp) *APIAppModel {
	return &APIAppModel{
		ID:           a.ID,
		Name:         a.Name,
		KeyDigest:    a.KeyDigest,
		PrivacyLevel: a.PrivacyLevel,
		Enabled:      a.Enabled,
		CreatedAt:    a.CreatedAt,
	}
}
