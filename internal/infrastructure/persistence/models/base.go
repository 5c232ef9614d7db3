package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/shared"
)

// Row holds the key and timestamps shared by the profile and group tables.
type Row struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func rowOf(e shared.BaseEntity) Row {
	return Row(e)
}

func (r Row) entity() shared.BaseEntity {
	return shared.BaseEntity(r)
}
