package models

import (
	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
)

// SkillModel is the persistence model for a skill.
type SkillModel struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	Name    string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Visible bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (SkillModel) TableName() string {
	return "skills"
}

// ToDomain converts the persistence model to a domain Skill.
func (m *SkillModel) ToDomain() *directory.Skill {
	return &directory.Skill{ID: m.ID, Name: m.Name, Visible: m.Visible}
}
