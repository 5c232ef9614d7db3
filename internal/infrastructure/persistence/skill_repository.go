package persistence

import (
	"context"

	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSkillRepository implements SkillRepository using GORM
type GormSkillRepository struct {
	db *gorm.DB
}

// NewGormSkillRepository creates a new GormSkillRepository
func NewGormSkillRepository(db *gorm.DB) *GormSkillRepository {
	return &GormSkillRepository{db: db}
}

// FindVisible lists a page of visible skills ordered by name
func (r *GormSkillRepository) FindVisible(ctx context.Context, page shared.Page) ([]*directory.Skill, int64, error) {
	page = page.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.SkillModel{}).
		Where("visible = ?", true).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.SkillModel
	if err := r.db.WithContext(ctx).
		Where("visible = ?", true).
		Order("name").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	skills := make([]*directory.Skill, len(ms))
	for i := range ms {
		skills[i] = ms[i].ToDomain()
	}
	return skills, total, nil
}

// Ensure GormSkillRepository implements SkillRepository
var _ directory.SkillRepository = (*GormSkillRepository)(nil)
