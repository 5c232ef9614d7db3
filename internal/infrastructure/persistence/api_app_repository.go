package persistence

import (
	"context"
	"errors"

	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAPIAppRepository implements APIAppRepository using GORM
type GormAPIAppRepository struct {
	db *gorm.DB
}

// NewGormAPIAppRepository creates a new GormAPIAppRepository
func NewGormAPIAppRepository(db *gorm.DB) *GormAPIAppRepository {
	return &GormAPIAppRepository{db: db}
}

// FindByKeyDigest finds an enabled app by the digest of its key
func (r *GormAPIAppRepository) FindByKeyDigest(ctx context.Context, digest string) (*directory.APIApp, error) {
	var m models.APIAppModel
	if err := r.db.WithContext(ctx).
		Where("key_digest = ? AND enabled = ?", digest, true).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// Save creates or updates an app
func (r *GormAPIAppRepository) Save(ctx context.Context, app *directory.APIApp) error {
	return r.db.WithContext(ctx).Save(models.APIAppModelFromDomain(app)).Error
}

// Ensure GormAPIAppRepository implements APIAppRepository
var _ directory.APIAppRepository = (*GormAPIAppRepository)(nil)
