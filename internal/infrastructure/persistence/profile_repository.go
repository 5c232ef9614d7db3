package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProfileRepository implements ProfileRepository using GORM
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Country").
		Preload("Region").
		Preload("City").
		Preload("ExternalAccounts", func(db *gorm.DB) *gorm.DB { return db.Order("type, identifier") }).
		Preload("Languages", func(db *gorm.DB) *gorm.DB { return db.Order("code") })
}

func applyScope(db *gorm.DB, scope directory.ProfileScope) *gorm.DB {
	db = db.Where("profiles.full_name <> ?", "")
	if scope.PublicOnly {
		db = db.Where("profiles.is_public = ?", true)
	}
	return db
}

func toProfiles(ms []models.ProfileModel) []*directory.Profile {
	out := make([]*directory.Profile, len(ms))
	for i := range ms {
		out[i] = ms[i].ToDomain()
	}
	return out
}

// FindByID finds a profile by its ID regardless of scope
func (r *GormProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*directory.Profile, error) {
	var m models.ProfileModel
	if err := r.preload(r.db.WithContext(ctx)).First(&m, "profiles.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByIDs loads the given profiles, optionally only public ones
func (r *GormProfileRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, publicOnly bool) ([]*directory.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx).Where("profiles.id IN ?", ids)
	if publicOnly {
		query = query.Where("profiles.is_public = ?", true)
	}
	var ms []models.ProfileModel
	if err := r.preload(query).Order("profiles.username").Find(&ms).Error; err != nil {
		return nil, err
	}
	return toProfiles(ms), nil
}

// FindInScope lists the profiles visible within scope matching the filter
func (r *GormProfileRepository) FindInScope(ctx context.Context, scope directory.ProfileScope, filter directory.ProfileFilter) ([]*directory.Profile, int64, error) {
	listQuery := func() *gorm.DB {
		return r.applyFilter(applyScope(r.db.WithContext(ctx).Model(&models.ProfileModel{}), scope), filter)
	}

	var total int64
	if err := listQuery().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()

	var ms []models.ProfileModel
	if err := r.preload(listQuery()).
		Order(profileSort.orderBy(filter.SortBy, filter.SortOrder)).
		Order("profiles.id").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return toProfiles(ms), total, nil
}

func (r *GormProfileRepository) applyFilter(query *gorm.DB, filter directory.ProfileFilter) *gorm.DB {
	if filter.IsVouched != nil {
		query = query.Where("profiles.is_vouched = ?", *filter.IsVouched)
	}
	if filter.VouchedBy != nil {
		query = query.Where("profiles.vouched_by_id = ?", *filter.VouchedBy)
	}
	if filter.City != "" {
		query = query.Where("profiles.geo_city_id IN (?)",
			r.db.Model(&models.CityModel{}).Select("id").Where("LOWER(name) = ?", strings.ToLower(filter.City)))
	}
	if filter.Region != "" {
		query = query.Where("profiles.geo_region_id IN (?)",
			r.db.Model(&models.RegionModel{}).Select("id").Where("LOWER(name) = ?", strings.ToLower(filter.Region)))
	}
	if filter.Country != "" {
		query = query.Where("profiles.geo_country_id IN (?)",
			r.db.Model(&models.CountryModel{}).Select("id").Where("LOWER(name) = ?", strings.ToLower(filter.Country)))
	}
	if filter.CountryCode != "" {
		query = query.Where("profiles.geo_country_id IN (?)",
			r.db.Model(&models.CountryModel{}).Select("id").Where("LOWER(code) = ?", strings.ToLower(filter.CountryCode)))
	}
	if filter.Timezone != "" {
		query = query.Where("profiles.timezone = ?", filter.Timezone)
	}
	if filter.Tshirt != nil {
		query = query.Where("profiles.tshirt = ?", *filter.Tshirt)
	}
	return query
}

// FindInScopeByID loads one profile if it is visible within scope
func (r *GormProfileRepository) FindInScopeByID(ctx context.Context, scope directory.ProfileScope, id uuid.UUID) (*directory.Profile, error) {
	var m models.ProfileModel
	query := applyScope(r.db.WithContext(ctx), scope).Where("profiles.id = ?", id)
	if err := r.preload(query).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindMatching returns up to limit profiles in scope matching the criteria.
// Email and account matches only consider attributes visible at the
// criteria level.
func (r *GormProfileRepository) FindMatching(ctx context.Context, scope directory.ProfileScope, criteria directory.LookupCriteria, limit int) ([]*directory.Profile, error) {
	query := applyScope(r.db.WithContext(ctx).Model(&models.ProfileModel{}), scope)

	switch criteria.Field {
	case directory.LookupUsername:
		query = query.Where("profiles.username = ?", criteria.Value)
	case directory.LookupEmail:
		query = query.Where("profiles.email = ? AND profiles.privacy_email <= ?", criteria.Value, criteria.Level)
	case directory.LookupAccount:
		query = query.Where("profiles.id IN (?)",
			r.db.Model(&models.ExternalAccountModel{}).
				Select("profile_id").
				Where("type = ? AND identifier = ? AND privacy <= ?", criteria.AccountType, criteria.Value, criteria.Level))
	default:
		return nil, shared.ErrInvalidParameter
	}

	var ms []models.ProfileModel
	if err := r.preload(query).Order("profiles.username").Limit(limit).Find(&ms).Error; err != nil {
		return nil, err
	}
	return toProfiles(ms), nil
}

// Save creates or updates a profile and replaces its accounts and languages
func (r *GormProfileRepository) Save(ctx context.Context, profile *directory.Profile) error {
	m := models.ProfileModelFromDomain(profile)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return err
		}
		if err := tx.Where("profile_id = ?", m.ID).Delete(&models.ExternalAccountModel{}).Error; err != nil {
			return err
		}
		if len(m.ExternalAccounts) > 0 {
			if err := tx.Create(&m.ExternalAccounts).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("profile_id = ?", m.ID).Delete(&models.LanguageModel{}).Error; err != nil {
			return err
		}
		if len(m.Languages) > 0 {
			if err := tx.Create(&m.Languages).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateBasketToken writes the newsletter token column only.
// It skips hooks and timestamps so the write does not count as a profile save.
func (r *GormProfileRepository) UpdateBasketToken(ctx context.Context, id uuid.UUID, token string) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProfileModel{}).
		Where("id = ?", id).
		UpdateColumn("basket_token", token)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteIncompleteJoinedBefore removes incomplete profiles that joined
// strictly before cutoff, together with their dependent rows
func (r *GormProfileRepository) DeleteIncompleteJoinedBefore(ctx context.Context, cutoff time.Time) ([]*directory.Profile, error) {
	var ms []models.ProfileModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("full_name = ? AND date_joined < ?", "", cutoff).
			Order("date_joined").
			Find(&ms).Error; err != nil {
			return err
		}
		if len(ms) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, len(ms))
		for i := range ms {
			ids[i] = ms[i].ID
		}
		for _, dependent := range []any{
			&models.ExternalAccountModel{},
			&models.LanguageModel{},
			&models.GroupMembershipModel{},
		} {
			if err := tx.Where("profile_id IN ?", ids).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Where("id IN ?", ids).Delete(&models.ProfileModel{}).Error
	})
	if err != nil {
		return nil, err
	}
	return toProfiles(ms), nil
}

// ActiveGroupIDs returns the groups in which the profile is an active member
func (r *GormProfileRepository) ActiveGroupIDs(ctx context.Context, profileID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.GroupMembershipModel{}).
		Where("profile_id = ? AND status = ?", profileID, directory.MembershipMember).
		Pluck("group_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// LanguageCodes returns a page of the distinct language codes in use
func (r *GormProfileRepository) LanguageCodes(ctx context.Context, page shared.Page) ([]string, int64, error) {
	page = page.Normalize()
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.LanguageModel{}).
		Distinct("code").
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&models.LanguageModel{}).
		Distinct("code").
		Order("code").
		Offset(page.Offset).
		Limit(page.Limit).
		Pluck("code", &codes).Error; err != nil {
		return nil, 0, err
	}
	return codes, total, nil
}

// Ensure GormProfileRepository implements ProfileRepository
var _ directory.ProfileRepository = (*GormProfileRepository)(nil)
