package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormGroupRepository implements GroupRepository using GORM
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a new GormGroupRepository
func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

// withMemberCount selects group columns plus the number of active members
func (r *GormGroupRepository) withMemberCount(db *gorm.DB) *gorm.DB {
	counts := r.db.Model(&models.GroupMembershipModel{}).
		Select("COUNT(*)").
		Where("group_memberships.group_id = directory_groups.id AND group_memberships.status = ?", directory.MembershipMember)
	return db.Select("directory_groups.*, (?) AS member_count", counts)
}

func (r *GormGroupRepository) applyFilter(query *gorm.DB, filter directory.GroupFilter) *gorm.DB {
	query = query.Where("directory_groups.visible = ?", true)
	if filter.Name != "" {
		query = query.Where("directory_groups.name = ?", filter.Name)
	}
	if filter.FunctionalArea != nil {
		query = query.Where("directory_groups.functional_area = ?", *filter.FunctionalArea)
	}
	if filter.Curator != nil {
		query = query.Where("directory_groups.curator_id = ?", *filter.Curator)
	}
	if filter.MembersCanLeave != nil {
		query = query.Where("directory_groups.members_can_leave = ?", *filter.MembersCanLeave)
	}
	if filter.AcceptingNewMembers != "" {
		query = query.Where("directory_groups.accepting_new_members = ?", filter.AcceptingNewMembers)
	}
	return query
}

// FindVisible lists visible groups matching the filter with their member counts
func (r *GormGroupRepository) FindVisible(ctx context.Context, filter directory.GroupFilter) ([]*directory.Group, int64, error) {
	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.GroupModel{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()

	var ms []models.GroupModel
	query := r.applyFilter(r.withMemberCount(r.db.WithContext(ctx).Model(&models.GroupModel{})), filter)
	if err := query.
		Order(groupSort.orderBy(filter.SortBy, filter.SortOrder)).
		Order("directory_groups.id").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return toGroups(ms), total, nil
}

// FindVisibleByID loads a visible group with its member count
func (r *GormGroupRepository) FindVisibleByID(ctx context.Context, id uuid.UUID) (*directory.Group, error) {
	var m models.GroupModel
	if err := r.withMemberCount(r.db.WithContext(ctx).Model(&models.GroupModel{})).
		Where("directory_groups.id = ? AND directory_groups.visible = ?", id, true).
		Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByIDs loads the given groups, optionally only visible ones
func (r *GormGroupRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, visibleOnly bool) ([]*directory.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := r.withMemberCount(r.db.WithContext(ctx).Model(&models.GroupModel{})).
		Where("directory_groups.id IN ?", ids)
	if visibleOnly {
		query = query.Where("directory_groups.visible = ?", true)
	}
	var ms []models.GroupModel
	if err := query.Order("directory_groups.name").Find(&ms).Error; err != nil {
		return nil, err
	}
	return toGroups(ms), nil
}

// FindMembers lists the active members of a group whose group privacy
// is visible at level, ordered by username
func (r *GormGroupRepository) FindMembers(ctx context.Context, groupID uuid.UUID, level directory.PrivacyLevel) ([]directory.GroupMember, error) {
	var rows []struct {
		ProfileID     uuid.UUID
		Username      string
		PrivacyGroups directory.PrivacyLevel
	}
	if err := r.db.WithContext(ctx).
		Table("group_memberships").
		Select("profiles.id AS profile_id, profiles.username, profiles.privacy_groups").
		Joins("JOIN profiles ON profiles.id = group_memberships.profile_id").
		Where("group_memberships.group_id = ? AND group_memberships.status = ?", groupID, directory.MembershipMember).
		Where("profiles.privacy_groups <= ?", level).
		Order("profiles.username").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	members := make([]directory.GroupMember, len(rows))
	for i, row := range rows {
		members[i] = directory.GroupMember{
			ProfileID:     row.ProfileID,
			Username:      row.Username,
			PrivacyGroups: row.PrivacyGroups,
		}
	}
	return members, nil
}

// FindFunctionalAreas lists every functional-area group
func (r *GormGroupRepository) FindFunctionalAreas(ctx context.Context) ([]*directory.Group, error) {
	var ms []models.GroupModel
	if err := r.withMemberCount(r.db.WithContext(ctx).Model(&models.GroupModel{})).
		Where("directory_groups.functional_area = ?", true).
		Order("directory_groups.name").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toGroups(ms), nil
}

// Save creates or updates a group
func (r *GormGroupRepository) Save(ctx context.Context, group *directory.Group) error {
	m := &models.GroupModel{}
	m.FromDomain(group)
	return r.db.WithContext(ctx).Save(m).Error
}

// SaveMembership creates or updates a membership
func (r *GormGroupRepository) SaveMembership(ctx context.Context, membership directory.GroupMembership) error {
	m := &models.GroupMembershipModel{
		GroupID:   membership.GroupID,
		ProfileID: membership.ProfileID,
		Status:    membership.Status,
		UpdatedAt: membership.UpdatedAt,
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}, {Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(m).Error
}

func toGroups(ms []models.GroupModel) []*directory.Group {
	out := make([]*directory.Group, len(ms))
	for i := range ms {
		out[i] = ms[i].ToDomain()
	}
	return out
}

// Ensure GormGroupRepository implements GroupRepository
var _ directory.GroupRepository = (*GormGroupRepository)(nil)
