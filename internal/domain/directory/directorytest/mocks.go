// Package directorytest provides testify mocks of the directory repositories.
package directorytest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

var _ directory.ProfileRepository = (*MockProfileRepository)(nil)

func (m *MockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*directory.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, publicOnly bool) ([]*directory.Profile, error) {
	args := m.Called(ctx, ids, publicOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*directory.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindInScope(ctx context.Context, scope directory.ProfileScope, filter directory.ProfileFilter) ([]*directory.Profile, int64, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*directory.Profile), args.Get(1).(int64), args.Error(2)
}

func (m *MockProfileRepository) FindInScopeByID(ctx context.Context, scope directory.ProfileScope, id uuid.UUID) (*directory.Profile, error) {
	args := m.Called(ctx, scope, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindMatching(ctx context.Context, scope directory.ProfileScope, criteria directory.LookupCriteria, limit int) ([]*directory.Profile, error) {
	args := m.Called(ctx, scope, criteria, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*directory.Profile), args.Error(1)
}

func (m *MockProfileRepository) Save(ctx context.Context, profile *directory.Profile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockProfileRepository) UpdateBasketToken(ctx context.Context, id uuid.UUID, token string) error {
	return m.Called(ctx, id, token).Error(0)
}

func (m *MockProfileRepository) DeleteIncompleteJoinedBefore(ctx context.Context, cutoff time.Time) ([]*directory.Profile, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*directory.Profile), args.Error(1)
}

func (m *MockProfileRepository) ActiveGroupIDs(ctx context.Context, profileID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockProfileRepository) LanguageCodes(ctx context.Context, page shared.Page) ([]string, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]string), args.Get(1).(int64), args.Error(2)
}

// MockGroupRepository is a mock implementation of GroupRepository
type MockGroupRepository struct {
	mock.Mock
}

var _ directory.GroupRepository = (*MockGroupRepository)(nil)

func (m *MockGroupRepository) FindVisible(ctx context.Context, filter directory.GroupFilter) ([]*directory.Group, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*directory.Group), args.Get(1).(int64), args.Error(2)
}

func (m *MockGroupRepository) FindVisibleByID(ctx context.Context, id uuid.UUID) (*directory.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Group), args.Error(1)
}

func (m *MockGroupRepository) FindByIDs(ctx context.Context, ids []uuid.UUID, visibleOnly bool) ([]*directory.Group, error) {
	args := m.Called(ctx, ids, visibleOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*directory.Group), args.Error(1)
}

func (m *MockGroupRepository) FindMembers(ctx context.Context, groupID uuid.UUID, level directory.PrivacyLevel) ([]directory.GroupMember, error) {
	args := m.Called(ctx, groupID, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]directory.GroupMember), args.Error(1)
}

func (m *MockGroupRepository) FindFunctionalAreas(ctx context.Context) ([]*directory.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*directory.Group), args.Error(1)
}

func (m *MockGroupRepository) Save(ctx context.Context, group *directory.Group) error {
	return m.Called(ctx, group).Error(0)
}

func (m *MockGroupRepository) SaveMembership(ctx context.Context, ms directory.GroupMembership) error {
	return m.Called(ctx, ms).Error(0)
}

// MockSkillRepository is a mock implementation of SkillRepository
type MockSkillRepository struct {
	mock.Mock
}

var _ directory.SkillRepository = (*MockSkillRepository)(nil)

func (m *MockSkillRepository) FindVisible(ctx context.Context, page shared.Page) ([]*directory.Skill, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*directory.Skill), args.Get(1).(int64), args.Error(2)
}

// MockAPIAppRepository is a mock implementation of APIAppRepository
type MockAPIAppRepository struct {
	mock.Mock
}

var _ directory.APIAppRepository = (*MockAPIAppRepository)(nil)

func (m *MockAPIAppRepository) FindByKeyDigest(ctx context.Context, digest string) (*directory.APIApp, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.APIApp), args.Error(1)
}

func (m *MockAPIAppRepository) Save(ctx context.Context, app *directory.APIApp) error {
	return m.Called(ctx, app).Error(0)
}

// NewCompleteProfile returns a saved-looking complete profile with default privacy
func NewCompleteProfile(username string) *directory.Profile {
	p, err := directory.NewProfile(username, username+"@example.com")
	if err != nil {
		panic(err)
	}
	if err := p.SetFullName("Full " + username); err != nil {
		panic(err)
	}
	p.ClearDomainEvents()
	return p
}
