package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// GroupDetail is a visible group with the members the requester may see
type GroupDetail struct {
	Group   *directory.Group
	Members []directory.GroupMember
}

// ReadModel answers privacy-scoped queries over profiles, groups, skills
// and languages.
type ReadModel struct {
	profiles directory.ProfileRepository
	groups   directory.GroupRepository
	skills   directory.SkillRepository
	logger   *zap.Logger
}

// NewReadModel creates a ReadModel
func NewReadModel(
	profiles directory.ProfileRepository,
	groups directory.GroupRepository,
	skills directory.SkillRepository,
	logger *zap.Logger,
) *ReadModel {
	return &ReadModel{profiles: profiles, groups: groups, skills: skills, logger: logger}
}

// ListProfiles lists complete profiles visible at level. Anonymous
// requesters only see profiles flagged public.
func (s *ReadModel) ListProfiles(ctx context.Context, level directory.PrivacyLevel, filter directory.ProfileFilter) (shared.Paginated[*directory.Profile], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "directory", "list_profiles",
		telemetry.WithAttribute(telemetry.SpanAttrPrivacyLevel, level.Label()))
	defer span.End()

	if err := checkLevel(level); err != nil {
		return shared.Paginated[*directory.Profile]{}, err
	}
	filter.Page = filter.Page.Normalize()
	profiles, total, err := s.profiles.FindInScope(ctx, directory.ListScope(level), filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[*directory.Profile]{}, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrObjectCount, len(profiles))
	return shared.NewPaginated(profiles, total, filter.Page.PageNumber(), filter.Page.Limit), nil
}

// GetProfile loads one profile with list scoping
func (s *ReadModel) GetProfile(ctx context.Context, level directory.PrivacyLevel, id uuid.UUID) (*directory.Profile, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "directory", "get_profile",
		telemetry.WithAttribute(telemetry.SpanAttrProfileID, id.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPrivacyLevel, level.Label()))
	defer span.End()

	if err := checkLevel(level); err != nil {
		return nil, err
	}
	p, err := s.profiles.FindInScopeByID(ctx, directory.ListScope(level), id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}
	return p, nil
}

// ListGroups lists visible groups with their member counts
func (s *ReadModel) ListGroups(ctx context.Context, filter directory.GroupFilter) (shared.Paginated[*directory.Group], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "directory", "list_groups")
	defer span.End()

	filter.Page = filter.Page.Normalize()
	groups, total, err := s.groups.FindVisible(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[*directory.Group]{}, err
	}
	return shared.NewPaginated(groups, total, filter.Page.PageNumber(), filter.Page.Limit), nil
}

// GetGroupDetailed loads a visible group and the active members whose
// group privacy is visible at level.
func (s *ReadModel) GetGroupDetailed(ctx context.Context, level directory.PrivacyLevel, id uuid.UUID) (*GroupDetail, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "directory", "get_group",
		telemetry.WithAttribute(telemetry.SpanAttrGroupID, id.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPrivacyLevel, level.Label()))
	defer span.End()

	if err := checkLevel(level); err != nil {
		return nil, err
	}
	g, err := s.groups.FindVisibleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.groups.FindMembers(ctx, id, level)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &GroupDetail{Group: g, Members: members}, nil
}

// ListSkills lists visible skills ordered by name
func (s *ReadModel) ListSkills(ctx context.Context, page shared.Page) (shared.Paginated[*directory.Skill], error) {
	page = page.Normalize()
	skills, total, err := s.skills.FindVisible(ctx, page)
	if err != nil {
		return shared.Paginated[*directory.Skill]{}, err
	}
	return shared.NewPaginated(skills, total, page.PageNumber(), page.Limit), nil
}

// ListLanguages lists the distinct language codes spoken by profiles
func (s *ReadModel) ListLanguages(ctx context.Context, page shared.Page) (shared.Paginated[string], error) {
	page = page.Normalize()
	codes, total, err := s.profiles.LanguageCodes(ctx, page)
	if err != nil {
		return shared.Paginated[string]{}, err
	}
	return shared.NewPaginated(codes, total, page.PageNumber(), page.Limit), nil
}

func checkLevel(level directory.PrivacyLevel) error {
	if !level.IsValid() {
		return shared.ErrForbidden
	}
	return nil
}
