package directory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/shared"
)

// ProfileScope restricts queries to complete profiles, optionally only
// those flagged public.
type ProfileScope struct {
	Level      PrivacyLevel
	PublicOnly bool
}

// ListScope is the scope of list and detail reads: anonymous requesters
// only see public profiles.
func ListScope(level PrivacyLevel) ProfileScope {
	return ProfileScope{Level: level, PublicOnly: level <= PrivacyPublic}
}

// LookupScope is the scope of lookup-by-identity reads, which match any
// complete profile and rely on per-attribute privacy checks instead.
func LookupScope(level PrivacyLevel) ProfileScope {
	return ProfileScope{Level: level}
}

// ProfileSortKeys are the accepted sort keys for profile lists
var ProfileSortKeys = []string{"username", "full_name", "date_joined", "date_vouched"}

// GroupSortKeys are the accepted sort keys for group lists
var GroupSortKeys = []string{"name", "member_count"}

// ProfileFilter contains whitelisted filters and ordering for profile lists
type ProfileFilter struct {
	IsVouched   *bool
	VouchedBy   *uuid.UUID
	City        string // city name
	Region      string // region name
	Country     string // country name
	CountryCode string
	Timezone    string
	Tshirt      *Tshirt

	SortBy    string
	SortOrder string // "asc" or "desc"
	Page      shared.Page
}

// LookupField names a supported lookup-user filter
type LookupField string

const (
	LookupUsername LookupField = "username"
	LookupEmail    LookupField = "email"
	LookupAccount  LookupField = "account"
)

// LookupCriteria selects a single profile by an external identity.
// Email and account matches additionally require the matched attribute to
// be visible at Level.
type LookupCriteria struct {
	Field       LookupField
	Value       string
	AccountType AccountType
	Level       PrivacyLevel
}

// ProfileRepository defines the interface for profile persistence
type ProfileRepository interface {
	// FindByID loads a profile regardless of scope
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)

	// FindByIDs loads the given profiles; publicOnly restricts to public profiles
	FindByIDs(ctx context.Context, ids []uuid.UUID, publicOnly bool) ([]*Profile, error)

	// FindInScope lists profiles visible within the scope
	FindInScope(ctx context.Context, scope ProfileScope, filter ProfileFilter) ([]*Profile, int64, error)

	// FindInScopeByID loads one profile visible within the scope
	FindInScopeByID(ctx context.Context, scope ProfileScope, id uuid.UUID) (*Profile, error)

	// FindMatching returns at most limit profiles in scope matching the criteria
	FindMatching(ctx context.Context, scope ProfileScope, criteria LookupCriteria, limit int) ([]*Profile, error)

	// Save creates or updates a profile with its accounts and languages
	Save(ctx context.Context, profile *Profile) error

	// UpdateBasketToken writes only the newsletter token column
	UpdateBasketToken(ctx context.Context, id uuid.UUID, token string) error

	// DeleteIncompleteJoinedBefore removes incomplete profiles that joined
	// strictly before cutoff and returns what was removed
	DeleteIncompleteJoinedBefore(ctx context.Context, cutoff time.Time) ([]*Profile, error)

	// ActiveGroupIDs returns the groups where the profile is an active member
	ActiveGroupIDs(ctx context.Context, profileID uuid.UUID) ([]uuid.UUID, error)

	// LanguageCodes returns the distinct language codes in use, sorted
	LanguageCodes(ctx context.Context, page shared.Page) ([]string, int64, error)
}

// GroupFilter contains whitelisted filters and ordering for group lists
type GroupFilter struct {
	Name                string
	FunctionalArea      *bool
	Curator             *uuid.UUID
	MembersCanLeave     *bool
	AcceptingNewMembers AcceptingNewMembers

	SortBy    string
	SortOrder string
	Page      shared.Page
}

// GroupRepository defines the interface for group persistence
type GroupRepository interface {
	// FindVisible lists visible groups with member counts
	FindVisible(ctx context.Context, filter GroupFilter) ([]*Group, int64, error)

	// FindVisibleByID loads a visible group with its member count
	FindVisibleByID(ctx context.Context, id uuid.UUID) (*Group, error)

	// FindByIDs loads the given groups; visibleOnly restricts to visible groups
	FindByIDs(ctx context.Context, ids []uuid.UUID, visibleOnly bool) ([]*Group, error)

	// FindMembers lists active members whose group privacy is visible at level
	FindMembers(ctx context.Context, groupID uuid.UUID, level PrivacyLevel) ([]GroupMember, error)

	// FindFunctionalAreas lists all functional-area groups
	FindFunctionalAreas(ctx context.Context) ([]*Group, error)

	// Save creates or updates a group
	Save(ctx context.Context, group *Group) error

	// SaveMembership creates or updates a membership
	SaveMembership(ctx context.Context, m GroupMembership) error
}

// SkillRepository defines the interface for skill persistence
type SkillRepository interface {
	// FindVisible lists visible skills ordered by name
	FindVisible(ctx context.Context, page shared.Page) ([]*Skill, int64, error)
}

// APIAppRepository defines the interface for API consumer registrations
type APIAppRepository interface {
	// FindByKeyDigest loads an app by the digest of its key
	FindByKeyDigest(ctx context.Context, digest string) (*APIApp, error)

	// Save creates or updates an app
	Save(ctx context.Context, app *APIApp) error
}
