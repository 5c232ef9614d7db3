package directory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/shared"
)

// AcceptingNewMembers is a group's admission policy
type AcceptingNewMembers string

const (
	AcceptingYes       AcceptingNewMembers = "yes"
	AcceptingByRequest AcceptingNewMembers = "by_request"
	AcceptingNo        AcceptingNewMembers = "no"
)

// IsValid reports whether a is a known policy
func (a AcceptingNewMembers) IsValid() bool {
	switch a {
	case AcceptingYes, AcceptingByRequest, AcceptingNo:
		return true
	}
	return false
}

// MembershipStatus is the state of a profile's membership in a group
type MembershipStatus string

const (
	MembershipMember       MembershipStatus = "member"
	MembershipPending      MembershipStatus = "pending"
	MembershipPendingTerms MembershipStatus = "pending_terms"
)

// IsActive reports whether the status counts toward membership
func (s MembershipStatus) IsActive() bool {
	return s == MembershipMember
}

// Group is a named collection of profiles
type Group struct {
	shared.BaseEntity
	Name                string
	Description         string
	CuratorID           *uuid.UUID
	IRCChannel          string
	Website             string
	Wiki                string
	MembersCanLeave     bool
	AcceptingNewMembers AcceptingNewMembers
	NewMemberCriteria   string
	FunctionalArea      bool
	Visible             bool
	MemberCount         int64 // derived, populated by the repository
}

// NewGroup creates a visible group open to new members
func NewGroup(name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_GROUP_NAME", "Group name cannot be empty")
	}
	return &Group{
		BaseEntity:          shared.NewBaseEntity(),
		Name:                name,
		MembersCanLeave:     true,
		AcceptingNewMembers: AcceptingYes,
		Visible:             true,
	}, nil
}

// NewsletterKey is the attribute name used for this group in the
// newsletter phone book: upper case with spaces replaced by underscores.
func (g *Group) NewsletterKey() string {
	return strings.ReplaceAll(strings.ToUpper(g.Name), " ", "_")
}

// GroupMembership joins a profile to a group
type GroupMembership struct {
	GroupID   uuid.UUID
	ProfileID uuid.UUID
	Status    MembershipStatus
	UpdatedAt time.Time
}

// GroupMember is a projection of an active member used in group details
type GroupMember struct {
	ProfileID     uuid.UUID
	Username      string
	PrivacyGroups PrivacyLevel
}
