package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
)

// GroupModel is the persistence model for the Group entity.
type GroupModel struct {
	Row
	Name                string                        `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description         string                        `gorm:"type:text"`
	CuratorID           *uuid.UUID                    `gorm:"type:uuid;index"`
	IRCChannel          string                        `gorm:"column:irc_channel;type:varchar(63)"`
	Website             string                        `gorm:"type:varchar(200)"`
	Wiki                string                        `gorm:"type:varchar(200)"`
	MembersCanLeave     bool                          `gorm:"not null;default:true"`
	AcceptingNewMembers directory.AcceptingNewMembers `gorm:"type:varchar(10);not null;default:'yes'"`
	NewMemberCriteria   string                        `gorm:"type:text"`
	FunctionalArea      bool                          `gorm:"not null;default:false;index"`
	Visible             bool                          `gorm:"not null;default:true;index"`

	// MemberCount is computed by queries and never written
	MemberCount int64 `gorm:"->;-:migration;column:member_count"`
}

// TableName returns the table name for GORM
func (GroupModel) TableName() string {
	return "directory_groups"
}

// ToDomain converts the persistence model to a domain Group.
func (m *GroupModel) ToDomain() *directory.Group {
	return &directory.Group{
		BaseEntity:          m.Row.entity(),
		Name:                m.Name,
		Description:         m.Description,
		CuratorID:           m.CuratorID,
		IRCChannel:          m.IRCChannel,
		Website:             m.Website,
		Wiki:                m.Wiki,
		MembersCanLeave:     m.MembersCanLeave,
		AcceptingNewMembers: m.AcceptingNewMembers,
		NewMemberCriteria:   m.NewMemberCriteria,
		FunctionalArea:      m.FunctionalArea,
		Visible:             m.Visible,
		MemberCount:         m.MemberCount,
	}
}

// FromDomain populates the persistence model from a domain Group.
func (m *GroupModel) FromDomain(g *directory.Group) {
	m.Row = rowOf(g.BaseEntity)
	m.Name = g.Name
	m.Description = g.Description
	m.CuratorID = g.CuratorID
	m.IRCChannel = g.IRCChannel
	m.Website = g.Website
	m.Wiki = g.Wiki
	m.MembersCanLeave = g.MembersCanLeave
	m.AcceptingNewMembers = g.AcceptingNewMembers
	m.NewMemberCriteria = g.NewMemberCriteria
	m.FunctionalArea = g.FunctionalArea
	m.Visible = g.Visible
}

// GroupMembershipModel is the persistence model for a group membership.
type GroupMembershipModel struct {
	GroupID   uuid.UUID                  `gorm:"type:uuid;primary_key"`
	ProfileID uuid.UUID                  `gorm:"type:uuid;primary_key;index"`
	Status    directory.MembershipStatus `gorm:"type:varchar(15);not null;default:'member'"`
	UpdatedAt time.Time                  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GroupMembershipModel) TableName() string {
	return "group_memberships"
}

// ToDomain converts the persistence model to a domain GroupMembership.
func (m *GroupMembershipModel) ToDomain() directory.GroupMembership {
	return directory.GroupMembership{
		GroupID:   m.GroupID,
		ProfileID: m.ProfileID,
		Status:    m.Status,
		UpdatedAt: m.UpdatedAt,
	}
}
