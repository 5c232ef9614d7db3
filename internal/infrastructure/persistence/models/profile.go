package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
)

// ProfileModel is the persistence model for the Profile aggregate root.
type ProfileModel struct {
	Row
	Username      string           `gorm:"type:varchar(30);not null;uniqueIndex"`
	Email         string           `gorm:"type:varchar(254);not null;index"`
	FullName      string           `gorm:"type:varchar(255);not null;default:''"`
	IsVouched     bool             `gorm:"not null;default:false;index"`
	VouchedByID   *uuid.UUID       `gorm:"type:uuid;index"`
	DateVouched   *time.Time       `gorm:"index"`
	Bio           string           `gorm:"type:text"`
	Photo         string           `gorm:"type:varchar(255)"`
	IRCName       string           `gorm:"column:ircname;type:varchar(63)"`
	GeoCountryID  *uuid.UUID       `gorm:"type:uuid;index"`
	GeoRegionID   *uuid.UUID       `gorm:"type:uuid;index"`
	GeoCityID     *uuid.UUID       `gorm:"type:uuid;index"`
	DateMozillian *time.Time       `gorm:""`
	Timezone      string           `gorm:"type:varchar(100)"`
	Title         string           `gorm:"type:varchar(70)"`
	StoryLink     string           `gorm:"type:varchar(1024)"`
	Tshirt        directory.Tshirt `gorm:"not null;default:0"`
	IsPublic      bool             `gorm:"not null;default:false;index"`
	BasketToken   string           `gorm:"type:varchar(1024)"`
	DateJoined    time.Time        `gorm:"not null;index"`

	PrivacyFullName      directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyEmail         directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyBio           directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyPhoto         directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyIRCName       directory.PrivacyLevel `gorm:"column:privacy_ircname;not null;default:2"`
	PrivacyGeoCountry    directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyGeoRegion     directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyGeoCity       directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyDateMozillian directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyTimezone      directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyTitle         directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyStoryLink     directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyLanguages     directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacyTshirt        directory.PrivacyLevel `gorm:"not null;default:4"`
	PrivacyGroups        directory.PrivacyLevel `gorm:"not null;default:2"`
	PrivacySkills        directory.PrivacyLevel `gorm:"not null;default:2"`

	Country          *CountryModel          `gorm:"foreignKey:GeoCountryID"`
	Region           *RegionModel           `gorm:"foreignKey:GeoRegionID"`
	City             *CityModel             `gorm:"foreignKey:GeoCityID"`
	ExternalAccounts []ExternalAccountModel `gorm:"foreignKey:ProfileID"`
	Languages        []LanguageModel        `gorm:"foreignKey:ProfileID"`
}

// TableName returns the table name for GORM
func (ProfileModel) TableName() string {
	return "profiles"
}

// ToDomain converts the persistence model to a domain Profile.
// Associations are converted when they were preloaded.
func (m *ProfileModel) ToDomain() *directory.Profile {
	p := &directory.Profile{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.Row.entity()},
		Username:          m.Username,
		Email:             m.Email,
		FullName:          m.FullName,
		IsVouched:         m.IsVouched,
		VouchedByID:       m.VouchedByID,
		DateVouched:       m.DateVouched,
		Bio:               m.Bio,
		Photo:             m.Photo,
		IRCName:           m.IRCName,
		DateMozillian:     m.DateMozillian,
		Timezone:          m.Timezone,
		Title:             m.Title,
		StoryLink:         m.StoryLink,
		Tshirt:            m.Tshirt,
		IsPublic:          m.IsPublic,
		BasketToken:       m.BasketToken,
		DateJoined:        m.DateJoined,
		Privacy: directory.PrivacySettings{
			FullName:      m.PrivacyFullName,
			Email:         m.PrivacyEmail,
			Bio:           m.PrivacyBio,
			Photo:         m.PrivacyPhoto,
			IRCName:       m.PrivacyIRCName,
			GeoCountry:    m.PrivacyGeoCountry,
			GeoRegion:     m.PrivacyGeoRegion,
			GeoCity:       m.PrivacyGeoCity,
			DateMozillian: m.PrivacyDateMozillian,
			Timezone:      m.PrivacyTimezone,
			Title:         m.PrivacyTitle,
			StoryLink:     m.PrivacyStoryLink,
			Languages:     m.PrivacyLanguages,
			Tshirt:        m.PrivacyTshirt,
			Groups:        m.PrivacyGroups,
			Skills:        m.PrivacySkills,
		},
	}
	if m.Country != nil {
		p.Country = m.Country.ToDomain()
	}
	if m.Region != nil {
		p.Region = m.Region.ToDomain()
	}
	if m.City != nil {
		p.City = m.City.ToDomain()
	}
	for i := range m.ExternalAccounts {
		p.ExternalAccounts = append(p.ExternalAccounts, m.ExternalAccounts[i].ToDomain())
	}
	for i := range m.Languages {
		p.Languages = append(p.Languages, m.Languages[i].ToDomain())
	}
	return p
}

// FromDomain populates the persistence model from a domain Profile.
func (m *ProfileModel) FromDomain(p *directory.Profile) {
	m.Row = rowOf(p.BaseEntity)
	m.Username = p.Username
	m.Email = p.Email
	m.FullName = p.FullName
	m.IsVouched = p.IsVouched
	m.VouchedByID = p.VouchedByID
	m.DateVouched = p.DateVouched
	m.Bio = p.Bio
	m.Photo = p.Photo
	m.IRCName = p.IRCName
	m.GeoCountryID, m.GeoRegionID, m.GeoCityID = nil, nil, nil
	if p.Country != nil {
		id := p.Country.ID
		m.GeoCountryID = &id
	}
	if p.Region != nil {
		id := p.Region.ID
		m.GeoRegionID = &id
	}
	if p.City != nil {
		id := p.City.ID
		m.GeoCityID = &id
	}
	m.DateMozillian = p.DateMozillian
	m.Timezone = p.Timezone
	m.Title = p.Title
	m.StoryLink = p.StoryLink
	m.Tshirt = p.Tshirt
	m.IsPublic = p.IsPublic
	m.BasketToken = p.BasketToken
	m.DateJoined = p.DateJoined

	s := p.Privacy
	m.PrivacyFullName = s.FullName
	m.PrivacyEmail = s.Email
	m.PrivacyBio = s.Bio
	m.PrivacyPhoto = s.Photo
	m.PrivacyIRCName = s.IRCName
	m.PrivacyGeoCountry = s.GeoCountry
	m.PrivacyGeoRegion = s.GeoRegion
	m.PrivacyGeoCity = s.GeoCity
	m.PrivacyDateMozillian = s.DateMozillian
	m.PrivacyTimezone = s.Timezone
	m.PrivacyTitle = s.Title
	m.PrivacyStoryLink = s.StoryLink
	m.PrivacyLanguages = s.Languages
	m.PrivacyTshirt = s.Tshirt
	m.PrivacyGroups = s.Groups
	m.PrivacySkills = s.Skills

	m.ExternalAccounts = make([]ExternalAccountModel, 0, len(p.ExternalAccounts))
	for _, a := range p.ExternalAccounts {
		m.ExternalAccounts = append(m.ExternalAccounts, ExternalAccountModel{
			ID:         a.ID,
			ProfileID:  p.ID,
			Type:       a.Type,
			Identifier: a.Identifier,
			Privacy:    a.Privacy,
		})
	}
	m.Languages = make([]LanguageModel, 0, len(p.Languages))
	for _, l := range p.Languages {
		m.Languages = append(m.Languages, LanguageModel{ID: l.ID, ProfileID: p.ID, Code: l.Code})
	}
}

// ProfileModelFromDomain creates a new persistence model from a domain Profile.
func ProfileModelFromDomain(p *directory.Profile) *ProfileModel {
	m := &ProfileModel{}
	m.FromDomain(p)
	return m
}

// ExternalAccountModel is the persistence model for an external account.
type ExternalAccountModel struct {
	ID         uuid.UUID              `gorm:"type:uuid;primary_key"`
	ProfileID  uuid.UUID              `gorm:"type:uuid;not null;index"`
	Type       directory.AccountType  `gorm:"type:varchar(30);not null;index:idx_external_account_lookup,priority:1"`
	Identifier string                 `gorm:"type:varchar(255);not null;index:idx_external_account_lookup,priority:2"`
	Privacy    directory.PrivacyLevel `gorm:"not null;default:2"`
}

// TableName returns the table name for GORM
func (ExternalAccountModel) TableName() string {
	return "external_accounts"
}

// ToDomain converts the persistence model to a domain ExternalAccount.
func (m *ExternalAccountModel) ToDomain() directory.ExternalAccount {
	return directory.ExternalAccount{
		ID:         m.ID,
		ProfileID:  m.ProfileID,
		Type:       m.Type,
		Identifier: m.Identifier,
		Privacy:    m.Privacy,
	}
}

// LanguageModel is the persistence model for a spoken language.
type LanguageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ProfileID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_language_profile_code,priority:1"`
	Code      string    `gorm:"type:varchar(63);not null;uniqueIndex:idx_language_profile_code,priority:2"`
}

// TableName returns the table name for GORM
func (LanguageModel) TableName() string {
	return "languages"
}

// ToDomain converts the persistence model to a domain Language.
func (m *LanguageModel) ToDomain() directory.Language {
	return directory.Language{ID: m.ID, ProfileID: m.ProfileID, Code: m.Code}
}
