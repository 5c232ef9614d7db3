package directory

import (
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/shared"
)

// PrivacySettings holds the configured minimum level for each
// privacy-aware profile attribute.
type PrivacySettings struct {
	FullName      PrivacyLevel
	Email         PrivacyLevel
	Bio           PrivacyLevel
	Photo         PrivacyLevel
	IRCName       PrivacyLevel
	GeoCountry    PrivacyLevel
	GeoRegion     PrivacyLevel
	GeoCity       PrivacyLevel
	DateMozillian PrivacyLevel
	Timezone      PrivacyLevel
	Title         PrivacyLevel
	StoryLink     PrivacyLevel
	Languages     PrivacyLevel
	Tshirt        PrivacyLevel
	Groups        PrivacyLevel
	Skills        PrivacyLevel
}

// DefaultPrivacySettings shows everything to vouched members except the
// t-shirt size, which only privileged requesters see.
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		FullName:      PrivacyMozillians,
		Email:         PrivacyMozillians,
		Bio:           PrivacyMozillians,
		Photo:         PrivacyMozillians,
		IRCName:       PrivacyMozillians,
		GeoCountry:    PrivacyMozillians,
		GeoRegion:     PrivacyMozillians,
		GeoCity:       PrivacyMozillians,
		DateMozillian: PrivacyMozillians,
		Timezone:      PrivacyMozillians,
		Title:         PrivacyMozillians,
		StoryLink:     PrivacyMozillians,
		Languages:     PrivacyMozillians,
		Tshirt:        PrivacyPrivileged,
		Groups:        PrivacyMozillians,
		Skills:        PrivacyMozillians,
	}
}

func (s PrivacySettings) all() []PrivacyLevel {
	return []PrivacyLevel{
		s.FullName, s.Email, s.Bio, s.Photo, s.IRCName, s.GeoCountry, s.GeoRegion,
		s.GeoCity, s.DateMozillian, s.Timezone, s.Title, s.StoryLink, s.Languages,
		s.Tshirt, s.Groups, s.Skills,
	}
}

// HasPublicField reports whether any attribute is visible to anonymous requesters
func (s PrivacySettings) HasPublicField() bool {
	for _, l := range s.all() {
		if l == PrivacyPublic {
			return true
		}
	}
	return false
}

// Validate checks every configured level is a defined one
func (s PrivacySettings) Validate() error {
	for _, l := range s.all() {
		if !l.IsValid() {
			return shared.NewDomainError("INVALID_PRIVACY_LEVEL", "Privacy settings contain an undefined level")
		}
	}
	return nil
}

// Profile is the directory entry of one user.
// It is the aggregate root for external accounts and languages.
type Profile struct {
	shared.BaseAggregateRoot
	Username      string
	Email         string
	FullName      string
	IsVouched     bool
	VouchedByID   *uuid.UUID
	DateVouched   *time.Time
	Bio           string
	Photo         string // storage key of the original upload, empty when none
	IRCName       string
	Country       *Country
	Region        *Region
	City          *City
	DateMozillian *time.Time
	Timezone      string
	Title         string
	StoryLink     string
	Tshirt        Tshirt
	IsPublic      bool
	BasketToken   string
	DateJoined    time.Time
	Privacy       PrivacySettings

	ExternalAccounts []ExternalAccount
	Languages        []Language
}

// NewProfile creates a new, not yet completed profile
func NewProfile(username, email string) (*Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) > 30 {
		return nil, shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 30 characters")
	}
	p := &Profile{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: shared.NewBaseEntity()},
		Username:          username,
		Privacy:           DefaultPrivacySettings(),
	}
	p.DateJoined = p.CreatedAt
	if err := p.SetEmail(email); err != nil {
		return nil, err
	}
	return p, nil
}

// IsComplete reports whether the owner finished registration
func (p *Profile) IsComplete() bool {
	return p.FullName != ""
}

// IsStale reports whether the profile is incomplete and joined strictly before cutoff
func (p *Profile) IsStale(cutoff time.Time) bool {
	return !p.IsComplete() && p.DateJoined.Before(cutoff)
}

// SetEmail sets the primary address
func (p *Profile) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	p.Email = email
	p.UpdatedAt = time.Now()
	return nil
}

// SetFullName sets the display name; an empty name marks the profile incomplete
func (p *Profile) SetFullName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_FULL_NAME", "Full name cannot exceed 255 characters")
	}
	p.FullName = name
	p.UpdatedAt = time.Now()
	return nil
}

// SetTimezone sets an IANA timezone name; empty clears it
func (p *Profile) SetTimezone(tz string) error {
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return shared.NewDomainError("INVALID_TIMEZONE", "Unknown timezone: "+tz)
		}
	}
	p.Timezone = tz
	p.UpdatedAt = time.Now()
	return nil
}

// SetStoryLink sets the link to the owner's story; empty clears it
func (p *Profile) SetStoryLink(link string) error {
	if link != "" {
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return shared.NewDomainError("INVALID_STORY_LINK", "Story link must be an absolute http(s) URL")
		}
	}
	p.StoryLink = link
	p.UpdatedAt = time.Now()
	return nil
}

// SetTshirt sets the t-shirt choice
func (p *Profile) SetTshirt(t Tshirt) error {
	if !t.IsValid() {
		return shared.NewDomainError("INVALID_TSHIRT", "Unknown t-shirt size")
	}
	p.Tshirt = t
	p.UpdatedAt = time.Now()
	return nil
}

// SetPhoto replaces the stored photo key and raises a photo change event
func (p *Profile) SetPhoto(key string) {
	if key == p.Photo {
		return
	}
	p.Photo = key
	p.UpdatedAt = time.Now()
	if key != "" {
		p.AddDomainEvent(NewProfilePhotoChangedEvent(p))
	}
}

// SetPrivacy replaces the privacy settings
func (p *Profile) SetPrivacy(s PrivacySettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	p.Privacy = s
	p.UpdatedAt = time.Now()
	return nil
}

// SetLocation sets the resolved geo location; any part may be nil
func (p *Profile) SetLocation(country *Country, region *Region, city *City) {
	p.Country = country
	p.Region = region
	p.City = city
	p.UpdatedAt = time.Now()
}

// Vouch marks the profile as endorsed by another member
func (p *Profile) Vouch(by uuid.UUID, at time.Time) error {
	if by == p.ID {
		return shared.NewDomainError("INVALID_VOUCH", "A profile cannot vouch for itself")
	}
	p.IsVouched = true
	p.VouchedByID = &by
	p.DateVouched = &at
	if p.DateMozillian == nil {
		p.DateMozillian = &at
	}
	p.UpdatedAt = time.Now()
	return nil
}

// Unvouch removes the endorsement
func (p *Profile) Unvouch() {
	p.IsVouched = false
	p.VouchedByID = nil
	p.DateVouched = nil
	p.UpdatedAt = time.Now()
}

// AddExternalAccount attaches an account on another service
func (p *Profile) AddExternalAccount(t AccountType, identifier string, privacy PrivacyLevel) error {
	if _, ok := ParseAccountType(string(t)); !ok {
		return shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Unknown account type: "+string(t))
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return shared.NewDomainError("INVALID_ACCOUNT_IDENTIFIER", "Account identifier cannot be empty")
	}
	if !privacy.IsValid() {
		return shared.NewDomainError("INVALID_PRIVACY_LEVEL", "Account privacy level is undefined")
	}
	p.ExternalAccounts = append(p.ExternalAccounts, ExternalAccount{
		ID:         uuid.New(),
		ProfileID:  p.ID,
		Type:       t,
		Identifier: identifier,
		Privacy:    privacy,
	})
	p.UpdatedAt = time.Now()
	return nil
}

// AddLanguage records a spoken language; duplicates are ignored
func (p *Profile) AddLanguage(code string) error {
	if !ValidLanguageCode(code) {
		return shared.NewDomainError("INVALID_LANGUAGE", "Unknown language code: "+code)
	}
	for _, l := range p.Languages {
		if l.Code == code {
			return nil
		}
	}
	p.Languages = append(p.Languages, Language{ID: uuid.New(), ProfileID: p.ID, Code: code})
	p.UpdatedAt = time.Now()
	return nil
}

// UTCOffset returns the offset of the profile's timezone from UTC in seconds
// at the given instant. Profiles without a valid timezone report 0.
func (p *Profile) UTCOffset(at time.Time) int {
	if p.Timezone == "" {
		return 0
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return 0
	}
	_, offset := at.In(loc).Zone()
	return offset
}

// PrepareSave refreshes derived state and records the saved event.
// Callers persist the profile and then publish the pending events.
func (p *Profile) PrepareSave() {
	p.IsPublic = p.Privacy.HasPublicField()
	p.AddDomainEvent(NewProfileSavedEvent(p))
}

// MarkDeleted records the deletion event carrying what unsubscribe needs
// once the row is gone.
func (p *Profile) MarkDeleted() {
	p.AddDomainEvent(NewProfileDeletedEvent(p))
}
