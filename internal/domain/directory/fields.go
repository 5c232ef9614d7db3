package directory

// EnvelopeKind selects how a profile field is rendered for transport
type EnvelopeKind int

const (
	// EnvelopeBare emits the value as is, without privacy wrapping
	EnvelopeBare EnvelopeKind = iota
	// EnvelopePlain emits {value, privacy}
	EnvelopePlain
	// EnvelopePhoto emits the thumbnail URL variants
	EnvelopePhoto
	// EnvelopeBio emits the raw text and its rendered markup
	EnvelopeBio
	// EnvelopeTimezone emits the zone name and its UTC offset
	EnvelopeTimezone
	// EnvelopeCountry, EnvelopeRegion and EnvelopeCity emit code and English name
	EnvelopeCountry
	EnvelopeRegion
	EnvelopeCity
	// EnvelopeTshirt emits the stored code and its label
	EnvelopeTshirt
	// EnvelopeLanguages emits the language list under value
	EnvelopeLanguages
)

// PrivacyAccessor reads the configured minimum level of one attribute
type PrivacyAccessor func(*PrivacySettings) PrivacyLevel

// FieldSpec describes one output field of the detailed profile document
type FieldSpec struct {
	Name    string
	Kind    EnvelopeKind
	privacy PrivacyAccessor
}

// field builds a FieldSpec. A field with a privacy accessor and no explicit
// transform gets the generic {value, privacy} envelope; explicit kinds win.
func field(name string, kind EnvelopeKind, privacy PrivacyAccessor) FieldSpec {
	if privacy != nil && kind == EnvelopeBare {
		kind = EnvelopePlain
	}
	return FieldSpec{Name: name, Kind: kind, privacy: privacy}
}

// HasPrivacy reports whether the field is privacy aware
func (f FieldSpec) HasPrivacy() bool {
	return f.privacy != nil
}

// MinLevel returns the level a requester needs to see the field on p.
// Fields without privacy are visible at every level.
func (f FieldSpec) MinLevel(p *Profile) PrivacyLevel {
	if f.privacy == nil {
		return PrivacyPublic
	}
	return f.privacy(&p.Privacy)
}

// VisibleTo reports whether a requester at level sees the field on p
func (f FieldSpec) VisibleTo(p *Profile, level PrivacyLevel) bool {
	return level.Allows(f.MinLevel(p))
}

// ProfileDetailFields is the field table of the detailed profile document, in output order.
var ProfileDetailFields = []FieldSpec{
	field("username", EnvelopeBare, nil),
	field("full_name", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.FullName }),
	field("is_vouched", EnvelopeBare, nil),
	field("email", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.Email }),
	field("date_vouched", EnvelopeBare, nil),
	field("vouched_by", EnvelopeBare, nil),
	field("bio", EnvelopeBio, func(s *PrivacySettings) PrivacyLevel { return s.Bio }),
	field("photo", EnvelopePhoto, func(s *PrivacySettings) PrivacyLevel { return s.Photo }),
	field("ircname", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.IRCName }),
	field("country", EnvelopeCountry, func(s *PrivacySettings) PrivacyLevel { return s.GeoCountry }),
	field("region", EnvelopeRegion, func(s *PrivacySettings) PrivacyLevel { return s.GeoRegion }),
	field("city", EnvelopeCity, func(s *PrivacySettings) PrivacyLevel { return s.GeoCity }),
	field("date_mozillian", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.DateMozillian }),
	field("timezone", EnvelopeTimezone, func(s *PrivacySettings) PrivacyLevel { return s.Timezone }),
	field("title", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.Title }),
	field("story_link", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.StoryLink }),
	field("languages", EnvelopeLanguages, func(s *PrivacySettings) PrivacyLevel { return s.Languages }),
	field("external_accounts", EnvelopeBare, nil),
	field("_url", EnvelopeBare, nil),
	field("tshirt", EnvelopeTshirt, func(s *PrivacySettings) PrivacyLevel { return s.Tshirt }),
	field("is_public", EnvelopeBare, nil),
	field("url", EnvelopeBare, nil),
}

// ProfileIndexFields lists the privacy-aware fields copied into search documents
var ProfileIndexFields = []FieldSpec{
	field("full_name", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.FullName }),
	field("email", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.Email }),
	field("bio", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.Bio }),
	field("ircname", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.IRCName }),
	field("country", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.GeoCountry }),
	field("region", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.GeoRegion }),
	field("city", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.GeoCity }),
	field("timezone", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.Timezone }),
	field("title", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.Title }),
	field("languages", EnvelopeBare, func(s *PrivacySettings) PrivacyLevel { return s.Languages }),
}
