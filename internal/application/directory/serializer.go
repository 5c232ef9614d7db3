package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mozillians/backend/internal/domain/directory"
)

// Photo variant keys emitted in the photo envelope
const (
	PhotoSmall   = "150x150"
	PhotoMedium  = "300x300"
	PhotoLarge   = "500x500"
	PhotoDefault = PhotoMedium
)

// PhotoResolver resolves the URLs of a profile photo's variants, keyed by size
type PhotoResolver interface {
	Resolve(ctx context.Context, photoKey, email string) (map[string]string, error)
}

// MarkupRenderer renders bio text to sanitized HTML
type MarkupRenderer interface {
	Render(src string) string
}

// Serializer turns read-model records into transport documents.
// Privacy-aware profile fields are wrapped in envelopes carrying the
// label of their configured level; fields the requester may not see are
// left out entirely.
type Serializer struct {
	urls   URLBuilder
	photos PhotoResolver
	markup MarkupRenderer
	now    func() time.Time
}

// NewSerializer creates a Serializer
func NewSerializer(urls URLBuilder, photos PhotoResolver, markup MarkupRenderer) *Serializer {
	return &Serializer{urls: urls, photos: photos, markup: markup, now: time.Now}
}

var detailFieldsByName = func() map[string]directory.FieldSpec {
	m := make(map[string]directory.FieldSpec, len(directory.ProfileDetailFields))
	for _, f := range directory.ProfileDetailFields {
		m[f.Name] = f
	}
	return m
}()

// ProfileSummary renders the list entry of a profile
func (s *Serializer) ProfileSummary(p *directory.Profile) Document {
	return Document{
		{"username", p.Username},
		{"_url", s.urls.Profile(APIv2, p.ID)},
		{"is_vouched", p.IsVouched},
	}
}

// ProfileDetail renders the detailed profile document as seen at level
func (s *Serializer) ProfileDetail(ctx context.Context, p *directory.Profile, level directory.PrivacyLevel) (Document, error) {
	doc := make(Document, 0, len(directory.ProfileDetailFields))
	for _, f := range directory.ProfileDetailFields {
		if !f.VisibleTo(p, level) {
			continue
		}
		v, err := s.fieldValue(ctx, f, p, level)
		if err != nil {
			return nil, err
		}
		doc = append(doc, Field{Key: f.Name, Value: v})
	}
	return doc, nil
}

func (s *Serializer) fieldValue(ctx context.Context, f directory.FieldSpec, p *directory.Profile, level directory.PrivacyLevel) (any, error) {
	privacy := f.MinLevel(p).Label()

	switch f.Kind {
	case directory.EnvelopeBare:
		return s.bareValue(f.Name, p, level), nil

	case directory.EnvelopePlain:
		return Document{{"value", s.bareValue(f.Name, p, level)}, {"privacy", privacy}}, nil

	case directory.EnvelopePhoto:
		urls, err := s.photos.Resolve(ctx, p.Photo, p.Email)
		if err != nil {
			return nil, fmt.Errorf("photo of %s: %w", p.Username, err)
		}
		return Document{
			{"value", urls[PhotoDefault]},
			{PhotoSmall, urls[PhotoSmall]},
			{PhotoMedium, urls[PhotoMedium]},
			{PhotoLarge, urls[PhotoLarge]},
			{"privacy", privacy},
		}, nil

	case directory.EnvelopeBio:
		return Document{{"value", p.Bio}, {"html", s.markup.Render(p.Bio)}, {"privacy", privacy}}, nil

	case directory.EnvelopeTimezone:
		return Document{
			{"value", p.Timezone},
			{"utc_offset", p.UTCOffset(s.now())},
			{"privacy", privacy},
		}, nil

	case directory.EnvelopeCountry:
		code, name := "", ""
		if p.Country != nil {
			code, name = p.Country.Code, p.Country.Name
		}
		return geoEnvelope(code, name, privacy), nil

	case directory.EnvelopeRegion:
		code, name := "", ""
		if p.Region != nil {
			code, name = p.Region.Code, p.Region.Name
		}
		return geoEnvelope(code, name, privacy), nil

	case directory.EnvelopeCity:
		code, name := "", ""
		if p.City != nil {
			code, name = p.City.Code, p.City.Name
		}
		return geoEnvelope(code, name, privacy), nil

	case directory.EnvelopeTshirt:
		return Document{{"value", int(p.Tshirt)}, {"english", p.Tshirt.Label()}, {"privacy", privacy}}, nil

	case directory.EnvelopeLanguages:
		langs := make([]Document, 0, len(p.Languages))
		for _, l := range p.Languages {
			langs = append(langs, LanguageDocument(l.Code))
		}
		return Document{{"value", langs}, {"privacy", privacy}}, nil
	}
	return nil, fmt.Errorf("field %s has unknown envelope kind %d", f.Name, f.Kind)
}

// geoEnvelope renders an unresolved location as empty strings
func geoEnvelope(code, name, privacy string) Document {
	return Document{{"value", code}, {"english", name}, {"privacy", privacy}}
}

func (s *Serializer) bareValue(name string, p *directory.Profile, level directory.PrivacyLevel) any {
	switch name {
	case "username":
		return p.Username
	case "full_name":
		return p.FullName
	case "is_vouched":
		return p.IsVouched
	case "email":
		return p.Email
	case "date_vouched":
		if p.DateVouched == nil {
			return nil
		}
		return p.DateVouched.UTC().Format(time.RFC3339)
	case "vouched_by":
		if p.VouchedByID == nil {
			return nil
		}
		return s.urls.Profile(APIv2, *p.VouchedByID)
	case "ircname":
		return p.IRCName
	case "date_mozillian":
		if p.DateMozillian == nil {
			return nil
		}
		return p.DateMozillian.Format(time.DateOnly)
	case "title":
		return p.Title
	case "story_link":
		return p.StoryLink
	case "external_accounts":
		return s.externalAccounts(p, level)
	case "_url":
		return s.urls.Profile(APIv2, p.ID)
	case "is_public":
		return p.IsPublic
	case "url":
		return s.urls.ProfilePage(p.Username)
	}
	return nil
}

// externalAccounts lists the accounts whose own privacy is visible at level
func (s *Serializer) externalAccounts(p *directory.Profile, level directory.PrivacyLevel) []Document {
	accounts := make([]Document, 0, len(p.ExternalAccounts))
	for _, a := range p.ExternalAccounts {
		if !level.Allows(a.Privacy) {
			continue
		}
		accounts = append(accounts, Document{
			{"type", strings.ToLower(string(a.Type))},
			{"identifier", a.Identifier},
			{"privacy", a.Privacy.Label()},
		})
	}
	return accounts
}

// ProfileV1 renders the legacy flat profile object. Privacy-aware values
// are emitted bare and only when visible at level.
func (s *Serializer) ProfileV1(ctx context.Context, p *directory.Profile, level directory.PrivacyLevel) (Document, error) {
	doc := Document{
		{"id", p.ID.String()},
		{"username", p.Username},
		{"is_vouched", p.IsVouched},
	}
	visible := func(name string) bool {
		return detailFieldsByName[name].VisibleTo(p, level)
	}
	for _, name := range []string{"full_name", "email", "ircname", "title", "story_link", "date_mozillian", "timezone"} {
		if !visible(name) {
			continue
		}
		if name == "timezone" {
			doc = append(doc, Field{Key: name, Value: p.Timezone})
			continue
		}
		doc = append(doc, Field{Key: name, Value: s.bareValue(name, p, level)})
	}
	if visible("bio") {
		doc = append(doc, Field{Key: "bio", Value: s.markup.Render(p.Bio)})
	}
	if visible("photo") {
		urls, err := s.photos.Resolve(ctx, p.Photo, p.Email)
		if err != nil {
			return nil, fmt.Errorf("photo of %s: %w", p.Username, err)
		}
		doc = append(doc, Field{Key: "photo", Value: urls[PhotoDefault]})
	}
	if visible("country") && p.Country != nil {
		doc = append(doc, Field{Key: "country", Value: p.Country.Code})
	}
	if visible("region") && p.Region != nil {
		doc = append(doc, Field{Key: "region", Value: p.Region.Name})
	}
	if visible("city") && p.City != nil {
		doc = append(doc, Field{Key: "city", Value: p.City.Name})
	}
	if visible("languages") {
		codes := make([]string, 0, len(p.Languages))
		for _, l := range p.Languages {
			codes = append(codes, l.Code)
		}
		doc = append(doc, Field{Key: "languages", Value: codes})
	}
	if p.VouchedByID != nil {
		doc = append(doc, Field{Key: "vouched_by", Value: s.urls.Profile(APIv1, *p.VouchedByID)})
	}
	doc = append(doc,
		Field{Key: "url", Value: s.urls.ProfilePage(p.Username)},
		Field{Key: "resource_uri", Value: s.urls.Profile(APIv1, p.ID)},
	)
	return doc, nil
}

// GroupSummary renders the list entry of a group
func (s *Serializer) GroupSummary(g *directory.Group) Document {
	return Document{
		{"name", g.Name},
		{"_url", s.urls.Group(APIv2, g.ID)},
		{"member_count", g.MemberCount},
	}
}

// GroupDetail renders a group with the members visible to the requester
func (s *Serializer) GroupDetail(g *directory.Group, members []directory.GroupMember) Document {
	var curator any
	if g.CuratorID != nil {
		curator = s.urls.Profile(APIv2, *g.CuratorID)
	}
	ms := make([]Document, 0, len(members))
	for _, m := range members {
		ms = append(ms, Document{
			{"_url", s.urls.Profile(APIv2, m.ProfileID)},
			{"privacy", m.PrivacyGroups.Label()},
			{"username", m.Username},
		})
	}
	return Document{
		{"name", g.Name},
		{"description", g.Description},
		{"_url", s.urls.Group(APIv2, g.ID)},
		{"curator", curator},
		{"irc_channel", g.IRCChannel},
		{"website", g.Website},
		{"wiki", g.Wiki},
		{"members_can_leave", g.MembersCanLeave},
		{"accepting_new_members", string(g.AcceptingNewMembers)},
		{"new_member_criteria", g.NewMemberCriteria},
		{"functional_area", g.FunctionalArea},
		{"members", ms},
	}
}

// GroupV1 renders the legacy group object
func (s *Serializer) GroupV1(g *directory.Group) Document {
	return Document{
		{"id", g.ID.String()},
		{"name", g.Name},
		{"url", s.urls.GroupPage(g.ID)},
		{"number_of_members", g.MemberCount},
		{"resource_uri", s.urls.Group(APIv1, g.ID)},
	}
}

// Skill renders a skill for the given API version
func (s *Serializer) Skill(version string, sk *directory.Skill) Document {
	if version == APIv1 {
		return Document{
			{"id", sk.ID.String()},
			{"name", sk.Name},
			{"resource_uri", s.urls.Skill(APIv1, sk.ID)},
		}
	}
	return Document{{"url", s.urls.Skill(APIv2, sk.ID)}, {"name", sk.Name}}
}

// LanguageDocument renders a language code with its display names
func LanguageDocument(code string) Document {
	l := directory.Language{Code: code}
	return Document{{"code", code}, {"english", l.English()}, {"native", l.Native()}}
}
