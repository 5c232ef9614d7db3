package directory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/directory/directorytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSite = "https://mozillians.test"

type stubPhotos struct {
	err error
}

func (s stubPhotos) Resolve(_ context.Context, photoKey, email string) (map[string]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	base := "https://photos.test/" + photoKey
	if photoKey == "" {
		base = "https://gravatar.test/" + email
	}
	return map[string]string{
		PhotoSmall:  base + "/150",
		PhotoMedium: base + "/300",
		PhotoLarge:  base + "/500",
	}, nil
}

type upperMarkup struct{}

func (upperMarkup) Render(src string) string { return "<p>" + src + "</p>" }

func newTestSerializer() *Serializer {
	s := NewSerializer(NewURLBuilder(testSite+"/"), stubPhotos{}, upperMarkup{})
	s.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSerializer_ProfileSummary(t *testing.T) {
	s := newTestSerializer()
	p := directorytest.NewCompleteProfile("alice")
	p.IsVouched = true

	doc := s.ProfileSummary(p)
	assert.Equal(t, []string{"username", "_url", "is_vouched"}, doc.Keys())
	v, _ := doc.Get("_url")
	assert.Equal(t, testSite+"/api/v2/users/"+p.ID.String()+"/", v)
}

func TestSerializer_ProfileDetail_FieldOrderAtPrivileged(t *testing.T) {
	s := newTestSerializer()
	p := directorytest.NewCompleteProfile("alice")

	doc, err := s.ProfileDetail(context.Background(), p, directory.PrivacyPrivileged)
	require.NoError(t, err)

	expected := make([]string, 0, len(directory.ProfileDetailFields))
	for _, f := range directory.ProfileDetailFields {
		expected = append(expected, f.Name)
	}
	assert.Equal(t, expected, doc.Keys())
}

func TestSerializer_ProfileDetail_PublicHidesPrivateFields(t *testing.T) {
	s := newTestSerializer()
	p := directorytest.NewCompleteProfile("alice")
	p.Privacy.FullName = directory.PrivacyPublic

	doc, err := s.ProfileDetail(context.Background(), p, directory.PrivacyPublic)
	require.NoError(t, err)

	assert.True(t, doc.Has("full_name"))
	for _, key := range []string{"email", "bio", "photo", "ircname", "country", "timezone", "languages", "tshirt"} {
		assert.False(t, doc.Has(key), key)
	}
	for _, key := range []string{"username", "is_vouched", "external_accounts", "_url", "is_public", "url"} {
		assert.True(t, doc.Has(key), key)
	}

	fullName, _ := doc.Get("full_name")
	env := fullName.(Document)
	v, _ := env.Get("value")
	privacy, _ := env.Get("privacy")
	assert.Equal(t, "Full alice", v)
	assert.Equal(t, "Public", privacy)
}

func TestSerializer_ProfileDetail_TshirtNeedsPrivileged(t *testing.T) {
	s := newTestSerializer()
	p := directorytest.NewCompleteProfile("alice")
	require.NoError(t, p.SetTshirt(8))

	doc, err := s.ProfileDetail(context.Background(), p, directory.PrivacyEmployees)
	require.NoError(t, err)
	assert.False(t, doc.Has("tshirt"))

	doc, err = s.ProfileDetail(context.Background(), p, directory.PrivacyPrivileged)
	require.NoError(t, err)
	tshirt, _ := doc.Get("tshirt")
	data, err := json.Marshal(tshirt)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":8,"english":"Straight-cut Medium","privacy":"Privileged"}`, string(data))
}

func TestSerializer_ProfileDetail_Envelopes(t *testing.T) {
	s := newTestSerializer()
	p := directorytest.NewCompleteProfile("alice")
	p.Bio = "hello"
	p.Photo = "photos/alice.png"
	require.NoError(t, p.SetTimezone("Europe/Berlin"))
	require.NoError(t, p.AddLanguage("fr"))
	p.SetLocation(&directory.Country{Code: "de", Name: "Germany"}, nil, &directory.City{Name: "Berlin"})
	voucher := uuid.New()
	require.NoError(t, p.Vouch(voucher, time.Date(2020, 5, 1, 9, 30, 0, 0, time.UTC)))

	doc, err := s.ProfileDetail(context.Background(), p, directory.PrivacyMozillians)
	require.NoError(t, err)
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, map[string]any{"value": "hello", "html": "<p>hello</p>", "privacy": "Mozillians"}, out["bio"])
	assert.Equal(t, map[string]any{
		"value":   "https://photos.test/photos/alice.png/300",
		"150x150": "https://photos.test/photos/alice.png/150",
		"300x300": "https://photos.test/photos/alice.png/300",
		"500x500": "https://photos.test/photos/alice.png/500",
		"privacy": "Mozillians",
	}, out["photo"])
	assert.Equal(t, map[string]any{"value": "Europe/Berlin", "utc_offset": float64(3600), "privacy": "Mozillians"}, out["timezone"])
	assert.Equal(t, map[string]any{"value": "de", "english": "Germany", "privacy": "Mozillians"}, out["country"])
	assert.Equal(t, map[string]any{"value": "", "english": "", "privacy": "Mozillians"}, out["region"])
	assert.Equal(t, map[string]any{"value": "", "english": "Berlin", "privacy": "Mozillians"}, out["city"])
	assert.Equal(t, map[string]any{
		"value":   []any{map[string]any{"code": "fr", "english": "French", "native": "français"}},
		"privacy": "Mozillians",
	}, out["languages"])
	assert.Equal(t, testSite+"/api/v2/users/"+voucher.String()+"/", out["vouched_by"])
	assert.Equal(t, "2020-05-01T09:30:00Z", out["date_vouched"])
	assert.Equal(t, map[string]any{"value": "2020-05-01", "privacy": "Mozillians"}, out["date_mozillian"])
	assert.Equal(t, testSite+"/u/alice/", out["url"])
}

func TestSerializer_ExternalAccountsFilteredByOwnPrivacy(t *testing.T) {
	s := newTestSerializer()
	p := directorytest.NewCompleteProfile("alice")
	require.NoError(t, p.AddExternalAccount(directory.AccountGitHub, "alice-gh", directory.PrivacyPublic))
	require.NoError(t, p.AddExternalAccount(directory.AccountTwitter, "alice_tw", directory.PrivacyEmployees))

	doc, err := s.ProfileDetail(context.Background(), p, directory.PrivacyMozillians)
	require.NoError(t, err)

	accounts, _ := doc.Get("external_accounts")
	list := accounts.([]Document)
	require.Len(t, list, 1)
	typ, _ := list[0].Get("type")
	privacy, _ := list[0].Get("privacy")
	assert.Equal(t, "github", typ)
	assert.Equal(t, "Public", privacy)
}

func TestSerializer_ProfileDetail_NullableFields(t *testing.T) {
	s := newTestSerializer()
	p := directorytest.NewCompleteProfile("alice")

	doc, err := s.ProfileDetail(context.Background(), p, directory.PrivacyMozillians)
	require.NoError(t, err)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Nil(t, out["vouched_by"])
	assert.Nil(t, out["date_vouched"])
	assert.Equal(t, map[string]any{"value": nil, "privacy": "Mozillians"}, out["date_mozillian"])
}

func TestSerializer_PhotoResolverError(t *testing.T) {
	s := NewSerializer(NewURLBuilder(testSite), stubPhotos{err: errors.New("store down")}, upperMarkup{})
	p := directorytest.NewCompleteProfile("alice")

	_, err := s.ProfileDetail(context.Background(), p, directory.PrivacyMozillians)
	assert.ErrorContains(t, err, "store down")

	// photo is not visible to anonymous requesters, so the resolver is not consulted
	_, err = s.ProfileDetail(context.Background(), p, directory.PrivacyPublic)
	assert.NoError(t, err)
}

func TestSerializer_ProfileV1(t *testing.T) {
	s := newTestSerializer()
	p := directorytest.NewCompleteProfile("alice")
	p.Bio = "hi"
	p.SetLocation(&directory.Country{Code: "de", Name: "Germany"}, nil, nil)

	doc, err := s.ProfileV1(context.Background(), p, directory.PrivacyMozillians)
	require.NoError(t, err)
	bio, _ := doc.Get("bio")
	country, _ := doc.Get("country")
	photo, _ := doc.Get("photo")
	resource, _ := doc.Get("resource_uri")
	assert.Equal(t, "<p>hi</p>", bio)
	assert.Equal(t, "de", country)
	assert.Equal(t, "https://gravatar.test/alice@example.com/300", photo)
	assert.Equal(t, testSite+"/api/v1/users/"+p.ID.String()+"/", resource)
	assert.False(t, doc.Has("region"))

	doc, err = s.ProfileV1(context.Background(), p, directory.PrivacyPublic)
	require.NoError(t, err)
	assert.False(t, doc.Has("email"))
	assert.False(t, doc.Has("bio"))
	assert.True(t, doc.Has("username"))
}

func TestSerializer_Groups(t *testing.T) {
	s := newTestSerializer()
	g, err := directory.NewGroup("Web Dev")
	require.NoError(t, err)
	g.MemberCount = 2
	member := directory.GroupMember{ProfileID: uuid.New(), Username: "bob", PrivacyGroups: directory.PrivacyMozillians}

	summary := s.GroupSummary(g)
	assert.Equal(t, []string{"name", "_url", "member_count"}, summary.Keys())

	detail := s.GroupDetail(g, []directory.GroupMember{member})
	data, err := json.Marshal(detail)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Nil(t, out["curator"])
	assert.Equal(t, "yes", out["accepting_new_members"])
	assert.Equal(t, []any{map[string]any{
		"_url":     testSite + "/api/v2/users/" + member.ProfileID.String() + "/",
		"privacy":  "Mozillians",
		"username": "bob",
	}}, out["members"])

	curator := uuid.New()
	g.CuratorID = &curator
	c, _ := s.GroupDetail(g, nil).Get("curator")
	assert.Equal(t, testSite+"/api/v2/users/"+curator.String()+"/", c)

	v1 := s.GroupV1(g)
	n, _ := v1.Get("number_of_members")
	u, _ := v1.Get("url")
	assert.Equal(t, int64(2), n)
	assert.Equal(t, testSite+"/group/"+g.ID.String()+"/", u)
}

func TestSerializer_Skill(t *testing.T) {
	s := newTestSerializer()
	sk := &directory.Skill{ID: uuid.New(), Name: "go", Visible: true}

	assert.Equal(t, []string{"url", "name"}, s.Skill(APIv2, sk).Keys())
	assert.Equal(t, []string{"id", "name", "resource_uri"}, s.Skill(APIv1, sk).Keys())
}

func TestDocument_MarshalJSONKeepsOrder(t *testing.T) {
	d := Document{{"b", 1}, {"a", "x"}}
	d.Set("c", nil)
	d.Set("b", 2)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2,"a":"x","c":null}`, string(data))

	var empty Document
	data, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}
