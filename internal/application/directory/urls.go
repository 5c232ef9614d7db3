package directory

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// API versions served side by side
const (
	APIv1 = "v1"
	APIv2 = "v2"
)

// URLBuilder renders absolute links to API resources and profile pages
type URLBuilder struct {
	base string
}

// NewURLBuilder creates a builder rooted at siteURL
func NewURLBuilder(siteURL string) URLBuilder {
	return URLBuilder{base: strings.TrimRight(siteURL, "/")}
}

func (b URLBuilder) api(version, collection string, id uuid.UUID) string {
	return b.base + "/api/" + version + "/" + collection + "/" + id.String() + "/"
}

// Profile returns the API URL of a profile
func (b URLBuilder) Profile(version string, id uuid.UUID) string {
	return b.api(version, "users", id)
}

// Group returns the API URL of a group
func (b URLBuilder) Group(version string, id uuid.UUID) string {
	return b.api(version, "groups", id)
}

// Skill returns the API URL of a skill
func (b URLBuilder) Skill(version string, id uuid.UUID) string {
	return b.api(version, "skills", id)
}

// ProfilePage returns the public page of a profile
func (b URLBuilder) ProfilePage(username string) string {
	return b.base + "/u/" + url.PathEscape(username) + "/"
}

// GroupPage returns the public page of a group
func (b URLBuilder) GroupPage(id uuid.UUID) string {
	return b.base + "/group/" + id.String() + "/"
}

// Collection returns the API URL of a collection with the given query
func (b URLBuilder) Collection(version, collection string, query url.Values) string {
	u := b.base + "/api/" + version + "/" + collection + "/"
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
