package directory

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
)

// Ordering is a parsed sort instruction
type Ordering struct {
	Field string
	Order string // "asc" or "desc"
}

// ParseOrdering parses "key" or "-key" against the allowed keys. An empty
// value yields the default key ascending.
func ParseOrdering(raw string, allowed []string, def string) (Ordering, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ordering{Field: def, Order: "asc"}, nil
	}
	o := Ordering{Field: raw, Order: "asc"}
	if strings.HasPrefix(raw, "-") {
		o = Ordering{Field: raw[1:], Order: "desc"}
	}
	if !slices.Contains(allowed, o.Field) {
		return Ordering{}, invalidParameter("ordering", raw)
	}
	return o, nil
}

func invalidParameter(name, value string) error {
	return shared.NewDomainError(shared.ErrInvalidParameter.Code,
		fmt.Sprintf("Invalid value %q for parameter %s", value, name))
}

// CheckParams fails with InvalidParameter when query carries a key outside
// the given allowed sets.
func CheckParams(query url.Values, allowed ...[]string) error {
	var unknown []string
	for key := range query {
		known := false
		for _, set := range allowed {
			if slices.Contains(set, key) {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return shared.NewDomainError(shared.ErrInvalidParameter.Code,
		"Unknown query parameter: "+strings.Join(unknown, ", "))
}

// Query parameter names shared by list endpoints
var (
	PageParamsV1  = []string{"limit", "offset"}
	PageParamsV2  = []string{"page", "page_size"}
	OrderingParam = []string{"ordering"}
)

// PageQuery selects a window of a list. v2 clients page by number, v1
// clients by limit and offset.
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
	Limit    int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset   int `form:"offset" binding:"omitempty,min=0"`
}

// ToPage converts the query into a normalized window
func (q PageQuery) ToPage() shared.Page {
	if q.Limit > 0 || q.Offset > 0 {
		return shared.Page{Offset: q.Offset, Limit: q.Limit}.Normalize()
	}
	p := shared.Page{Limit: q.PageSize}.Normalize()
	if q.Page > 1 {
		p.Offset = (q.Page - 1) * p.Limit
	}
	return p
}

// ProfileListParams are the accepted filter keys of profile lists
var ProfileListParams = []string{"is_vouched", "vouched_by", "city", "region", "country", "country_code", "timezone", "tshirt"}

// ProfileListQuery is the bound query string of a profile list request
type ProfileListQuery struct {
	PageQuery
	IsVouched   *bool  `form:"is_vouched"`
	VouchedBy   string `form:"vouched_by" binding:"omitempty,uuid"`
	City        string `form:"city"`
	Region      string `form:"region"`
	Country     string `form:"country"`
	CountryCode string `form:"country_code" binding:"omitempty,max=2"`
	Timezone    string `form:"timezone"`
	Tshirt      *int   `form:"tshirt" binding:"omitempty,min=1"`
	Ordering    string `form:"ordering"`
}

// ToFilter validates the query and converts it to a repository filter
func (q ProfileListQuery) ToFilter() (directory.ProfileFilter, error) {
	ord, err := ParseOrdering(q.Ordering, directory.ProfileSortKeys, "username")
	if err != nil {
		return directory.ProfileFilter{}, err
	}
	f := directory.ProfileFilter{
		IsVouched:   q.IsVouched,
		City:        q.City,
		Region:      q.Region,
		Country:     q.Country,
		CountryCode: q.CountryCode,
		Timezone:    q.Timezone,
		SortBy:      ord.Field,
		SortOrder:   ord.Order,
		Page:        q.ToPage(),
	}
	if q.VouchedBy != "" {
		id, err := uuid.Parse(q.VouchedBy)
		if err != nil {
			return directory.ProfileFilter{}, invalidParameter("vouched_by", q.VouchedBy)
		}
		f.VouchedBy = &id
	}
	if q.Tshirt != nil {
		t := directory.Tshirt(*q.Tshirt)
		if !t.IsValid() {
			return directory.ProfileFilter{}, invalidParameter("tshirt", fmt.Sprint(*q.Tshirt))
		}
		f.Tshirt = &t
	}
	return f, nil
}

// GroupListParams are the accepted filter keys of group lists
var GroupListParams = []string{"name", "functional_area", "curator", "members_can_leave", "accepting_new_members"}

// GroupListQuery is the bound query string of a group list request
type GroupListQuery struct {
	PageQuery
	Name                string `form:"name"`
	FunctionalArea      *bool  `form:"functional_area"`
	Curator             string `form:"curator" binding:"omitempty,uuid"`
	MembersCanLeave     *bool  `form:"members_can_leave"`
	AcceptingNewMembers string `form:"accepting_new_members" binding:"omitempty,oneof=yes by_request no"`
	Ordering            string `form:"ordering"`
}

// ToFilter validates the query and converts it to a repository filter
func (q GroupListQuery) ToFilter() (directory.GroupFilter, error) {
	ord, err := ParseOrdering(q.Ordering, directory.GroupSortKeys, "name")
	if err != nil {
		return directory.GroupFilter{}, err
	}
	f := directory.GroupFilter{
		Name:                q.Name,
		FunctionalArea:      q.FunctionalArea,
		MembersCanLeave:     q.MembersCanLeave,
		AcceptingNewMembers: directory.AcceptingNewMembers(q.AcceptingNewMembers),
		SortBy:              ord.Field,
		SortOrder:           ord.Order,
		Page:                q.ToPage(),
	}
	if f.AcceptingNewMembers != "" && !f.AcceptingNewMembers.IsValid() {
		return directory.GroupFilter{}, invalidParameter("accepting_new_members", q.AcceptingNewMembers)
	}
	if q.Curator != "" {
		id, err := uuid.Parse(q.Curator)
		if err != nil {
			return directory.GroupFilter{}, invalidParameter("curator", q.Curator)
		}
		f.Curator = &id
	}
	return f, nil
}
