package persistence

import "strings"

// sortSpec whitelists the ordering keys a listing accepts. Keys map to SQL
// column expressions so nothing from the query string reaches ORDER BY.
type sortSpec struct {
	columns  map[string]string
	fallback string
}

var (
	profileSort = sortSpec{
		columns: map[string]string{
			"username":     "profiles.username",
			"full_name":    "profiles.full_name",
			"date_joined":  "profiles.date_joined",
			"date_vouched": "profiles.date_vouched",
		},
		fallback: "username",
	}
	groupSort = sortSpec{
		columns: map[string]string{
			"name":         "directory_groups.name",
			"member_count": "member_count",
		},
		fallback: "name",
	}
)

// orderBy returns "<column> ASC|DESC". Unknown keys use the fallback column
// and anything but "desc" sorts ascending.
func (s sortSpec) orderBy(key, dir string) string {
	col, ok := s.columns[strings.TrimSpace(key)]
	if !ok {
		col = s.columns[s.fallback]
	}
	return col + " " + sortDirection(dir)
}

func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "desc") {
		return "DESC"
	}
	return "ASC"
}
