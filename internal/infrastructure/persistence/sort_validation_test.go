package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortSpec_OrderBy(t *testing.T) {
	tests := []struct {
		name string
		spec sortSpec
		key  string
		dir  string
		want string
	}{
		{"default profile order", profileSort, "", "", "profiles.username ASC"},
		{"known key descending", profileSort, "full_name", "desc", "profiles.full_name DESC"},
		{"padded key and direction", profileSort, " date_vouched ", " DESC ", "profiles.date_vouched DESC"},
		{"unknown key", profileSort, "email", "asc", "profiles.username ASC"},
		{"injection in key", profileSort, "username; DROP TABLE profiles;--", "", "profiles.username ASC"},
		{"injection in direction", profileSort, "username", "DESC; DROP TABLE profiles", "profiles.username ASC"},
		{"keys are case sensitive", profileSort, "USERNAME", "", "profiles.username ASC"},
		{"group member count", groupSort, "member_count", "desc", "member_count DESC"},
		{"group default", groupSort, "date_joined", "", "directory_groups.name ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.orderBy(tt.key, tt.dir))
		})
	}
}

func TestSortSpec_FallbackIsWhitelisted(t *testing.T) {
	for _, spec := range []sortSpec{profileSort, groupSort} {
		assert.Contains(t, spec.columns, spec.fallback)
	}
}
