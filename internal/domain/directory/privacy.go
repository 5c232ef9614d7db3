package directory

import (
	"strings"

	"github.com/mozillians/backend/internal/domain/shared"
)

// PrivacyLevel is an ordinal visibility tier. Higher levels disclose more:
// a requester at level L sees a field configured with minimum M iff L >= M.
type PrivacyLevel int

const (
	PrivacyUnknown    PrivacyLevel = 0
	PrivacyPublic     PrivacyLevel = 1
	PrivacyMozillians PrivacyLevel = 2
	PrivacyEmployees  PrivacyLevel = 3
	PrivacyPrivileged PrivacyLevel = 4
)

var privacyLabels = map[PrivacyLevel]string{
	PrivacyPublic:     "Public",
	PrivacyMozillians: "Mozillians",
	PrivacyEmployees:  "Employees",
	PrivacyPrivileged: "Privileged",
}

// AllPrivacyLevels returns the levels in ascending order of disclosure
func AllPrivacyLevels() []PrivacyLevel {
	return []PrivacyLevel{PrivacyPublic, PrivacyMozillians, PrivacyEmployees, PrivacyPrivileged}
}

// Label returns the human-readable name of the level
func (l PrivacyLevel) Label() string {
	if s, ok := privacyLabels[l]; ok {
		return s
	}
	return ""
}

// String implements fmt.Stringer
func (l PrivacyLevel) String() string {
	return l.Label()
}

// IsValid reports whether l is one of the defined levels
func (l PrivacyLevel) IsValid() bool {
	_, ok := privacyLabels[l]
	return ok
}

// Allows reports whether a requester at level l may see a value whose
// configured minimum is min.
func (l PrivacyLevel) Allows(min PrivacyLevel) bool {
	return l >= min
}

// ParsePrivacyLevel accepts a label ("public", "Mozillians", ...) case-insensitively
func ParsePrivacyLevel(s string) (PrivacyLevel, error) {
	s = strings.TrimSpace(s)
	for level, label := range privacyLabels {
		if strings.EqualFold(label, s) {
			return level, nil
		}
	}
	return PrivacyUnknown, shared.NewDomainError("INVALID_PRIVACY_LEVEL", "Unknown privacy level: "+s)
}
