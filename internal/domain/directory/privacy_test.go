package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrivacyLevel_Allows(t *testing.T) {
	tests := []struct {
		requester PrivacyLevel
		min       PrivacyLevel
		want      bool
	}{
		{PrivacyPublic, PrivacyPublic, true},
		{PrivacyPublic, PrivacyMozillians, false},
		{PrivacyMozillians, PrivacyPublic, true},
		{PrivacyMozillians, PrivacyEmployees, false},
		{PrivacyEmployees, PrivacyEmployees, true},
		{PrivacyPrivileged, PrivacyPrivileged, true},
		{PrivacyEmployees, PrivacyPrivileged, false},
	}

	for _, tt := range tests {
		t.Run(tt.requester.Label()+"_sees_"+tt.min.Label(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.requester.Allows(tt.min))
		})
	}
}

func TestParsePrivacyLevel(t *testing.T) {
	level, err := ParsePrivacyLevel(" mozillians ")
	require.NoError(t, err)
	assert.Equal(t, PrivacyMozillians, level)

	_, err = ParsePrivacyLevel("friends")
	assert.Error(t, err)
}

func TestPrivacyLevel_Labels(t *testing.T) {
	for _, l := range AllPrivacyLevels() {
		assert.True(t, l.IsValid())
		assert.NotEmpty(t, l.Label())
	}
	assert.False(t, PrivacyUnknown.IsValid())
	assert.Equal(t, "", PrivacyLevel(9).Label())
}
