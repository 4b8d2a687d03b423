package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "steeple/pkg/domain-errors"
)

func TestParseAuthorizationLevel(t *testing.T) {
	for _, valid := range []string{"never", "emergency_only", "always"} {
		l, err := ParseAuthorizationLevel(valid)
		require.NoError(t, err, valid)
		assert.True(t, l.IsValid())
	}

	for _, invalid := range []string{"", "sometimes", "NEVER"} {
		_, err := ParseAuthorizationLevel(invalid)
		require.Error(t, err, invalid)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), invalid)
	}
}

func TestMoreRestrictiveThan(t *testing.T) {
	assert.True(t, LevelNever.MoreRestrictiveThan(LevelEmergencyOnly))
	assert.True(t, LevelNever.MoreRestrictiveThan(LevelAlways))
	assert.True(t, LevelEmergencyOnly.MoreRestrictiveThan(LevelAlways))
	assert.False(t, LevelAlways.MoreRestrictiveThan(LevelNever))
	assert.False(t, LevelNever.MoreRestrictiveThan(LevelNever))

	// Unknown levels rank as strictest so bad data can only narrow access.
	garbage := AuthorizationLevel("garbage")
	assert.True(t, garbage.MoreRestrictiveThan(LevelEmergencyOnly))
	assert.False(t, LevelAlways.MoreRestrictiveThan(garbage))
}

func TestParseIDs(t *testing.T) {
	id := NewPersonID()

	parsed, err := ParsePersonID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.False(t, parsed.IsZero())

	for _, bad := range []string{"", "not-a-uuid", "00000000-0000-0000-0000-000000000000"} {
		_, err := ParsePersonID(bad)
		require.Error(t, err, bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), bad)
	}
}
