package pickup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"steeple/internal/checkin/models"
	"steeple/pkg/domain"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name             string
		level            ResolvedLevel
		authorized       bool
		requiresOverride bool
	}{
		{"no entry", ResolvedNoEntry, false, true},
		{"never", ResolvedNever, false, false},
		{"emergency only", ResolvedEmergencyOnly, false, true},
		{"always", ResolvedAlways, true, false},
		{"unknown level is a hard block", ResolvedLevel("garbage"), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Decide(tc.level)
			assert.Equal(t, tc.authorized, v.Authorized)
			assert.Equal(t, tc.requiresOverride, v.RequiresOverride)
			assert.NotEmpty(t, v.Message)
		})
	}
}

func TestMostRestrictive(t *testing.T) {
	always := &models.AuthorizedPickupEntry{Level: domain.LevelAlways}
	emergency := &models.AuthorizedPickupEntry{Level: domain.LevelEmergencyOnly}
	never := &models.AuthorizedPickupEntry{Level: domain.LevelNever}

	assert.Nil(t, mostRestrictive(nil))
	assert.Same(t, always, mostRestrictive([]*models.AuthorizedPickupEntry{always}))
	assert.Same(t, emergency, mostRestrictive([]*models.AuthorizedPickupEntry{always, emergency}))
	assert.Same(t, never, mostRestrictive([]*models.AuthorizedPickupEntry{always, never, emergency}))
	// Order does not matter.
	assert.Same(t, never, mostRestrictive([]*models.AuthorizedPickupEntry{never, always}))
}
