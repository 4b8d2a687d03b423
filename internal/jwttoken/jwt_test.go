package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := New("test-signing-key", "steeple", "steeple-terminals")
	actor := domain.Actor{ID: domain.NewActorID(), Name: "Front Desk", Roles: []string{"staff"}}

	token, err := svc.GenerateAccessToken(actor, "terminal-1", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor.ID.String(), claims.ActorID)
	assert.Equal(t, "terminal-1", claims.TerminalID)

	parsed, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, actor.ID, parsed.ID)
	assert.Equal(t, actor.Roles, parsed.Roles)
	assert.True(t, parsed.IsAuthenticated())
}

func TestValidateTokenRejections(t *testing.T) {
	svc := New("test-signing-key", "steeple", "steeple-terminals")
	actor := domain.Actor{ID: domain.NewActorID(), Name: "Front Desk"}

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(actor, "terminal-1", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := New("different-key", "steeple", "steeple-terminals")
		token, err := other.GenerateAccessToken(actor, "terminal-1", time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		require.Error(t, err)
	})
}

func TestServiceAdapter(t *testing.T) {
	svc := New("test-signing-key", "steeple", "steeple-terminals")
	actor := domain.Actor{ID: domain.NewActorID(), Name: "Front Desk"}
	token, err := svc.GenerateAccessToken(actor, "terminal-7", time.Hour)
	require.NoError(t, err)

	claims, err := NewServiceAdapter(svc).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor.ID, claims.Actor.ID)
	assert.Equal(t, "terminal-7", claims.TerminalID)
}
