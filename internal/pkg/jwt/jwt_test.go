package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, exp, err := svc.GenerateAccessToken("ana", true)
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)

	actor, err := ActorFromClaims(claims, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "ana", actor.ID)
	assert.True(t, actor.Admin)

	_, err = ActorFromClaims(claims, TokenTypeSSE)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestActorFromContext(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	token, _, err := svc.GenerateSSEToken("luis", false)
	require.NoError(t, err)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	ctx := jwtauth.NewContext(context.Background(), decoded, nil)

	actor, err := ActorFromContext(ctx, TokenTypeAccess, TokenTypeSSE)
	require.NoError(t, err)
	assert.Equal(t, "luis", actor.ID)
	assert.False(t, actor.Admin)
}

func TestActorFromClaims_MissingEmployee(t *testing.T) {
	_, err := ActorFromClaims(map[string]interface{}{"type": TokenTypeAccess}, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
