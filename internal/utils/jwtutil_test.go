package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("s3cret", time.Hour)

	tok, exp, err := issuer.GenerateToken(4, 9, "chef@example.com", "ADMIN")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := issuer.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(4), claims.UserId)
	assert.Equal(t, int64(9), claims.RestaurantId)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestParseTokenRejects(t *testing.T) {
	issuer := NewTokenIssuer("s3cret", time.Hour)
	tok, _, err := issuer.GenerateToken(4, 9, "chef@example.com", "ADMIN")
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", time.Hour).ParseToken(tok)
	assert.Error(t, err)

	expired := NewTokenIssuer("s3cret", -time.Hour)
	expired.ttl = -time.Minute
	tok, _, err = expired.GenerateToken(4, 9, "chef@example.com", "ADMIN")
	require.NoError(t, err)
	_, err = issuer.ParseToken(tok)
	assert.Error(t, err)

	tok, _, err = issuer.GenerateToken(4, 0, "chef@example.com", "ADMIN")
	require.NoError(t, err)
	_, err = issuer.ParseToken(tok)
	assert.Error(t, err)

	_, err = issuer.ParseToken("not-a-token")
	assert.Error(t, err)
}
