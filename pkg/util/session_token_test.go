package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	sessionID := NewSessionID()

	token, err := IssueSessionToken(sessionID, "secret", time.Hour)
	require.NoError(t, err)

	got, err := ParseSessionToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, sessionID, got)
}

func TestSessionToken_Rejections(t *testing.T) {
	sessionID := NewSessionID()
	valid, err := IssueSessionToken(sessionID, "secret", time.Hour)
	require.NoError(t, err)
	expired, err := IssueSessionToken(sessionID, "secret", -time.Minute)
	require.NoError(t, err)
	notUUID, err := IssueSessionToken("cart-1", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken(valid, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseSessionToken(expired, "secret")
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = ParseSessionToken(notUUID, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseSessionToken("garbage", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = IssueSessionToken("", "secret", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminToken(t *testing.T) {
	hash, err := HashAdminToken("operator-token")
	require.NoError(t, err)

	assert.True(t, VerifyAdminToken(hash, "operator-token"))
	assert.False(t, VerifyAdminToken(hash, "wrong"))
	assert.False(t, VerifyAdminToken("", "operator-token"))
	assert.False(t, VerifyAdminToken(hash, ""))
}
