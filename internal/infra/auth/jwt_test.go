package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/auth"
)

func testUser() *entity.User {
	return &entity.User{ID: 42, Email: "rep@example.com", Role: entity.RoleSalesRep}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", 30*time.Minute, 7*24*time.Hour)

	raw, err := tm.IssueAccess(testUser())
	assert.NoError(t, err)

	claims, err := tm.Verify(raw, auth.TokenAccess)
	assert.NoError(t, err)
	assert.Equal(t, "rep@example.com", claims.Email)
	assert.Equal(t, string(entity.RoleSalesRep), claims.Role)

	id, err := claims.UserID()
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenTypeEnforced(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", 30*time.Minute, 7*24*time.Hour)

	refresh, err := tm.IssueRefresh(testUser())
	assert.NoError(t, err)

	// A refresh token never passes as an access token.
	_, err = tm.Verify(refresh, auth.TokenAccess)
	assert.ErrorIs(t, err, auth.ErrWrongTokenUse)

	_, err = tm.Verify(refresh, auth.TokenRefresh)
	assert.NoError(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", -time.Minute, 7*24*time.Hour)

	raw, err := tm.IssueAccess(testUser())
	assert.NoError(t, err)

	_, err = tm.Verify(raw, auth.TokenAccess)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := auth.NewTokenManager("secret-a", 30*time.Minute, time.Hour)
	verifier := auth.NewTokenManager("secret-b", 30*time.Minute, time.Hour)

	raw, err := issuer.IssueAccess(testUser())
	assert.NoError(t, err)

	_, err = verifier.Verify(raw, auth.TokenAccess)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", 30*time.Minute, time.Hour)
	_, err := tm.Verify("not-a-jwt", auth.TokenAccess)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("password")
	assert.NoError(t, err)
	assert.NotEqual(t, "password", hash)

	assert.True(t, auth.CheckPassword("password", hash))
	assert.False(t, auth.CheckPassword("Password", hash))
	assert.False(t, auth.CheckPassword("password", ""))
}
