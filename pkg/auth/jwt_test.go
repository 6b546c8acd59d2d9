package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmanager/internal/core/domain"
	"taskmanager/pkg/auth"
)

func testUser() domain.User {
	return domain.User{ID: 12, UUID: uuid.New(), Email: "ana@example.com"}
}

func TestJWT_IssueAndVerify(t *testing.T) {
	manager := auth.NewJWT(auth.DefaultConfig("secret"))
	user := testUser()

	token, expiresAt, err := manager.Issue(user, domain.AccessToken)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(3*time.Hour), expiresAt, time.Minute)

	claims, err := manager.Verify(token, domain.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, 12, claims.UserID)
	assert.Equal(t, user.UUID, claims.UserUUID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, domain.AccessToken, claims.Kind)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt, time.Second)
}

func TestJWT_UniqueTokenIDs(t *testing.T) {
	manager := auth.NewJWT(auth.DefaultConfig("secret"))

	a, _, _ := manager.Issue(testUser(), domain.AccessToken)
	b, _, _ := manager.Issue(testUser(), domain.AccessToken)

	ca, _ := manager.Verify(a, domain.AccessToken)
	cb, _ := manager.Verify(b, domain.AccessToken)

	assert.NotEqual(t, ca.TokenID, cb.TokenID)
}

func TestJWT_WrongKind(t *testing.T) {
	manager := auth.NewJWT(auth.DefaultConfig("secret"))

	refresh, _, _ := manager.Issue(testUser(), domain.RefreshToken)

	_, err := manager.Verify(refresh, domain.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = manager.Verify(refresh, domain.RefreshToken)
	assert.NoError(t, err)
}

func TestJWT_WrongSecret(t *testing.T) {
	token, _, _ := auth.NewJWT(auth.DefaultConfig("one")).Issue(testUser(), domain.AccessToken)

	_, err := auth.NewJWT(auth.DefaultConfig("two")).Verify(token, domain.AccessToken)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWT_Expired(t *testing.T) {
	config := auth.DefaultConfig("secret")
	config.AccessTokenTTL = -time.Minute

	manager := auth.NewJWT(config)
	token, _, _ := manager.Issue(testUser(), domain.AccessToken)

	_, err := manager.Verify(token, domain.AccessToken)

	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWT_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{UserID: 1, TokenType: "access"})
	signed, _ := token.SignedString(jwt.UnsafeAllowNoneSignatureType)

	_, err := auth.NewJWT(auth.DefaultConfig("secret")).Verify(signed, domain.AccessToken)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWT_Garbage(t *testing.T) {
	_, err := auth.NewJWT(auth.DefaultConfig("secret")).Verify("not-a-token", domain.AccessToken)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
