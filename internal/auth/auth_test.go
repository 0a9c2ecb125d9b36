package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

func newTestService() *Service {
	return NewService("test-secret", time.Hour)
}

func testUser() *models.User {
	return &models.User{
		ID:       "u-1",
		Username: "joana",
		Role:     models.RoleOperator,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateToken(testUser())
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "joana", claims.Username)
	assert.Equal(t, models.RoleOperator, claims.Role)
	assert.Greater(t, claims.Exp, time.Now().Unix())
}

func TestValidateTokenToleratesBearerPrefix(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateToken(testUser())
	assert.NoError(t, err)

	_, err = svc.ValidateToken("Bearer " + token)
	assert.NoError(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewService("secret-a", time.Hour).GenerateToken(testUser())
	assert.NoError(t, err)

	_, err = NewService("secret-b", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, err := svc.GenerateToken(testUser())
	assert.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestService()

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateToken(&models.User{ID: "u-2", Username: "x", Role: "superuser"})
	assert.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	assert.NoError(t, err)
	assert.NotEqual(t, "correct-horse-battery", hash)

	assert.True(t, VerifyPassword(hash, "correct-horse-battery"))
	assert.False(t, VerifyPassword(hash, "wrong-password"))
}

func TestGenerateRefreshTokenIsOpaqueAndUnique(t *testing.T) {
	svc := newTestService()

	first, err := svc.GenerateRefreshToken()
	assert.NoError(t, err)
	second, err := svc.GenerateRefreshToken()
	assert.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("joana"))
	assert.Error(t, ValidateUsername("jo"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", 51)))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("joana@frota.example.com"))
	assert.Error(t, ValidateEmail("joana.example.com"))
	assert.Error(t, ValidateEmail("joana@"))
	assert.Error(t, ValidateEmail("@frota.com"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("long-enough"))
	assert.Error(t, ValidatePassword("short"))
}
