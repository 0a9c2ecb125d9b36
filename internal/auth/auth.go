// Package auth signs and verifies the bearer tokens the HTTP API runs on,
// and hashes account passwords for storage.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/superdrive/vehicle-ledger/internal/models"
)

var (
	// ErrInvalidToken covers malformed, unsigned and mis-signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for well-formed tokens past their expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Service issues tokens signed with a shared HMAC secret. The secret and
// token lifetime come from configuration.
type Service struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates a token service.
func NewService(secret string, tokenTTL time.Duration) *Service {
	return &Service{secret: []byte(secret), tokenTTL: tokenTTL}
}

// tokenClaims is the token payload. The user ID travels in the registered
// subject claim.
type tokenClaims struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed token carrying the user's identity and role.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken verifies a token's signature and expiry and returns its
// claims. A leading "Bearer " prefix is tolerated.
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || !models.IsValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}

	var exp int64
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Unix()
	}
	return &models.Claims{
		UserID:   claims.Subject,
		Username: claims.Username,
		Role:     claims.Role,
		Exp:      exp,
	}, nil
}

// GenerateRefreshToken returns an opaque random token. Refresh tokens are
// not self-describing; the server stores nothing about them beyond what the
// client presents.
func (s *Service) GenerateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the password matches the stored hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidateUsername rejects usernames outside 3 to 50 characters.
func ValidateUsername(username string) error {
	if n := len(username); n < 3 || n > 50 {
		return errors.New("username must be between 3 and 50 characters")
	}
	return nil
}

// ValidateEmail is a light sanity check, not RFC validation.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || !strings.Contains(email[at:], ".") {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}
