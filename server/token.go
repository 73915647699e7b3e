package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/discograf/discograf/config"
	"github.com/discograf/discograf/errors"
)

// TokenManager issues and verifies access tokens, and mints the opaque
// refresh tokens stored in the database as hashes
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a TokenManager from the JWT configuration
func NewTokenManager(cfg config.JWT) *TokenManager {
	return &TokenManager{
		secret:     []byte(cfg.Secret),
		accessTTL:  time.Duration(cfg.AccessTTL) * time.Second,
		refreshTTL: time.Duration(cfg.RefreshTTL) * time.Second,
	}
}

// AccessTTL is the configured access token lifetime
func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// RefreshTTL is the configured refresh token lifetime
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// IssueAccess signs a short-lived HS256 access token for the user
func (m *TokenManager) IssueAccess(username string) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, 500, "sign access token")
	}

	return token, nil
}

// VerifyAccess parses and validates an access token, returning its subject
func (m *TokenManager) VerifyAccess(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Unauthorized("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errors.Unauthorized("invalid access token")
	}

	return claims.Subject, nil
}

// IssueRefresh mints a random opaque refresh token
func (m *TokenManager) IssueRefresh() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, 500, "generate refresh token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashRefresh derives the storable hash of a refresh token. Only the hash
// ever touches the database.
func HashRefresh(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
