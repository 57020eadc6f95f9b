package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/policynav/policynav/pkg/errors"
)

const (
	Issuer   = "PolicyNav"
	Audience = "PolicyNavUsers"

	// PurposePasswordReset scopes a token to the reset operation only
	PurposePasswordReset = "password_reset"
)

// Claims carries the verified identity for a request. Purpose is empty for
// general session tokens and set for single-operation tokens.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
}

// IsSession reports whether the token is a general session token. A
// purpose-scoped token must never be honored as a session and vice versa.
func (c *Claims) IsSession() bool {
	return c.Purpose == ""
}

// TokenManager issues and verifies signed, expiring claim sets.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided secret and lifetime.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// IssueSession issues a signed session token for an authenticated user.
func (t *TokenManager) IssueSession(email, username, role string) (string, error) {
	return t.issue(Claims{
		RegisteredClaims: t.registered(email),
		Username:         username,
		Role:             role,
	})
}

// IssueResetToken issues a purpose-scoped token carrying only the subject
// email; it grants nothing beyond the reset operation itself.
func (t *TokenManager) IssueResetToken(email string) (string, error) {
	return t.issue(Claims{
		RegisteredClaims: t.registered(email),
		Purpose:          PurposePasswordReset,
	})
}

// Verify checks signature, expiry, issuer, and audience. It returns
// ErrInvalidToken on any mismatch or malformed input, never an unwrapped
// parser error.
func (t *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}

func (t *TokenManager) registered(subject string) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
}

func (t *TokenManager) issue(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}
