package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storeline/commerce-api/internal/core/domain"
)

const (
	sessionTokenTTL = 30 * 24 * time.Hour
	resetTokenTTL   = time.Hour
)

// TokenClaims is the verified content of an accepted token.
type TokenClaims struct {
	SubjectID string
	Purpose   domain.TokenPurpose
	JTI       string
	ExpiresAt time.Time
}

// TokenCodec signs and verifies purpose-tagged HS256 tokens. Each purpose
// has its own secret and lifetime, so a leaked reset token can never be
// replayed as a session and rotating one secret leaves the other's tokens
// valid.
type TokenCodec struct {
	secrets   map[domain.TokenPurpose][]byte
	lifetimes map[domain.TokenPurpose]time.Duration
	now       func() time.Time
}

// NewTokenCodec builds a codec from the two process-wide secrets loaded at
// startup. Rotating a secret invalidates all outstanding tokens of that
// purpose.
func NewTokenCodec(sessionSecret, resetSecret string) *TokenCodec {
	return &TokenCodec{
		secrets: map[domain.TokenPurpose][]byte{
			domain.PurposeSession:       []byte(sessionSecret),
			domain.PurposePasswordReset: []byte(resetSecret),
		},
		lifetimes: map[domain.TokenPurpose]time.Duration{
			domain.PurposeSession:       sessionTokenTTL,
			domain.PurposePasswordReset: resetTokenTTL,
		},
		now: time.Now,
	}
}

// Issue signs a fresh token for subjectID with the purpose's secret and
// lifetime. The jti claim is unique per issuance.
func (c *TokenCodec) Issue(subjectID string, purpose domain.TokenPurpose) (string, error) {
	secret, ok := c.secrets[purpose]
	if !ok {
		return "", domain.ErrTokenPurpose
	}

	now := c.now().UTC()
	claims := jwt.MapClaims{
		"id":      subjectID,
		"purpose": string(purpose),
		"iat":     now.Unix(),
		"exp":     now.Add(c.lifetimes[purpose]).Unix(),
		"jti":     uuid.NewString(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// Lifetime returns the configured validity window for a purpose.
func (c *TokenCodec) Lifetime(purpose domain.TokenPurpose) time.Duration {
	return c.lifetimes[purpose]
}

// Verify checks signature, expiry, and purpose, in that order. Claims are
// never trusted before the signature passes. Every failure maps to one of
// the domain token sentinels.
func (c *TokenCodec) Verify(token string, expected domain.TokenPurpose) (*TokenClaims, error) {
	secret, ok := c.secrets[expected]
	if !ok {
		return nil, domain.ErrTokenPurpose
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, domain.ErrTokenSignature
		default:
			return nil, domain.ErrTokenMalformed
		}
	}
	if !parsed.Valid {
		return nil, domain.ErrTokenMalformed
	}

	purpose, _ := claims["purpose"].(string)
	if domain.TokenPurpose(purpose) != expected {
		return nil, domain.ErrTokenPurpose
	}

	subject, _ := claims["id"].(string)
	if subject == "" {
		return nil, domain.ErrTokenMalformed
	}

	out := &TokenClaims{
		SubjectID: subject,
		Purpose:   expected,
	}
	if jti, ok := claims["jti"].(string); ok {
		out.JTI = jti
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
