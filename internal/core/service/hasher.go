package service

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher wraps bcrypt with a fixed cost. bcrypt embeds the salt in
// its output, so verification needs only the stored hash.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher with the given cost. Costs outside
// bcrypt's valid range fall back to the library default (10).
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash derives a salted one-way hash of plaintext. Each call produces a
// different string for the same input because a fresh salt is drawn.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plaintext matches the stored hash. The comparison
// is constant time. A malformed stored hash is a non-match, never an error:
// the caller must not be able to distinguish "corrupt record" from "wrong
// password" in the result it surfaces.
func (h *PasswordHasher) Verify(plaintext, passwordHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(plaintext)) == nil
}
