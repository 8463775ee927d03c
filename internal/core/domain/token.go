package domain

import "errors"

// TokenPurpose discriminates what a signed token may be used for. A token
// issued for one purpose is never accepted where another is required.
type TokenPurpose string

const (
	PurposeSession       TokenPurpose = "session"
	PurposePasswordReset TokenPurpose = "password_reset"
)

var ErrTokenMalformed = errors.New("malformed token")
var ErrTokenExpired = errors.New("token expired")
var ErrTokenSignature = errors.New("token signature mismatch")
var ErrTokenPurpose = errors.New("token purpose mismatch")
var ErrTokenReplayed = errors.New("token already used")

// TokenFailure reports whether err belongs to the token rejection taxonomy.
func TokenFailure(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenSignature) ||
		errors.Is(err, ErrTokenPurpose) ||
		errors.Is(err, ErrTokenReplayed)
}
