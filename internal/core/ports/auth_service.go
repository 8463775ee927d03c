package ports

import (
	"context"

	"github.com/storeline/commerce-api/internal/core/domain"
)

// Credentials is the strategy-agnostic input to an authentication attempt.
// A password attempt fills Email+Password; a bearer attempt fills Token.
type Credentials struct {
	Email    string
	Password string
	Token    string
}

// Strategy resolves credentials to a verified user or a typed rejection.
// Implementations must return domain sentinel errors so callers can map the
// failure without knowing which strategy ran.
type Strategy interface {
	Authenticate(ctx context.Context, creds Credentials) (*domain.User, error)
}

// RegisterInput is the payload for creating a new account.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
	Mobile   string
}

// AuthService implements registration, login, and the password-reset flow.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Authenticate(ctx context.Context, strategy string, creds Credentials) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}
