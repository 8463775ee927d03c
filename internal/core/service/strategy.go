package service

import (
	"context"
	"fmt"

	"github.com/storeline/commerce-api/internal/core/domain"
	"github.com/storeline/commerce-api/internal/core/ports"
)

// Strategy names understood by the dispatcher.
const (
	StrategyPassword = "password"
	StrategyBearer   = "bearer"
)

// PasswordStrategy verifies an email + plaintext password pair against the
// stored hash.
type PasswordStrategy struct {
	repo   ports.UserRepository
	hasher *PasswordHasher
}

func NewPasswordStrategy(repo ports.UserRepository, hasher *PasswordHasher) *PasswordStrategy {
	return &PasswordStrategy{repo: repo, hasher: hasher}
}

func (s *PasswordStrategy) Authenticate(ctx context.Context, creds ports.Credentials) (*domain.User, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, creds.Email)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(creds.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// BearerStrategy verifies a session token and resolves its subject. A valid
// token whose subject no longer exists is rejected: deleting an account
// revokes every session it held.
type BearerStrategy struct {
	repo  ports.UserRepository
	codec *TokenCodec
}

func NewBearerStrategy(repo ports.UserRepository, codec *TokenCodec) *BearerStrategy {
	return &BearerStrategy{repo: repo, codec: codec}
}

func (s *BearerStrategy) Authenticate(ctx context.Context, creds ports.Credentials) (*domain.User, error) {
	if creds.Token == "" {
		return nil, domain.ErrTokenMalformed
	}

	claims, err := s.codec.Verify(creds.Token, domain.PurposeSession)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.SubjectID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Dispatcher maps strategy names to implementations. It is built once at
// startup and passed by reference into the route layer; there is no global
// registry.
type Dispatcher struct {
	strategies map[string]ports.Strategy
}

// NewDispatcher wires the default password and bearer strategies. Additional
// strategies register through Register before the server starts.
func NewDispatcher(repo ports.UserRepository, hasher *PasswordHasher, codec *TokenCodec) *Dispatcher {
	return &Dispatcher{
		strategies: map[string]ports.Strategy{
			StrategyPassword: NewPasswordStrategy(repo, hasher),
			StrategyBearer:   NewBearerStrategy(repo, codec),
		},
	}
}

// Register adds or replaces a named strategy. Not safe for concurrent use
// with Authenticate; call only during startup wiring.
func (d *Dispatcher) Register(name string, s ports.Strategy) {
	d.strategies[name] = s
}

// Authenticate resolves one attempt through the named strategy.
func (d *Dispatcher) Authenticate(ctx context.Context, name string, creds ports.Credentials) (*domain.User, error) {
	strategy, ok := d.strategies[name]
	if !ok {
		return nil, fmt.Errorf("authenticate: unknown strategy %q", name)
	}
	return strategy.Authenticate(ctx, creds)
}
