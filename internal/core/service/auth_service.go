package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storeline/commerce-api/internal/api/metrics"
	"github.com/storeline/commerce-api/internal/core/domain"
	"github.com/storeline/commerce-api/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements registration, login, and the password-reset flow on
// top of the strategy dispatcher, token codec, and hasher.
type AuthService struct {
	repo       ports.UserRepository
	hasher     *PasswordHasher
	codec      *TokenCodec
	dispatcher *Dispatcher
	denylist   ports.TokenDenylist
	limiter    ports.RateLimiter
	mailQueue  ports.MailQueue
	log        zerolog.Logger
}

func NewAuthService(
	repo ports.UserRepository,
	hasher *PasswordHasher,
	codec *TokenCodec,
	dispatcher *Dispatcher,
	denylist ports.TokenDenylist,
	limiter ports.RateLimiter,
	mailQueue ports.MailQueue,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:       repo,
		hasher:     hasher,
		codec:      codec,
		dispatcher: dispatcher,
		denylist:   denylist,
		limiter:    limiter,
		mailQueue:  mailQueue,
		log:        log,
	}
}

// Register creates a new customer account. The plaintext password is hashed
// exactly once here and discarded.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if in.Name == "" || in.Username == "" || email == "" || len(in.Password) < minPasswordLength {
		return nil, domain.ErrInvalidCredentials
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		Mobile:       in.Mobile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("email", created.Email).Msg("user registered")
	return created.Sanitized(), nil
}

// Login authenticates by password and returns a fresh session token. Every
// credential failure collapses to ErrInvalidCredentials before it leaves the
// service; the specific reason stays in the log so the HTTP surface cannot be
// used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, "login:"+email)
		if err != nil {
			s.log.Warn().Err(err).Msg("rate limiter unavailable, allowing attempt")
		} else if !allowed {
			metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
			return "", nil, domain.ErrRateLimited
		}
	}

	user, err := s.dispatcher.Authenticate(ctx, StrategyPassword, ports.Credentials{Email: email, Password: password})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInvalidCredentials) {
			s.log.Info().Str("email", email).AnErr("reason", err).Msg("login rejected")
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("login: %w", err)
	}

	token, err := s.codec.Issue(user.ID, domain.PurposeSession)
	if err != nil {
		return "", nil, fmt.Errorf("login: issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.TokensIssuedTotal.WithLabelValues(string(domain.PurposeSession)).Inc()
	s.log.Info().Str("user_id", user.ID).Msg("login succeeded")
	return token, user.Sanitized(), nil
}

// Authenticate exposes the strategy dispatcher to the transport layer.
func (s *AuthService) Authenticate(ctx context.Context, strategy string, creds ports.Credentials) (*domain.User, error) {
	return s.dispatcher.Authenticate(ctx, strategy, creds)
}

// RequestPasswordReset issues a reset token and queues the email. An unknown
// address produces the same nil result as a known one; only the log records
// the difference.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Info().Str("email", email).Msg("password reset requested for unknown address")
			return nil
		}
		return fmt.Errorf("request password reset: %w", err)
	}

	token, err := s.codec.Issue(user.ID, domain.PurposePasswordReset)
	if err != nil {
		return fmt.Errorf("request password reset: issue token: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(domain.PurposePasswordReset)).Inc()

	s.mailQueue.Enqueue(ports.ResetMailInput{
		User:    user.Sanitized(),
		Token:   token,
		Expires: time.Now().UTC().Add(s.codec.Lifetime(domain.PurposePasswordReset)),
	})

	s.log.Info().Str("user_id", user.ID).Msg("password reset token issued")
	return nil
}

// ResetPassword consumes a reset token and replaces the password hash. A
// token is single-use: its jti lands on the denylist once the new hash is
// saved, and stays there until the token would have expired on its own.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.ErrInvalidCredentials
	}

	claims, err := s.codec.Verify(token, domain.PurposePasswordReset)
	if err != nil {
		metrics.TokenRejectionsTotal.WithLabelValues(rejectionLabel(err)).Inc()
		return err
	}

	if claims.JTI != "" {
		used, err := s.denylist.IsUsed(ctx, claims.JTI)
		if err != nil {
			return fmt.Errorf("reset password: denylist: %w", err)
		}
		if used {
			metrics.TokenRejectionsTotal.WithLabelValues("replayed").Inc()
			return domain.ErrTokenReplayed
		}
	}

	user, err := s.repo.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// The subject was deleted after the token was issued. Collapse to
			// the generic credential failure so the response cannot confirm
			// the account ever existed.
			s.log.Info().Str("user_id", claims.SubjectID).Msg("reset token subject no longer exists")
			metrics.TokenRejectionsTotal.WithLabelValues("subject_gone").Inc()
			return domain.ErrInvalidCredentials
		}
		return fmt.Errorf("reset password: %w", err)
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	if claims.JTI != "" {
		ttl := time.Until(claims.ExpiresAt)
		if ttl <= 0 {
			ttl = time.Minute
		}
		if err := s.denylist.MarkUsed(ctx, claims.JTI, ttl); err != nil {
			s.log.Warn().Err(err).Str("jti", claims.JTI).Msg("failed to mark reset token used")
		}
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}

func (s *AuthService) hashPassword(plaintext string) (string, error) {
	start := time.Now()
	hash, err := s.hasher.Hash(plaintext)
	metrics.PasswordHashDuration.Observe(time.Since(start).Seconds())
	return hash, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenSignature):
		return "signature"
	case errors.Is(err, domain.ErrTokenPurpose):
		return "purpose"
	case errors.Is(err, domain.ErrTokenReplayed):
		return "replayed"
	default:
		return "malformed"
	}
}
