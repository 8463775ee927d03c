package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/storeline/commerce-api/internal/api/metrics"
	"github.com/storeline/commerce-api/internal/core/domain"
	"github.com/storeline/commerce-api/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// UserService covers profile self-service and admin user management.
type UserService struct {
	repo   ports.UserRepository
	hasher *PasswordHasher
	codec  *TokenCodec
	log    zerolog.Logger
}

func NewUserService(repo ports.UserRepository, hasher *PasswordHasher, codec *TokenCodec, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, hasher: hasher, codec: codec, log: log}
}

// Profile returns the caller's own record without the password hash.
func (s *UserService) Profile(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// UpdateProfile applies an update command to a freshly loaded record and
// returns the updated user plus a fresh session token. The password hash is
// recomputed only when the command carries a password; every other save
// leaves the stored hash untouched.
func (s *UserService) UpdateProfile(ctx context.Context, id string, update ports.ProfileUpdate) (*domain.User, string, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if update.Name != "" {
		user.Name = update.Name
	}
	if update.Username != "" {
		user.Username = update.Username
	}
	if update.Email != "" {
		user.Email = normalizeEmail(update.Email)
	}
	if update.Mobile != "" {
		user.Mobile = update.Mobile
	}
	if update.ShippingAddress != nil {
		user.ShippingAddress = update.ShippingAddress
	}
	if update.BillingAddress != nil {
		user.BillingAddress = update.BillingAddress
	}
	if update.Password != "" {
		if len(update.Password) < minPasswordLength {
			return nil, "", domain.ErrInvalidCredentials
		}
		hash, err := s.hasher.Hash(update.Password)
		if err != nil {
			return nil, "", fmt.Errorf("update profile: %w", err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, "", err
	}

	token, err := s.codec.Issue(updated.ID, domain.PurposeSession)
	if err != nil {
		return nil, "", fmt.Errorf("update profile: issue token: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(domain.PurposeSession)).Inc()

	s.log.Info().Str("user_id", updated.ID).Bool("password_changed", update.Password != "").Msg("profile updated")
	return updated.Sanitized(), token, nil
}

// List returns one page of users for the admin console.
func (s *UserService) List(ctx context.Context, filter ports.UserListFilter) (*ports.UserPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	// An empty page still serializes as [], never null.
	if users == nil {
		users = []*domain.User{}
	}
	for i, u := range users {
		users[i] = u.Sanitized()
	}

	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	return &ports.UserPage{
		Users:      users,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalUsers: total,
		TotalPages: totalPages,
	}, nil
}

// Get returns a single user by id for the admin console.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// Delete removes a user record. Outstanding session tokens for the account
// die with it: the bearer strategy rejects a token whose subject is gone.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// SetRole flips the admin flag, keeping the role string in step with it.
func (s *UserService) SetRole(ctx context.Context, id string, isAdmin bool) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.IsAdmin = isAdmin
	if isAdmin {
		user.Role = domain.RoleAdmin
	} else {
		user.Role = domain.RoleCustomer
	}
	user.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id).Bool("is_admin", isAdmin).Msg("role updated")
	return updated.Sanitized(), nil
}

// Dashboard aggregates user counts for the admin dashboard. "New" means
// created within the last seven days.
func (s *UserService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	since := time.Now().UTC().AddDate(0, 0, -7)
	return s.repo.DashboardStats(ctx, since)
}
