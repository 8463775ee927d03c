package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/storeline/commerce-api/internal/core/domain"
	"github.com/storeline/commerce-api/internal/core/ports"
)

// stubUserRepo is an in-memory ports.UserRepository for service tests.
type stubUserRepo struct {
	users  map[string]*domain.User // keyed by id
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, filter ports.UserListFilter) ([]*domain.User, int64, error) {
	var matched []*domain.User
	for _, u := range r.users {
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(u.Email), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, cloneUser(u))
	}

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *stubUserRepo) DashboardStats(_ context.Context, since time.Time) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{UserCount: int64(len(r.users))}
	for _, u := range r.users {
		if !u.CreatedAt.Before(since) {
			stats.NewUsersWeek++
		}
		for _, item := range u.Cart {
			stats.CartItemTotal += int64(item.Quantity)
		}
	}
	return stats, nil
}

// stubDenylist records used jtis in memory.
type stubDenylist struct {
	used map[string]bool
}

func newStubDenylist() *stubDenylist {
	return &stubDenylist{used: make(map[string]bool)}
}

func (d *stubDenylist) IsUsed(_ context.Context, jti string) (bool, error) {
	return d.used[jti], nil
}

func (d *stubDenylist) MarkUsed(_ context.Context, jti string, _ time.Duration) error {
	d.used[jti] = true
	return nil
}

// stubLimiter allows everything unless told otherwise.
type stubLimiter struct {
	deny bool
}

func (l *stubLimiter) Allow(_ context.Context, _ string) (bool, error) {
	return !l.deny, nil
}

// stubMailQueue captures enqueued reset mails.
type stubMailQueue struct {
	sent []ports.ResetMailInput
}

func (q *stubMailQueue) Enqueue(mail ports.ResetMailInput) {
	q.sent = append(q.sent, mail)
}
