package ports

import (
	"context"
	"time"

	"github.com/storeline/commerce-api/internal/core/domain"
)

// UserListFilter carries pagination and optional free-text search for the
// admin user listing. Search matches name or email, case-insensitively.
type UserListFilter struct {
	Page     int
	PageSize int
	Search   string
}

// UserRepository defines the persistence contract for user records. Every
// lookup is single-record and keyed; the implementation is expected to keep a
// unique index on email.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter UserListFilter) ([]*domain.User, int64, error)
	DashboardStats(ctx context.Context, since time.Time) (*domain.DashboardStats, error)
}
