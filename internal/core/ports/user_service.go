package ports

import (
	"context"

	"github.com/storeline/commerce-api/internal/core/domain"
)

// ProfileUpdate is an explicit update command. Only non-zero fields are
// applied to a freshly loaded user, so the "re-hash only when the password
// field is present" rule lives in exactly one code path.
type ProfileUpdate struct {
	Name            string
	Username        string
	Email           string
	Mobile          string
	Password        string
	ShippingAddress *domain.Address
	BillingAddress  *domain.Address
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users      []*domain.User `json:"users"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalUsers int64          `json:"total_users"`
	TotalPages int            `json:"total_pages"`
}

// UserService covers profile self-service and admin user management.
type UserService interface {
	Profile(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.User, string, error)
	List(ctx context.Context, filter UserListFilter) (*UserPage, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	SetRole(ctx context.Context, id string, isAdmin bool) (*domain.User, error)
	Dashboard(ctx context.Context) (*domain.DashboardStats, error)
}
