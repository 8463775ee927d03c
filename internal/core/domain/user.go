package domain

import (
	"errors"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrForbidden = errors.New("access forbidden")
var ErrRateLimited = errors.New("too many attempts")

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	return role == RoleCustomer || role == RoleAdmin
}

// Address is a shipping or billing address embedded in the user document.
type Address struct {
	Street     string `json:"street,omitempty" bson:"street,omitempty"`
	City       string `json:"city,omitempty" bson:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty" bson:"postal_code,omitempty"`
	Country    string `json:"country,omitempty" bson:"country,omitempty"`
}

// CartItem is a product reference held in the user's cart. The cart itself is
// managed outside this service; the field exists so dashboard aggregates can
// read it.
type CartItem struct {
	ProductID string `json:"product_id" bson:"product"`
	Quantity  int    `json:"quantity" bson:"quantity"`
}

// User is the authenticated principal. PasswordHash is never serialized to
// JSON; it only travels between the repository and the auth services.
type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Role            string     `json:"role"`
	IsAdmin         bool       `json:"is_admin"`
	Mobile          string     `json:"mobile,omitempty"`
	ShippingAddress *Address   `json:"shipping_address,omitempty"`
	BillingAddress  *Address   `json:"billing_address,omitempty"`
	Cart            []CartItem `json:"-"`
	Wishlist        []string   `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Sanitized returns a copy safe to hand to transport layers: the password
// hash is stripped, everything else is preserved.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// HasRole reports whether the user satisfies the required role. An admin
// flag overrides the role string so a legacy admin account whose role field
// was never migrated still passes admin gates.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin {
		return true
	}
	return u.Role == role
}

// DashboardStats is the admin dashboard aggregate over the users collection.
type DashboardStats struct {
	UserCount     int64 `json:"user_count"`
	NewUsersWeek  int64 `json:"new_users_week"`
	CartItemTotal int64 `json:"cart_item_total"`
}
