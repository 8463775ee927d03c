package handler

import (
	"github.com/storeline/commerce-api/internal/core/domain"
	"github.com/storeline/commerce-api/internal/core/ports"
)

type addressPayload struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a *addressPayload) toDomain() *domain.Address {
	if a == nil {
		return nil
	}
	return &domain.Address{
		Street:     a.Street,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// updateProfileRequest carries only the fields the caller wants to change;
// absent fields leave the stored values untouched.
type updateProfileRequest struct {
	Name            string          `json:"name"`
	Username        string          `json:"username"`
	Email           string          `json:"email" validate:"omitempty,email"`
	Mobile          string          `json:"mobile"`
	Password        string          `json:"password" validate:"omitempty,min=6"`
	ShippingAddress *addressPayload `json:"shipping_address"`
	BillingAddress  *addressPayload `json:"billing_address"`
}

func (r *updateProfileRequest) toCommand() ports.ProfileUpdate {
	return ports.ProfileUpdate{
		Name:            r.Name,
		Username:        r.Username,
		Email:           r.Email,
		Mobile:          r.Mobile,
		Password:        r.Password,
		ShippingAddress: r.ShippingAddress.toDomain(),
		BillingAddress:  r.BillingAddress.toDomain(),
	}
}

type setRoleRequest struct {
	IsAdmin *bool `json:"is_admin" validate:"required"`
}

type profileResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token,omitempty"`
}
