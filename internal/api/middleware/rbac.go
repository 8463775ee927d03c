package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/storeline/commerce-api/internal/core/domain"
)

// RequireRole gates a route on the caller's role. The admin flag overrides
// the role string. A request with no bound identity is an authentication
// failure (401); a bound identity with the wrong role is an authorization
// failure (403); the two are never conflated.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get(ContextUser).(*domain.User)
			if !ok || user == nil {
				return domain.ErrInvalidCredentials
			}
			if user.IsAdmin {
				return next(c)
			}
			if _, ok := allowed[user.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// RequireAdmin is shorthand for the admin-only gate.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(domain.RoleAdmin)
}
