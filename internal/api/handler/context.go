package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/storeline/commerce-api/internal/api/middleware"
	"github.com/storeline/commerce-api/internal/core/domain"
)

// ctxUser extracts the identity bound by the Auth middleware. A missing or
// mistyped value means the middleware did not run on this route; fail closed
// rather than serving an anonymous request.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(middleware.ContextUser).(*domain.User)
	if !ok || user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
