package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storeline/commerce-api/internal/core/domain"
	"github.com/storeline/commerce-api/internal/core/ports"
	"github.com/storeline/commerce-api/internal/core/service"
)

// Context keys under which the resolved identity is stored.
const (
	ContextUser   = "user"
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// Authenticator resolves credentials through a named strategy.
type Authenticator interface {
	Authenticate(ctx context.Context, strategy string, creds ports.Credentials) (*domain.User, error)
}

// Auth binds the bearer strategy to the request: it extracts the token from
// the Authorization header, re-verifies it, and attaches the sanitized user
// to the echo context. Any failure surfaces as the generic invalid
// credentials rejection; the specific reason goes to the log only.
func Auth(auth Authenticator, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return domain.ErrInvalidCredentials
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return domain.ErrInvalidCredentials
			}

			user, err := auth.Authenticate(c.Request().Context(), service.StrategyBearer, ports.Credentials{Token: parts[1]})
			if err != nil {
				log.Info().
					AnErr("reason", err).
					Str("path", c.Path()).
					Msg("bearer authentication rejected")
				if domain.TokenFailure(err) || errors.Is(err, domain.ErrUserNotFound) {
					return domain.ErrInvalidCredentials
				}
				return err
			}

			sanitized := user.Sanitized()
			c.Set(ContextUser, sanitized)
			c.Set(ContextUserID, sanitized.ID)
			c.Set(ContextRole, sanitized.Role)

			return next(c)
		}
	}
}
