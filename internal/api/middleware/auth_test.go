package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storeline/commerce-api/internal/core/domain"
	"github.com/storeline/commerce-api/internal/core/ports"
)

type fakeAuthenticator struct {
	user *domain.User
	err  error

	gotStrategy string
	gotToken    string
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, strategy string, creds ports.Credentials) (*domain.User, error) {
	f.gotStrategy = strategy
	f.gotToken = creds.Token
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func newAuthContext(t *testing.T, header string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuth_ValidToken(t *testing.T) {
	auth := &fakeAuthenticator{user: &domain.User{
		ID:           "user-1",
		Email:        "a@b.com",
		PasswordHash: "should-be-stripped",
		Role:         domain.RoleCustomer,
	}}
	c, rec := newAuthContext(t, "Bearer some-token")

	called := false
	handler := Auth(auth, zerolog.Nop())(func(c echo.Context) error {
		called = true

		user, ok := c.Get(ContextUser).(*domain.User)
		if !ok || user == nil {
			t.Fatalf("user not bound to context")
		}
		if user.PasswordHash != "" {
			t.Fatalf("bound identity carries the password hash")
		}
		if c.Get(ContextUserID) != "user-1" {
			t.Fatalf("user_id not set")
		}
		if c.Get(ContextRole) != domain.RoleCustomer {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if auth.gotStrategy != "bearer" || auth.gotToken != "some-token" {
		t.Fatalf("wrong strategy dispatch: %s / %s", auth.gotStrategy, auth.gotToken)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	c, _ := newAuthContext(t, "")

	handler := Auth(&fakeAuthenticator{}, zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuth_WrongScheme(t *testing.T) {
	c, _ := newAuthContext(t, "Token abc")

	handler := Auth(&fakeAuthenticator{}, zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuth_TokenFailuresCollapse(t *testing.T) {
	for _, reason := range []error{
		domain.ErrTokenExpired,
		domain.ErrTokenSignature,
		domain.ErrTokenMalformed,
		domain.ErrUserNotFound, // deleted account holding a live token
	} {
		c, _ := newAuthContext(t, "Bearer stale")
		handler := Auth(&fakeAuthenticator{err: reason}, zerolog.Nop())(func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})

		if err := handler(c); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("reason %v: expected collapse to ErrInvalidCredentials, got %v", reason, err)
		}
	}
}

func TestAuth_InfrastructureErrorPassesThrough(t *testing.T) {
	storeDown := errors.New("store unavailable")
	c, _ := newAuthContext(t, "Bearer any")

	handler := Auth(&fakeAuthenticator{err: storeDown}, zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, storeDown) {
		t.Fatalf("infrastructure error must not collapse to 401, got %v", err)
	}
}
