package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/storeline/commerce-api/internal/api/middleware"
	"github.com/storeline/commerce-api/internal/core/domain"
	"github.com/storeline/commerce-api/internal/core/ports"
)

type stubUserService struct {
	profileID  string
	update     *ports.ProfileUpdate
	listFilter *ports.UserListFilter
	roleID     string
	roleAdmin  bool
}

func (s *stubUserService) Profile(_ context.Context, id string) (*domain.User, error) {
	s.profileID = id
	return &domain.User{ID: id, Email: "a@b.com"}, nil
}

func (s *stubUserService) UpdateProfile(_ context.Context, id string, update ports.ProfileUpdate) (*domain.User, string, error) {
	s.update = &update
	return &domain.User{ID: id}, "fresh-token", nil
}

func (s *stubUserService) List(_ context.Context, filter ports.UserListFilter) (*ports.UserPage, error) {
	s.listFilter = &filter
	return &ports.UserPage{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (s *stubUserService) Get(_ context.Context, id string) (*domain.User, error) {
	if id == "missing" {
		return nil, domain.ErrUserNotFound
	}
	return &domain.User{ID: id}, nil
}

func (s *stubUserService) Delete(_ context.Context, _ string) error { return nil }

func (s *stubUserService) SetRole(_ context.Context, id string, isAdmin bool) (*domain.User, error) {
	s.roleID = id
	s.roleAdmin = isAdmin
	return &domain.User{ID: id, IsAdmin: isAdmin}, nil
}

func (s *stubUserService) Dashboard(_ context.Context) (*domain.DashboardStats, error) {
	return &domain.DashboardStats{UserCount: 7}, nil
}

func bindIdentity(c echo.Context, user *domain.User) {
	c.Set(middleware.ContextUser, user)
}

func TestUserHandler_Profile(t *testing.T) {
	e := newEcho()
	svc := &stubUserService{}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	bindIdentity(c, &domain.User{ID: "user-9"})

	if err := h.Profile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.profileID != "user-9" {
		t.Fatalf("profile fetched for wrong id: %q", svc.profileID)
	}
}

func TestUserHandler_Profile_NoIdentity(t *testing.T) {
	e := newEcho()
	h := NewUserHandler(&stubUserService{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := h.Profile(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials without bound identity, got %v", err)
	}
}

func TestUserHandler_UpdateProfile_ForwardsCommand(t *testing.T) {
	e := newEcho()
	svc := &stubUserService{}
	h := NewUserHandler(svc)

	req := jsonRequest(http.MethodPut, "/api/users/profile",
		`{"name":"New Name","password":"newsecret","shipping_address":{"city":"Springfield"}}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	bindIdentity(c, &domain.User{ID: "user-9"})

	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.update == nil {
		t.Fatalf("service not called")
	}
	if svc.update.Name != "New Name" || svc.update.Password != "newsecret" {
		t.Fatalf("command fields missing: %+v", svc.update)
	}
	if svc.update.ShippingAddress == nil || svc.update.ShippingAddress.City != "Springfield" {
		t.Fatalf("address not mapped: %+v", svc.update.ShippingAddress)
	}
	if svc.update.BillingAddress != nil {
		t.Fatalf("absent address must stay nil")
	}
}

func TestUserHandler_List_ParsesQuery(t *testing.T) {
	e := newEcho()
	svc := &stubUserService{}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users?page=3&page_size=25&search=ali", nil)
	rec := httptest.NewRecorder()

	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.listFilter.Page != 3 || svc.listFilter.PageSize != 25 || svc.listFilter.Search != "ali" {
		t.Fatalf("query not parsed: %+v", svc.listFilter)
	}
}

func TestUserHandler_SetRole(t *testing.T) {
	e := newEcho()
	svc := &stubUserService{}
	h := NewUserHandler(svc)

	req := jsonRequest(http.MethodPut, "/api/users/user-3/role", `{"is_admin":true}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("user-3")

	if err := h.SetRole(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if svc.roleID != "user-3" || !svc.roleAdmin {
		t.Fatalf("role change not forwarded: %s %v", svc.roleID, svc.roleAdmin)
	}
}

func TestUserHandler_SetRole_RequiresFlag(t *testing.T) {
	e := newEcho()
	h := NewUserHandler(&stubUserService{})

	req := jsonRequest(http.MethodPut, "/api/users/user-3/role", `{}`)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("user-3")

	err := h.SetRole(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing is_admin, got %v", err)
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	e := newEcho()
	h := NewUserHandler(&stubUserService{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/missing", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := h.Get(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
