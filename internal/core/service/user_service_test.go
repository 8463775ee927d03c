package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storeline/commerce-api/internal/core/domain"
	"github.com/storeline/commerce-api/internal/core/ports"
)

func newUserFixture() (*stubUserRepo, *TokenCodec, *UserService) {
	repo := newStubUserRepo()
	codec := NewTokenCodec("session-secret", "reset-secret")
	svc := NewUserService(repo, NewPasswordHasher(4), codec, zerolog.Nop())
	return repo, codec, svc
}

func TestUserService_Profile(t *testing.T) {
	repo, _, svc := newUserFixture()
	user := seedUser(t, repo, "a@b.com", "secret1")

	profile, err := svc.Profile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.PasswordHash != "" {
		t.Fatalf("profile leaked the password hash")
	}
	if profile.Email != "a@b.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if _, err := svc.Profile(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_UpdateProfile_NoPasswordKeepsHash(t *testing.T) {
	repo, codec, svc := newUserFixture()
	user := seedUser(t, repo, "a@b.com", "secret1")
	before, _ := repo.FindByID(context.Background(), user.ID)

	updated, token, err := svc.UpdateProfile(context.Background(), user.ID, ports.ProfileUpdate{
		Name:   "New Name",
		Mobile: "555-0101",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "New Name" || updated.Mobile != "555-0101" {
		t.Fatalf("fields not applied: %+v", updated)
	}

	after, _ := repo.FindByID(context.Background(), user.ID)
	if after.PasswordHash != before.PasswordHash {
		t.Fatalf("hash changed on a save without a password field")
	}

	claims, err := codec.Verify(token, domain.PurposeSession)
	if err != nil || claims.SubjectID != user.ID {
		t.Fatalf("fresh session token invalid: %v", err)
	}
}

func TestUserService_UpdateProfile_PasswordRehash(t *testing.T) {
	repo, _, svc := newUserFixture()
	user := seedUser(t, repo, "a@b.com", "secret1")
	before, _ := repo.FindByID(context.Background(), user.ID)

	if _, _, err := svc.UpdateProfile(context.Background(), user.ID, ports.ProfileUpdate{Password: "newsecret"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	after, _ := repo.FindByID(context.Background(), user.ID)
	if after.PasswordHash == before.PasswordHash {
		t.Fatalf("hash unchanged after password update")
	}
	if after.PasswordHash == "newsecret" {
		t.Fatalf("password stored in plaintext")
	}
	if !NewPasswordHasher(4).Verify("newsecret", after.PasswordHash) {
		t.Fatalf("new hash does not match new password")
	}
}

func TestUserService_UpdateProfile_Addresses(t *testing.T) {
	repo, _, svc := newUserFixture()
	user := seedUser(t, repo, "a@b.com", "secret1")

	updated, _, err := svc.UpdateProfile(context.Background(), user.ID, ports.ProfileUpdate{
		ShippingAddress: &domain.Address{Street: "1 Main St", City: "Springfield", Country: "US"},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ShippingAddress == nil || updated.ShippingAddress.City != "Springfield" {
		t.Fatalf("shipping address not applied: %+v", updated.ShippingAddress)
	}
	if updated.BillingAddress != nil {
		t.Fatalf("billing address set without being in the command")
	}
}

func TestUserService_SetRole(t *testing.T) {
	repo, _, svc := newUserFixture()
	user := seedUser(t, repo, "a@b.com", "secret1")

	promoted, err := svc.SetRole(context.Background(), user.ID, true)
	if err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if !promoted.IsAdmin || promoted.Role != domain.RoleAdmin {
		t.Fatalf("promotion did not keep role and flag in step: %+v", promoted)
	}

	demoted, err := svc.SetRole(context.Background(), user.ID, false)
	if err != nil {
		t.Fatalf("demote failed: %v", err)
	}
	if demoted.IsAdmin || demoted.Role != domain.RoleCustomer {
		t.Fatalf("demotion did not keep role and flag in step: %+v", demoted)
	}
}

func TestUserService_List_Paging(t *testing.T) {
	repo, _, svc := newUserFixture()
	seedUser(t, repo, "a@b.com", "secret1")
	seedUser(t, repo, "b@b.com", "secret1")
	seedUser(t, repo, "c@b.com", "secret1")

	page, err := svc.List(context.Background(), ports.UserListFilter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.TotalUsers != 3 || page.TotalPages != 2 {
		t.Fatalf("unexpected totals: %+v", page)
	}
	if len(page.Users) != 2 {
		t.Fatalf("expected 2 users on page 1, got %d", len(page.Users))
	}
	for _, u := range page.Users {
		if u.PasswordHash != "" {
			t.Fatalf("listing leaked a password hash")
		}
	}

	// Out-of-range values fall back to defaults instead of erroring.
	page, err = svc.List(context.Background(), ports.UserListFilter{Page: -1, PageSize: 0})
	if err != nil {
		t.Fatalf("list with defaults failed: %v", err)
	}
	if page.Page != 1 || page.PageSize != defaultPageSize {
		t.Fatalf("defaults not applied: %+v", page)
	}
}

func TestUserService_List_EmptyPageIsNotNull(t *testing.T) {
	_, _, svc := newUserFixture()

	page, err := svc.List(context.Background(), ports.UserListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Users == nil {
		t.Fatalf("empty page must carry an empty slice, not nil")
	}
	if len(page.Users) != 0 || page.TotalUsers != 0 {
		t.Fatalf("expected an empty page, got %+v", page)
	}
}

func TestUserService_Dashboard(t *testing.T) {
	repo, _, svc := newUserFixture()
	recent := seedUser(t, repo, "a@b.com", "secret1")
	stale := seedUser(t, repo, "b@b.com", "secret1")

	// Age one account beyond the seven-day window.
	old, _ := repo.FindByID(context.Background(), stale.ID)
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -30)
	old.Cart = []domain.CartItem{{ProductID: "p1", Quantity: 3}}
	if _, err := repo.Update(context.Background(), old); err != nil {
		t.Fatalf("age user: %v", err)
	}
	_ = recent

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if stats.UserCount != 2 {
		t.Fatalf("expected 2 users, got %d", stats.UserCount)
	}
	if stats.NewUsersWeek != 1 {
		t.Fatalf("expected 1 new user this week, got %d", stats.NewUsersWeek)
	}
	if stats.CartItemTotal != 3 {
		t.Fatalf("expected 3 cart items, got %d", stats.CartItemTotal)
	}
}
