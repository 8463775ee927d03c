package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/storeline/commerce-api/internal/core/ports"
)

type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Profile returns the authenticated caller's own record.
//
// @Summary      Get own profile
// @Tags         users
// @Produce      json
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/users/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	profile, err := h.userService.Profile(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{User: profile})
}

// UpdateProfile applies a partial update to the caller's record and returns
// a fresh session token alongside the updated user.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  profileResponse
// @Failure      401   {object}  map[string]string
// @Router       /api/users/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, token, err := h.userService.UpdateProfile(c.Request().Context(), user.ID, req.toCommand())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{User: updated, Token: token})
}

// List returns a page of users for the admin console.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        page       query     int     false  "Page number"
// @Param        page_size  query     int     false  "Page size"
// @Param        search     query     string  false  "Name or email search"
// @Success      200  {object}  ports.UserPage
// @Failure      403  {object}  map[string]string
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	result, err := h.userService.List(c.Request().Context(), ports.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   c.QueryParam("search"),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Get returns a single user by id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.userService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete removes a user account.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.userService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user removed"})
}

// SetRole promotes or demotes a user.
//
// @Summary      Update a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "User id"
// @Param        body  body      setRoleRequest  true  "Admin flag"
// @Success      200   {object}  domain.User
// @Failure      404   {object}  map[string]string
// @Router       /api/users/{id}/role [put]
func (h *UserHandler) SetRole(c echo.Context) error {
	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.SetRole(c.Request().Context(), c.Param("id"), *req.IsAdmin)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// Dashboard returns aggregate user statistics for the admin dashboard.
//
// @Summary      Admin dashboard summary
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.DashboardStats
// @Failure      403  {object}  map[string]string
// @Router       /api/dashboard [get]
func (h *UserHandler) Dashboard(c echo.Context) error {
	stats, err := h.userService.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
