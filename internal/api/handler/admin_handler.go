package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wishlist/account-service/internal/api/middleware"
	"github.com/wishlist/account-service/internal/core/domain"
	"github.com/wishlist/account-service/internal/core/ports"
)

// AdminHandler serves the /v1/admin user management routes.
type AdminHandler struct {
	adminService ports.AdminService
}

func NewAdminHandler(adminService ports.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// List returns every user.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/admin/users [get]
func (h *AdminHandler) List(c echo.Context) error {
	users, err := h.adminService.ListUsers(c.Request().Context(), middleware.Token(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Create registers a user with an optional role (USER by default).
//
// @Summary      Create user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "Account details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/admin/users [post]
func (h *AdminHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := ports.SignUpInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
	}
	if req.Role != "" {
		role, err := domain.ParseRole(req.Role)
		if err != nil {
			return err
		}
		in.Role = role
	}

	user, err := h.adminService.CreateUser(c.Request().Context(), middleware.Token(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Update edits any user. Changing the role does not affect tokens the user
// already holds unless the service runs with REVOKE_ON_ROLE_CHANGE.
//
// @Summary      Update user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string             true  "Username"
// @Param        body      body      updateUserRequest  true  "Fields to change"
// @Success      200       {object}  userResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /v1/admin/users/{username} [put]
func (h *AdminHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := ports.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}
	if req.Role != nil {
		role, err := domain.ParseRole(*req.Role)
		if err != nil {
			return err
		}
		in.Role = &role
	}

	user, err := h.adminService.UpdateUser(c.Request().Context(), middleware.Token(c), c.Param("username"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete removes a user and revokes all of its sessions.
//
// @Summary      Delete user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  messageResponse
// @Failure      401       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /v1/admin/users/{username} [delete]
func (h *AdminHandler) Delete(c echo.Context) error {
	username := c.Param("username")
	if err := h.adminService.DeleteUser(c.Request().Context(), middleware.Token(c), username); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user deleted successfully " + username})
}
