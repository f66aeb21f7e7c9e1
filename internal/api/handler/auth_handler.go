package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wishlist/account-service/internal/api/metrics"
	"github.com/wishlist/account-service/internal/api/middleware"
	"github.com/wishlist/account-service/internal/core/domain"
	"github.com/wishlist/account-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUp creates a USER account.
//
// @Summary      Sign up
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Account details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/users/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.SignUp(c.Request().Context(), ports.SignUpInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login authenticates a user and returns an access token.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	return h.login(c, "user", "")
}

// AdminLogin authenticates an ADMIN account. Non-admin accounts are refused
// exactly like bad credentials.
//
// @Summary      Admin login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/admin/login [post]
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	return h.login(c, "admin", domain.RoleAdmin)
}

func (h *AuthHandler) login(c echo.Context, kind string, role domain.Role) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var (
		token string
		user  *domain.User
		err   error
	)
	if role == "" {
		token, user, err = h.authService.Login(ctx, req.Username, req.Password)
	} else {
		token, user, err = h.authService.LoginAs(ctx, req.Username, req.Password, role)
	}
	if err != nil {
		result := "error"
		if errors.Is(err, domain.ErrUnauthorized) {
			result = "rejected"
		}
		metrics.LoginAttemptsTotal.WithLabelValues(kind, result).Inc()
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues(kind, "success").Inc()
	metrics.SessionsIssuedTotal.Inc()
	return c.JSON(http.StatusOK, loginResponse{AccessToken: token, User: toUserResponse(user)})
}

// Logout invalidates the presented token.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/users/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), middleware.Token(c)); err != nil {
		return err
	}
	metrics.SessionsInvalidatedTotal.WithLabelValues("logout").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "user logged out successfully"})
}

// UpdateProfile edits the caller's own profile.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Profile fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/users/me [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), middleware.Token(c), ports.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// ChangePassword sets a new password. The presented token stops working and
// a replacement is returned.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "New password and confirmation"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/users/me/password [patch]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	token, err := h.authService.ChangePassword(c.Request().Context(), middleware.Token(c), req.NewPassword, req.ConfirmPassword)
	if err != nil {
		return err
	}

	metrics.SessionsInvalidatedTotal.WithLabelValues("password_change").Inc()
	metrics.SessionsIssuedTotal.Inc()
	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token})
}

// DeleteAccount removes the caller's own account.
//
// @Summary      Delete own account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      deleteAccountRequest  true  "Username and password of the caller"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/users/me [delete]
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	var req deleteAccountRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authService.DeleteOwnAccount(c.Request().Context(), middleware.Token(c), req.Username, req.Password); err != nil {
		return err
	}

	metrics.SessionsInvalidatedTotal.WithLabelValues("account_deleted").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "user deleted successfully " + req.Username})
}
