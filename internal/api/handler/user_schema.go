package handler

import (
	"time"

	"github.com/wishlist/account-service/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Request types ---

type signUpRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
	Email     string `json:"email"      validate:"required,email"`
	Username  string `json:"username"   validate:"required"`
	Password  string `json:"password"   validate:"required,min=6"`
}

type createUserRequest struct {
	signUpRequest
	Role string `json:"role" validate:"omitempty,oneof=ADMIN USER admin user"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" validate:"omitempty,email"`
}

type changePasswordRequest struct {
	NewPassword     string `json:"new_password"     validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type deleteAccountRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"    validate:"omitempty,email"`
	Role      *string `json:"role"     validate:"omitempty,oneof=ADMIN USER admin user"`
	Password  *string `json:"password" validate:"omitempty,min=6"`
}

// --- Response types ---

type userResponse struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		UserID:    u.UserID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}
