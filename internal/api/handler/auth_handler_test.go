package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/wishlist/account-service/internal/api/middleware"
	"github.com/wishlist/account-service/internal/core/domain"
	"github.com/wishlist/account-service/internal/core/ports"
)

type stubAuthService struct {
	signUpFn         func(ctx context.Context, in ports.SignUpInput) (*domain.User, error)
	loginFn          func(ctx context.Context, username, password string) (string, *domain.User, error)
	loginAsFn        func(ctx context.Context, username, password string, role domain.Role) (string, *domain.User, error)
	logoutFn         func(ctx context.Context, token string) error
	changePasswordFn func(ctx context.Context, token, newPassword, confirmPassword string) (string, error)
	deleteFn         func(ctx context.Context, token, username, password string) error
	updateProfileFn  func(ctx context.Context, token string, in ports.ProfileInput) (*domain.User, error)
}

func (s *stubAuthService) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.User, error) {
	return s.signUpFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) LoginAs(ctx context.Context, username, password string, role domain.Role) (string, *domain.User, error) {
	return s.loginAsFn(ctx, username, password, role)
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, token, newPassword, confirmPassword string) (string, error) {
	return s.changePasswordFn(ctx, token, newPassword, confirmPassword)
}

func (s *stubAuthService) DeleteOwnAccount(ctx context.Context, token, username, password string) error {
	return s.deleteFn(ctx, token, username, password)
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, token string, in ports.ProfileInput) (*domain.User, error) {
	return s.updateProfileFn(ctx, token, in)
}

func newTestContext(method, target, body, token string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if token != "" {
		c.Set(middleware.ContextKeyToken, token)
	}
	return c, rec
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d", code, he.Code)
	}
}

func TestAuthHandler_SignUp_Success(t *testing.T) {
	stub := &stubAuthService{
		signUpFn: func(_ context.Context, in ports.SignUpInput) (*domain.User, error) {
			if in.Username != "alice" || in.Password != "secret1" || in.Email != "alice@example.com" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{UserID: 7, Username: in.Username, Email: in.Email, Role: domain.RoleUser, PasswordHash: "digest"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/v1/users/signup",
		`{"first_name":"Alice","last_name":"Liddell","email":"alice@example.com","username":"alice","password":"secret1"}`, "")
	if err := handler.SignUp(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" || resp["role"] != "USER" || resp["user_id"] != float64(7) {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "digest") {
		t.Fatalf("password digest leaked: %s", rec.Body.String())
	}
}

func TestAuthHandler_SignUp_ValidationFailure(t *testing.T) {
	stub := &stubAuthService{
		signUpFn: func(context.Context, ports.SignUpInput) (*domain.User, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newTestContext(http.MethodPost, "/v1/users/signup", `{"username":"bob","email":"not-an-email"}`, "")
	expectHTTPError(t, handler.SignUp(c), http.StatusBadRequest)
}

func TestAuthHandler_SignUp_UserExists(t *testing.T) {
	stub := &stubAuthService{
		signUpFn: func(context.Context, ports.SignUpInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newTestContext(http.MethodPost, "/v1/users/signup",
		`{"first_name":"B","last_name":"B","email":"b@example.com","username":"bob","password":"secret1"}`, "")
	if err := handler.SignUp(c); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, username, password string) (string, *domain.User, error) {
			if username != "alice" || password != "secret1" {
				t.Fatalf("unexpected credentials: %s %s", username, password)
			}
			return "token-123", &domain.User{Username: "alice", Role: domain.RoleUser}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/v1/users/login", `{"username":"alice","password":"secret1"}`, "")
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccessToken != "token-123" || resp.User.Username != "alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_Unauthorized(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, domain.ErrUnauthorized
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newTestContext(http.MethodPost, "/v1/users/login", `{"username":"alice","password":"nope"}`, "")
	if err := handler.Login(c); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{})

	c, _ := newTestContext(http.MethodPost, "/v1/users/login", `{"username":"alice"}`, "")
	expectHTTPError(t, handler.Login(c), http.StatusBadRequest)
}

func TestAuthHandler_AdminLogin_RequestsAdminRole(t *testing.T) {
	stub := &stubAuthService{
		loginAsFn: func(_ context.Context, username, _ string, role domain.Role) (string, *domain.User, error) {
			if role != domain.RoleAdmin {
				t.Fatalf("expected ADMIN role, got %s", role)
			}
			return "admin-token", &domain.User{Username: username, Role: domain.RoleAdmin}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/v1/admin/login", `{"username":"root","password":"rootpw1"}`, "")
	if err := handler.AdminLogin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	var got string
	stub := &stubAuthService{
		logoutFn: func(_ context.Context, token string) error {
			got = token
			return nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/v1/users/logout", "", "tok")
	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != "tok" || rec.Code != http.StatusOK {
		t.Fatalf("expected logout of tok with 200, got %q %d", got, rec.Code)
	}
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	stub := &stubAuthService{
		changePasswordFn: func(_ context.Context, token, newPassword, confirm string) (string, error) {
			if token != "old" || newPassword != "secret2" || confirm != "secret2" {
				t.Fatalf("unexpected args: %s %s %s", token, newPassword, confirm)
			}
			return "new", nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodPatch, "/v1/users/me/password", `{"new_password":"secret2","confirm_password":"secret2"}`, "old")
	if err := handler.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccessToken != "new" {
		t.Fatalf("expected new token, got %+v", resp)
	}
}

func TestAuthHandler_ChangePassword_Mismatch(t *testing.T) {
	stub := &stubAuthService{
		changePasswordFn: func(context.Context, string, string, string) (string, error) {
			return "", domain.ErrPasswordMismatch
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newTestContext(http.MethodPatch, "/v1/users/me/password", `{"new_password":"secret2","confirm_password":"secret3"}`, "old")
	if err := handler.ChangePassword(c); err != domain.ErrPasswordMismatch {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestAuthHandler_DeleteAccount(t *testing.T) {
	stub := &stubAuthService{
		deleteFn: func(_ context.Context, token, username, password string) error {
			if token != "tok" || username != "alice" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s %s", token, username, password)
			}
			return nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodDelete, "/v1/users/me", `{"username":"alice","password":"secret1"}`, "tok")
	if err := handler.DeleteAccount(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	stub := &stubAuthService{
		updateProfileFn: func(_ context.Context, token string, in ports.ProfileInput) (*domain.User, error) {
			if token != "tok" || in.Email != "new@example.com" {
				t.Fatalf("unexpected args: %s %+v", token, in)
			}
			return &domain.User{Username: "alice", Email: in.Email, Role: domain.RoleUser}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodPut, "/v1/users/me", `{"email":"new@example.com"}`, "tok")
	if err := handler.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
