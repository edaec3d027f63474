package handler

import (
	"context"
	"net/http"

	"sales-service/internal/apperror"
	"sales-service/internal/middleware"
	"sales-service/internal/model"
	"sales-service/internal/service"
	"sales-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

// AuthService is what AuthHandler needs from the auth layer
type AuthService interface {
	Signup(ctx context.Context, in service.SignupInput) (*service.Token, error)
	Login(ctx context.Context, in service.LoginInput) (*service.Token, error)
	Me(ctx context.Context, userID uint) (*model.User, error)
	Logout(ctx context.Context, claims *jwtutil.UserClaims) error
	Refresh(ctx context.Context, claims *jwtutil.UserClaims) (*service.Token, error)
}

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(c echo.Context) error {
	var in service.SignupInput
	if err := bind(c, &in); err != nil {
		return err
	}
	token, err := h.auth.Signup(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "User registered successfully.", token)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var in service.LoginInput
	if err := bind(c, &in); err != nil {
		return err
	}
	token, err := h.auth.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Login successful.", token)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "User retrieved successfully.", user)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.Request().Context(), claims); err != nil {
		return err
	}
	return success(c, http.StatusOK, "Successfully logged out.", nil)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c echo.Context) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	token, err := h.auth.Refresh(c.Request().Context(), claims)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Token refreshed successfully.", token)
}

func currentUser(c echo.Context) (*jwtutil.UserClaims, error) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, apperror.Unauthorized("Unauthenticated.")
	}
	return claims, nil
}
