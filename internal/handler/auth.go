package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/firdavsDev/video-streamer-go/internal/middleware"
	"github.com/firdavsDev/video-streamer-go/internal/model"
	"github.com/firdavsDev/video-streamer-go/internal/repository"
	"github.com/firdavsDev/video-streamer-go/internal/service"
)

type AuthHandler struct {
	auth  *service.AuthService
	users *repository.UserRepo
}

func NewAuthHandler(auth *service.AuthService, users *repository.UserRepo) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "username and password are required")
	}

	pair, user, err := h.auth.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserInactive) {
			return middleware.ErrorResponse(c, fiber.StatusForbidden, "USER_INACTIVE", "Account is deactivated")
		}
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect username or password")
	}

	return c.JSON(fiber.Map{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"tokenType":    pair.TokenType,
		"expiresIn":    pair.ExpiresIn,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var req model.RefreshRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.RefreshToken == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "refreshToken is required")
	}

	pair, err := h.auth.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrUserInactive) {
			return middleware.ErrorResponse(c, fiber.StatusForbidden, "USER_INACTIVE", "Account is deactivated")
		}
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired refresh token")
	}
	return c.JSON(pair)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c fiber.Ctx) error {
	userID, _ := c.Locals(middleware.LocalUserID).(string)
	user, err := h.users.FindByID(c.Context(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "User not found")
	}
	return c.JSON(user)
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless, so logout
// is client-side discard; the endpoint exists so clients have a uniform flow.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Successfully logged out"})
}

// ChangePassword handles POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c fiber.Ctx) error {
	var req model.ChangePasswordRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "currentPassword and newPassword are required")
	}

	userID, _ := c.Locals(middleware.LocalUserID).(string)
	if err := h.auth.ChangePassword(c.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_CREDENTIALS", "Current password is incorrect")
		}
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "WEAK_PASSWORD", err.Error())
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// ValidateToken handles GET /api/v1/auth/validate-token. The auth middleware
// has already verified the token by the time this runs.
func (h *AuthHandler) ValidateToken(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"valid":    true,
		"username": c.Locals(middleware.LocalUsername),
		"role":     c.Locals(middleware.LocalRole),
	})
}

// Permissions handles GET /api/v1/auth/permissions, returning the caller's
// role-derived capabilities.
func (h *AuthHandler) Permissions(c fiber.Ctx) error {
	role, _ := c.Locals(middleware.LocalRole).(string)
	perms := model.PermissionsForRole(role)
	return c.JSON(fiber.Map{
		"user":            c.Locals(middleware.LocalUsername),
		"role":            role,
		"canUploadVideos": perms.CanUploadVideos,
		"canDeleteVideos": perms.CanDeleteVideos,
		"canManageUsers":  perms.CanManageUsers,
	})
}

// SessionInfo handles GET /api/v1/auth/session-info.
func (h *AuthHandler) SessionInfo(c fiber.Ctx) error {
	userID, _ := c.Locals(middleware.LocalUserID).(string)
	user, err := h.users.FindByID(c.Context(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "User not found")
	}

	perms := model.PermissionsForRole(user.Role)
	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
		"session": fiber.Map{
			"authenticated": true,
			"expiresIn":     int(h.auth.AccessTTL().Seconds()),
		},
		"capabilities": fiber.Map{
			"videoUpload":     perms.CanUploadVideos,
			"videoManagement": perms.CanDeleteVideos,
			"analyticsAccess": true,
			"userManagement":  perms.CanManageUsers,
		},
	})
}

// ListUsers handles GET /api/v1/auth/users (super admin only).
func (h *AuthHandler) ListUsers(c fiber.Ctx) error {
	users, err := h.users.ListAll(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users")
	}
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(fiber.Map{"users": users, "total": len(users)})
}

// ToggleUserStatus handles POST /api/v1/auth/users/:username/toggle-status
// (super admin only).
func (h *AuthHandler) ToggleUserStatus(c fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_PARAM", "username is required")
	}
	if me, _ := c.Locals(middleware.LocalUsername).(string); me == username {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "SELF_TOGGLE", "Cannot change your own account status")
	}

	active, err := h.users.ToggleActive(c.Context(), username)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "User not found")
	}
	return c.JSON(fiber.Map{"username": username, "isActive": active})
}
