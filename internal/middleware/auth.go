package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/firdavsDev/video-streamer-go/internal/model"
	"github.com/firdavsDev/video-streamer-go/internal/service"
)

// Locals keys set by the auth middleware.
const (
	LocalUserID   = "userID"
	LocalUsername = "username"
	LocalRole     = "role"
)

// NewAuth returns a middleware that requires a valid bearer access token and
// stores the caller's identity in request locals.
func NewAuth(auth *service.AuthService) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Missing or malformed authorization header")
		}

		claims, err := auth.VerifyAccessToken(token)
		if err != nil {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		}

		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalUsername, claims.Username)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// RequireSuperAdmin gates user management routes behind the super admin role.
// It must run after NewAuth.
func RequireSuperAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		role, _ := c.Locals(LocalRole).(string)
		if role != model.RoleSuperAdmin {
			return ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN", "Super admin privileges required")
		}
		return c.Next()
	}
}

func bearerToken(c fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
