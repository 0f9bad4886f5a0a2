package middleware

import (
	"strings"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/logger"
)

const (
	localUserID    = "user_id"
	localUserRoles = "user_roles"
	localUserName  = "user_name"
)

// UserContextMiddleware extracts the user identity and roles set by the Gateway.
// Routes behind it require X-User-ID.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			logger.Warningf("❌ [USER_CTX] X-User-ID missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []models.Role
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
				roles = append(roles, models.Role(r))
			}
		}

		c.Locals(localUserID, userID)
		c.Locals(localUserRoles, roles)
		c.Locals(localUserName, strings.TrimSpace(c.Get("X-User-Name")))
		return c.Next()
	}
}

// RequireRole rejects users without role. Must run after UserContextMiddleware.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !HasRole(c, role) {
			logger.Warningf("🚫 [USER_CTX] %s lacks role %s for %s", UserID(c), role, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
				"cause": "requires role " + string(role),
			})
		}
		return c.Next()
	}
}

func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func UserName(c *fiber.Ctx) string {
	name, _ := c.Locals(localUserName).(string)
	return name
}

func UserRoles(c *fiber.Ctx) []models.Role {
	roles, _ := c.Locals(localUserRoles).([]models.Role)
	return roles
}

func HasRole(c *fiber.Ctx, role models.Role) bool {
	for _, r := range UserRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole is the first participant role the gateway sent.
func PrimaryRole(c *fiber.Ctx) models.Role {
	for _, r := range UserRoles(c) {
		if r.Valid() {
			return r
		}
	}
	return ""
}
