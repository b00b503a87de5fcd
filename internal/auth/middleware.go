package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/pagenoemail/pagenoemail/internal/web/session"
)

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionData, err := session.FromRequest(c)
		if err != nil {
			log.Error().Err(err).Msg("no valid session")
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		hasPermission, err := authService.HasPermission(sessionData.User.ID, permission)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Str("permission", permission).
				Msg("Failed to check permission")

			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", sessionData.User.ID).Str("permission", permission).
				Msg("User lacks required permission")

			return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
		}

		return c.Next()
	}
}

// AddPermissionsToLocals is a Fiber middleware that adds user permissions to fiber.Locals.
// This allows templates to access permissions for conditional rendering.
func AddPermissionsToLocals(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionData, err := session.FromRequest(c)
		if err != nil {
			// not authenticated, continue without permissions
			return c.Next()
		}

		permissions, err := authService.GetUserPermissions(sessionData.User.ID)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).
				Msg("Failed to get user permissions")

			return c.Next()
		}

		set := make(map[string]bool, len(permissions))
		for _, p := range permissions {
			set[p] = true
		}

		c.Locals("permissions", permissions)
		c.Locals("hasPermission", func(perm string) bool {
			return set[perm]
		})

		return c.Next()
	}
}
