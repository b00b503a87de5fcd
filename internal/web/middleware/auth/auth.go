package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pagenoemail/pagenoemail/internal/logger"
	"github.com/pagenoemail/pagenoemail/internal/web/handler"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/login"
	"github.com/pagenoemail/pagenoemail/internal/web/session"
)

// AjaxPrefix marks requests answered with JSON instead of a login redirect.
const AjaxPrefix = "/ajax"

// Middleware is a Fiber middleware that checks for user authentication.
func Middleware(c *fiber.Ctx) error {
	isLoginPage := IsLoginPage(c)

	originalURL := strings.ToLower(c.OriginalURL())
	if strings.HasPrefix(originalURL, "/static") {
		return c.Next()
	}

	// Allow logout page without authentication
	if IsLogoutPage(c) {
		return c.Next()
	}

	sessData, err := session.FromRequest(c)
	if err != nil {
		switch {
		case isLoginPage:
			return c.Next()
		case IsAjax(c):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "data": "Unauthorized"})
		default:
			return c.Redirect(login.Path)
		}
	}

	// Add the current user to locals for template access
	c.Locals("CurrentUser", sessData.User)
	c.Locals(logger.LocalsUserID, sessData.User.ID)

	if isLoginPage {
		return c.Redirect(handler.HomePath)
	}

	return c.Next()
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())
	return strings.HasPrefix(originalURL, login.Path)
}

// IsLogoutPage checks if the current request is for the logout page.
func IsLogoutPage(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())
	return strings.HasPrefix(originalURL, "/logout")
}

// IsAjax checks if the current request targets the ajax endpoints.
func IsAjax(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())
	return strings.HasPrefix(originalURL, AjaxPrefix+"/")
}
