// Package account lets the logged in user change their own password.
package account

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	"github.com/pagenoemail/pagenoemail/internal/config"
	"github.com/pagenoemail/pagenoemail/internal/web/handler"
	"github.com/pagenoemail/pagenoemail/internal/web/navigation"
	"github.com/pagenoemail/pagenoemail/internal/web/session"
)

const (
	// Path is the password change page.
	Path = handler.RootPath + "account/password"

	// TemplateName is the password change template.
	TemplateName = "account/password"
)

// PasswordForm is the password change form.
type PasswordForm struct {
	Current string `form:"current_password" validate:"required"`
	New     string `form:"new_password"     validate:"required,min=8,max=128"`
	Confirm string `form:"confirm_password" validate:"required,eqfield=New"`
}

// Service is the account handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	accounts  *auth.Accounts
	validator *validator.Validate
}

// Handler is the account handler.
var Handler = Service{}

// Init initializes the account handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.cfg = deps.Cfg
	s.accounts = auth.NewAccounts(deps.DB)
	s.validator = validator.New()

	protect := deps.CSRF()

	app.Get(Path, requireSession, protect, s.Get)
	app.Post(Path, requireSession, protect, s.Post)

	return nil
}

func requireSession(c *fiber.Ctx) error {
	if _, err := session.FromRequest(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	return c.Next()
}

func (s *Service) render(c *fiber.Ctx, status int, extra fiber.Map) error {
	data := fiber.Map{
		"title":      s.cfg.Title,
		"navigation": navigation.NewContext("Change Password", navigation.SectionAccount, navigation.PagePassword).Current(),
		"csrf":       c.Locals(handler.CSRFLocalsKey),
		"csrfField":  handler.CSRFField,
	}

	for k, v := range extra {
		data[k] = v
	}

	return c.Status(status).Render(TemplateName, data, handler.BaseLayout)
}

// Get shows the password form.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, nil)
}

// Post changes the password of the session user.
func (s *Service) Post(c *fiber.Ctx) error {
	data, err := session.FromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	form := new(PasswordForm)
	if err := c.BodyParser(form); err != nil {
		return s.render(c, fiber.StatusBadRequest, fiber.Map{"error": "Invalid form data"})
	}

	if err := s.validator.Struct(form); err != nil {
		msg := "The new password must be 8 to 128 characters and both entries must match."
		if form.Current == "" {
			msg = "Please enter your current password."
		}

		return s.render(c, fiber.StatusBadRequest, fiber.Map{"error": msg})
	}

	err = s.accounts.ChangePassword(data.User.ID, form.Current, form.New)

	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidOldPassword):
		log.Warn().Uint64("user_id", data.User.ID).Msg("password change with wrong current password")
		return s.render(c, fiber.StatusBadRequest, fiber.Map{"error": "The current password is not correct."})
	default:
		log.Error().Err(err).Uint64("user_id", data.User.ID).Msg("failed to change password")
		return s.render(c, fiber.StatusInternalServerError, fiber.Map{"error": "Failed to change password."})
	}

	log.Info().Uint64("user_id", data.User.ID).Msg("password changed")

	return s.render(c, fiber.StatusOK, fiber.Map{"success": "Password changed."})
}
