package login

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	"github.com/pagenoemail/pagenoemail/internal/config"
	"github.com/pagenoemail/pagenoemail/internal/db/models"
	"github.com/pagenoemail/pagenoemail/internal/web/handler"
	"github.com/pagenoemail/pagenoemail/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = "/login"

	template = "login"
)

// Form is the login form.
type Form struct {
	Username string `form:"username" json:"username" validate:"required,max=100"`
	Password string `form:"password" json:"password" validate:"required"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	auth     *auth.Service
	validate *validator.Validate
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.cfg = deps.Cfg
	s.auth = deps.Auth
	s.validate = validator.New()

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, s.Get)
		router.Post(handler.RootPath, s.Post)
	})

	return nil
}

func (s *Service) renderError(c *fiber.Ctx, err error) error {
	return c.Render(template, fiber.Map{
		"title": s.cfg.Title,
		"error": err.Error(),
	})
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(template, fiber.Map{
		"title": s.cfg.Title,
	})
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.renderError(c, ErrInvalidFormData)
	}

	if err := s.validate.Struct(form); err != nil {
		return s.renderError(c, ErrInvalidFormData)
	}

	user, err := s.authenticate(form.Username, form.Password)
	if err != nil {
		return s.renderError(c, err)
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return s.renderError(c, ErrInternalServerError)
	}

	userSession := &session.Data{
		User: *user,
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return s.renderError(c, ErrInternalServerError)
	}

	// set login cookie
	cookieSettings := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	c.Cookie(cookieSettings)

	log.Info().Uint64("user_id", user.ID).Str("username", user.Username).Msg("user logged in")

	return c.Redirect(handler.HomePath)
}

func (s *Service) authenticate(username, password string) (*models.User, error) {
	user, err := s.auth.Authenticate(username, password)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidPassword):
		return nil, ErrInvalidCredentials
	case errors.Is(err, auth.ErrUserAccountDisabled):
		return nil, ErrAccountDisabled
	default:
		log.Error().Err(err).Str("username", username).Msg("authentication failed")
		return nil, ErrInternalServerError
	}
}
