// Package notification serves the notification settings page.
package notification

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	"github.com/pagenoemail/pagenoemail/internal/config"
	postctl "github.com/pagenoemail/pagenoemail/internal/db/controller/post"
	"github.com/pagenoemail/pagenoemail/internal/mail"
	"github.com/pagenoemail/pagenoemail/internal/options"
	"github.com/pagenoemail/pagenoemail/internal/web/handler"
	"github.com/pagenoemail/pagenoemail/internal/web/navigation"
)

const (
	// Path is the path to the notification settings page.
	Path = handler.RootPath + "admin/settings/notification"

	// TemplateName is the name of the notification settings template.
	TemplateName = "admin/settings/notification"

	actionReset = "reset"
)

// Form is the settings form.
type Form struct {
	Subject          string   `form:"email_subject" validate:"max=255"`
	MessageTemplate  string   `form:"email_message" validate:"max=65535"`
	BCCAddress       string   `form:"bcc_address" validate:"max=255"`
	EnabledPostTypes []string `form:"enabled_post_types" validate:"dive,max=50"`
	Action           string   `form:"action" validate:"omitempty,oneof=save reset"`
}

// PostTypeOption is one checkbox of the post type list.
type PostTypeOption struct {
	Name    string
	Label   string
	Checked bool
}

// Service is the notification settings handler service.
type Service struct {
	handler.Service
	cfg        *config.Config
	db         *gorm.DB
	options    *options.Store
	mailErrors *mail.ErrorLog
}

// Handler is the notification settings handler.
var Handler = Service{}

// Init initializes the notification settings handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.cfg = deps.Cfg
	s.db = deps.DB
	s.options = options.NewStore(options.NewDB(deps.DB))
	s.mailErrors = deps.MailErrors

	protect := deps.CSRF()

	app.Get(Path,
		auth.RequirePermission(deps.Auth, auth.PermAdminSettings),
		protect,
		s.Get,
	)
	app.Post(Path,
		auth.RequirePermission(deps.Auth, auth.PermAdminSettings),
		protect,
		s.Post,
	)

	return nil
}

func (s *Service) nav() *navigation.Context {
	return navigation.NewContext("Notification Email Settings", navigation.SectionSettings, navigation.PageNotification).
		AddBreadcrumb("Settings", "", false).
		Current()
}

func (s *Service) postTypeOptions(enabled []string) ([]PostTypeOption, error) {
	types, err := postctl.PublicTypes(s.db)
	if err != nil {
		return nil, err
	}

	checked := make(map[string]bool, len(enabled))
	for _, t := range enabled {
		checked[t] = true
	}

	out := make([]PostTypeOption, 0, len(types))
	for _, t := range types {
		out = append(out, PostTypeOption{Name: t.Name, Label: t.Label, Checked: checked[t.Name]})
	}

	return out, nil
}

func (s *Service) render(c *fiber.Ctx, status int, settings options.Settings, extra fiber.Map) error {
	postTypes, err := s.postTypeOptions(settings.EnabledPostTypes)
	if err != nil {
		log.Error().Err(err).Msg("failed to list post types")
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load post types")
	}

	data := fiber.Map{
		"title":      s.cfg.Title,
		"navigation": s.nav(),
		"settings":   settings,
		"postTypes":  postTypes,
		"csrf":       c.Locals(handler.CSRFLocalsKey),
		"csrfField":  handler.CSRFField,
	}

	if s.mailErrors != nil {
		data["mailErrors"] = s.mailErrors.Entries()
	}

	for k, v := range extra {
		data[k] = v
	}

	return c.Status(status).Render(TemplateName, data, handler.BaseLayout)
}

// Get handles the settings page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	settings, err := s.options.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load notification settings")
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load settings")
	}

	return s.render(c, fiber.StatusOK, settings, nil)
}

// Post handles the settings form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		log.Error().Err(err).Msg("failed to parse notification settings form")

		return s.render(c, fiber.StatusBadRequest, s.formSettings(form), fiber.Map{"error": "Invalid form data"})
	}

	if errs := Validate(form); len(errs) > 0 {
		messages := make([]string, len(errs))
		for i, e := range errs {
			messages[i] = e.Message()
		}

		log.Error().Strs("errors", messages).Msg("validation failed for notification settings")

		return s.render(c, fiber.StatusBadRequest, s.formSettings(form), fiber.Map{"errors": messages})
	}

	if form.Action == actionReset {
		return s.reset(c)
	}

	saved, err := s.options.Save(s.formSettings(form))
	if err != nil {
		log.Error().Err(err).Msg("failed to save notification settings")

		return s.render(c, fiber.StatusInternalServerError, s.formSettings(form), fiber.Map{"error": "Failed to save settings"})
	}

	log.Info().
		Str("subject", saved.Subject).
		Bool("bcc", saved.BCCAddress != "").
		Strs("post_types", saved.EnabledPostTypes).
		Msg("notification settings saved")

	extra := fiber.Map{"success": "Settings saved."}
	if form.BCCAddress != "" && saved.BCCAddress == "" {
		extra["warning"] = "The BCC address was not valid and has been cleared."
	}

	return s.render(c, fiber.StatusOK, saved, extra)
}

func (s *Service) reset(c *fiber.Ctx) error {
	if err := s.options.Reset(); err != nil {
		log.Error().Err(err).Msg("failed to reset notification settings")
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to reset settings")
	}

	settings, err := s.options.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load notification settings")
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load settings")
	}

	log.Info().Msg("notification settings reset to defaults")

	return s.render(c, fiber.StatusOK, settings, fiber.Map{"success": "Settings restored to defaults."})
}

func (s *Service) formSettings(form *Form) options.Settings {
	return options.Settings{
		Subject:          form.Subject,
		MessageTemplate:  form.MessageTemplate,
		BCCAddress:       form.BCCAddress,
		EnabledPostTypes: form.EnabledPostTypes,
	}
}
